package skel

import (
	"fmt"
	"iter"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type PoseBone struct {
	Bone  *Bone
	Local Space
	World Affine
}

type PoseSlot struct {
	Slot       *Slot
	Color      mgl32.Vec4
	Attachment string
}

// Pose 是某个动画某一时刻的运行时状态，多个 Pose 可以共享同一份 Data
type Pose struct {
	Data    *Data
	SkinKey string
	AnimKey string
	Time    float32
	Root    Affine // 根骨骼外的整体变换，用于摆放位置

	Bones     []*PoseBone
	Slots     []*PoseSlot
	DrawOrder []int
	ikMix     []float32
	ikBend    []bool
}

func NewPose(data *Data) *Pose {
	res := &Pose{
		Data:    data,
		SkinKey: DefaultSkin,
		Root:    IdentityAffine(),
	}
	for _, bone := range data.Bones {
		res.Bones = append(res.Bones, &PoseBone{Bone: bone})
	}
	for _, slot := range data.Slots {
		res.Slots = append(res.Slots, &PoseSlot{Slot: slot})
	}
	res.DrawOrder = make([]int, len(data.Slots))
	res.ikMix = make([]float32, len(data.IKConstraints))
	res.ikBend = make([]bool, len(data.IKConstraints))
	res.Strike(0)
	return res
}

func (p *Pose) SetSkin(key string) error {
	if p.Data.Skin(key) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownSkin, key)
	}
	p.SkinKey = key
	return nil
}

// SetAnim 切换动画并从头播放，空字符串表示停在 setup pose
func (p *Pose) SetAnim(key string) error {
	if key != "" && p.Data.Animation(key) == nil {
		return fmt.Errorf("%w: %q", ErrUnknownAnim, key)
	}
	p.AnimKey = key
	p.Strike(0)
	return nil
}

func (p *Pose) Animation() *Animation {
	if p.AnimKey == "" {
		return nil
	}
	return p.Data.Animation(p.AnimKey)
}

// Advance 推进时间，超过时长后循环播放
func (p *Pose) Advance(dt float32) {
	curr := p.Time + dt
	if anim := p.Animation(); anim != nil && anim.Duration > 0 {
		curr = math32.Mod(curr, anim.Duration)
		if curr < 0 {
			curr += anim.Duration
		}
	}
	p.Strike(curr)
}

// Strike 以 setup pose 为基础应用动画 再计算世界变换与 IK
func (p *Pose) Strike(curr float32) {
	p.Time = curr
	p.reset()
	if anim := p.Animation(); anim != nil {
		p.applyAnimation(anim, curr)
	}
	p.updateWorld()
	for i, ikc := range p.Data.IKConstraints {
		p.applyIK(ikc, p.ikMix[i], p.ikBend[i])
		p.updateWorld()
	}
}

func (p *Pose) reset() {
	// 运行时数据默认为初始状态，防止动画没有改动为零值
	for _, bone := range p.Bones {
		bone.Local = bone.Bone.Local
	}
	for i, slot := range p.Slots {
		slot.Color = slot.Slot.Color
		slot.Attachment = slot.Slot.Attachment
		p.DrawOrder[i] = i
	}
	for i, ikc := range p.Data.IKConstraints {
		p.ikMix[i] = ikc.Mix
		p.ikBend[i] = ikc.BendPositive
	}
}

func (p *Pose) applyAnimation(anim *Animation, curr float32) {
	for name, timelines := range anim.Bones {
		if idx, ok := p.Data.boneIndex[name]; ok {
			timelines.apply(p.Bones[idx], curr)
		}
	}
	for name, timelines := range anim.Slots {
		if idx, ok := p.Data.slotIndex[name]; ok {
			timelines.apply(p.Slots[idx], curr)
		}
	}
	if idx := FindKeyframe(anim.DrawOrder, curr); idx >= 0 && anim.DrawOrder[idx].Order != nil {
		copy(p.DrawOrder, anim.DrawOrder[idx].Order)
	}
	for i, ikc := range p.Data.IKConstraints {
		frames := anim.IK[ikc.Name]
		if len(frames) == 0 {
			continue
		}
		i0, i1, rate := bracket(frames, curr)
		p.ikMix[i] = Lerp(frames[i0].Mix, frames[i1].Mix, rate)
		p.ikBend[i] = frames[i0].BendPositive
	}
}

func (p *Pose) updateWorld() {
	for _, bone := range p.Bones {
		parent := &p.Root
		if bone.Bone.Parent != nil {
			parent = &p.Bones[bone.Bone.Parent.Index].World
		}
		bone.World = worldOf(parent, bone.Local, bone.Bone.Mode)
	}
}

func (p *Pose) World(bone int) Affine {
	return p.Bones[bone].World
}

func (p *Pose) Bone(name string) *PoseBone {
	idx, ok := p.Data.boneIndex[name]
	if !ok {
		return nil
	}
	return p.Bones[idx]
}

// Attachments 按当前绘制顺序遍历每个槽位实例化的附件
func (p *Pose) Attachments() iter.Seq[SlotAttachment] {
	return func(yield func(SlotAttachment) bool) {
		for _, idx := range p.DrawOrder {
			slot := p.Slots[idx]
			if slot.Attachment == "" {
				continue
			}
			item := SlotAttachment{
				Slot:       slot.Slot,
				Key:        slot.Attachment,
				Attachment: p.Data.FindAttachment(p.SkinKey, slot.Slot.Name, slot.Attachment),
				Color:      slot.Color,
				BoneWorld:  p.Bones[slot.Slot.Bone.Index].World,
			}
			if !yield(item) {
				return
			}
		}
	}
}
