package skel

import (
	"errors"
	"fmt"
	"iter"

	"cogentcore.org/core/base/ordmap"
	"github.com/go-gl/mathgl/mgl32"
)

const DefaultSkin = "default"

var (
	ErrUnknownBone = errors.New("skel: unknown bone")
	ErrUnknownSlot = errors.New("skel: unknown slot")
	ErrUnknownSkin = errors.New("skel: unknown skin")
	ErrUnknownAnim = errors.New("skel: unknown animation")
)

type TransformMode uint8

const (
	TransformNormal TransformMode = iota
	TransformOnlyTranslation
	TransformNoRotationOrReflection
	TransformNoScale
	TransformNoScaleOrReflection
)

type Bone struct {
	Index  int
	Name   string
	Parent *Bone // 根骨骼为 nil
	Length float32
	Local  Space
	Mode   TransformMode // 继承父节点那些变换属性
	World  Affine        // setup pose 下的世界变换
}

type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

type Slot struct {
	Index      int
	Name       string
	Bone       *Bone
	Color      mgl32.Vec4
	Attachment string // setup 时的附件
	Blend      BlendMode
}

type AttachmentKind uint8

const (
	AttachmentUnknown AttachmentKind = iota
	AttachmentRegion
	AttachmentBoundingBox
	AttachmentMesh
	AttachmentWeightedMesh
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentRegion:
		return "region"
	case AttachmentBoundingBox:
		return "boundingbox"
	case AttachmentMesh:
		return "mesh"
	case AttachmentWeightedMesh:
		return "weightedmesh"
	default:
		return "unknown"
	}
}

type Attachment struct {
	Name string
	Path string // 在 atlas 中的名字，为空时使用附件 key
	Type string // 原始数据里的类型名
	Kind AttachmentKind
	// AttachmentRegion
	Local         Space
	Width, Height float32
	Color         mgl32.Vec4
	// AttachmentMesh 为 x,y 对  AttachmentWeightedMesh 为 count,(bone,x,y,weight)* 的扁平流
	// AttachmentBoundingBox 为多边形 x,y 对
	Vertices  []float32
	UVs       []float32
	Triangles []uint16
	Hull      int
}

type SlotAttachments = ordmap.Map[string, *Attachment]

type Skin struct {
	Name  string
	Slots *ordmap.Map[string, *SlotAttachments]
}

func NewSkin(name string) *Skin {
	return &Skin{Name: name, Slots: ordmap.New[string, *SlotAttachments]()}
}

func (s *Skin) Add(slot, key string, attachment *Attachment) {
	items, ok := s.Slots.ValueByKeyTry(slot)
	if !ok {
		items = ordmap.New[string, *Attachment]()
		s.Slots.Add(slot, items)
	}
	items.Add(key, attachment)
}

func (s *Skin) Attachment(slot, key string) *Attachment {
	if s == nil {
		return nil
	}
	items, ok := s.Slots.ValueByKeyTry(slot)
	if !ok {
		return nil
	}
	res, _ := items.ValueByKeyTry(key)
	return res
}

type SkinEntry struct {
	Slot       string
	Key        string
	Attachment *Attachment
}

// Entries 按声明顺序遍历皮肤下的全部附件
func (s *Skin) Entries() iter.Seq[SkinEntry] {
	return func(yield func(SkinEntry) bool) {
		for _, slot := range s.Slots.Order {
			for _, item := range slot.Value.Order {
				if !yield(SkinEntry{Slot: slot.Key, Key: item.Key, Attachment: item.Value}) {
					return
				}
			}
		}
	}
}

type IKConstraint struct {
	Name         string
	Bones        []*Bone // 1 或 2 根骨骼，父在前
	Target       *Bone
	Mix          float32
	BendPositive bool
}

type Data struct {
	Hash          string
	Version       string
	Size          mgl32.Vec2
	Bones         []*Bone
	Slots         []*Slot
	Skins         *ordmap.Map[string, *Skin]
	Animations    *ordmap.Map[string, *Animation]
	IKConstraints []*IKConstraint

	boneIndex map[string]int
	slotIndex map[string]int
}

func NewData() *Data {
	return &Data{
		Skins:      ordmap.New[string, *Skin](),
		Animations: ordmap.New[string, *Animation](),
		boneIndex:  make(map[string]int),
		slotIndex:  make(map[string]int),
	}
}

func (d *Data) AddBone(bone *Bone) {
	bone.Index = len(d.Bones)
	d.boneIndex[bone.Name] = bone.Index
	d.Bones = append(d.Bones, bone)
}

func (d *Data) AddSlot(slot *Slot) {
	slot.Index = len(d.Slots)
	d.slotIndex[slot.Name] = slot.Index
	d.Slots = append(d.Slots, slot)
}

func (d *Data) Bone(name string) (*Bone, error) {
	idx, ok := d.boneIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBone, name)
	}
	return d.Bones[idx], nil
}

func (d *Data) Slot(name string) (*Slot, error) {
	idx, ok := d.slotIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
	}
	return d.Slots[idx], nil
}

func (d *Data) Skin(name string) *Skin {
	res, _ := d.Skins.ValueByKeyTry(name)
	return res
}

func (d *Data) Animation(name string) *Animation {
	res, _ := d.Animations.ValueByKeyTry(name)
	return res
}

// FindAttachment 先查指定皮肤，没有再回退到默认皮肤
func (d *Data) FindAttachment(skin, slot, key string) *Attachment {
	if res := d.Skin(skin).Attachment(slot, key); res != nil {
		return res
	}
	return d.Skin(DefaultSkin).Attachment(slot, key)
}

// World 返回 setup pose 下骨骼的世界变换
func (d *Data) World(bone int) Affine {
	return d.Bones[bone].World
}

// UpdateWorld 计算 setup pose 的世界变换，骨骼顺序保证父节点在前
func (d *Data) UpdateWorld() {
	for _, bone := range d.Bones {
		var parent *Affine
		if bone.Parent != nil {
			parent = &bone.Parent.World
		}
		bone.World = worldOf(parent, bone.Local, bone.Mode)
	}
}

// Attachments 按 slot 顺序遍历 setup pose 下每个槽位的附件
func (d *Data) Attachments(skin string) iter.Seq[SlotAttachment] {
	return func(yield func(SlotAttachment) bool) {
		for _, slot := range d.Slots {
			if slot.Attachment == "" {
				continue
			}
			item := SlotAttachment{
				Slot:       slot,
				Key:        slot.Attachment,
				Attachment: d.FindAttachment(skin, slot.Name, slot.Attachment),
				Color:      slot.Color,
				BoneWorld:  slot.Bone.World,
			}
			if !yield(item) {
				return
			}
		}
	}
}

// SlotAttachment 是遍历时某个槽位当前实例化的附件，Attachment 可能为 nil
type SlotAttachment struct {
	Slot       *Slot
	Key        string
	Attachment *Attachment
	Color      mgl32.Vec4
	BoneWorld  Affine
}

// Skeleton 由 *Data (setup pose) 与 *Pose 实现，按骨骼下标提供世界变换
type Skeleton interface {
	World(bone int) Affine
}

func worldOf(parent *Affine, local Space, mode TransformMode) Affine {
	if parent == nil { // 没有父节点局部坐标就是世界坐标
		return local.Affine()
	}
	res := Affine{Pos: parent.Transform(local.Position)}
	switch mode {
	case TransformOnlyTranslation:
		res.Mat = Rotate(local.Rotation).Mul2(Scale(local.Scale))
	case TransformNoRotationOrReflection: // 只继承缩放
		res.Mat = Scale(parent.Scale()).Mul2(Rotate(local.Rotation)).Mul2(Scale(local.Scale))
	case TransformNoScale, TransformNoScaleOrReflection: // 只继承旋转
		res.Mat = normalize(parent.Mat).Mul2(Rotate(local.Rotation)).Mul2(Scale(local.Scale))
	default:
		res.Mat = parent.Mat.Mul2(Rotate(local.Rotation)).Mul2(Scale(local.Scale))
	}
	return res
}
