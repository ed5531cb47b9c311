package skel

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// 二进制格式里的类型编号
const (
	binAttachmentRegion = iota
	binAttachmentBoundingBox
	binAttachmentMesh
	binAttachmentLinkedMesh
	binAttachmentPath
	binAttachmentPoint
	binAttachmentClipping
)

const (
	binSlotAttachment = iota
	binSlotColor
	binSlotTwoColor
)

const (
	binBoneRotate = iota
	binBoneTranslate
	binBoneScale
	binBoneShear
)

const (
	binPathPosition = iota
	binPathSpacing
	binPathMix
)

const (
	binCurveLinear = iota
	binCurveStepped
	binCurveBezier
)

// binReader 记录第一个错误，之后的读取全部返回零值，调用方在段落结束时检查 err
type binReader struct {
	r       *bufio.Reader
	err     error
	strings []string
	buf     [8]byte
}

func (b *binReader) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *binReader) readBytes(count int) []byte {
	if b.err != nil || count <= 0 {
		return nil
	}
	var res []byte
	if count > len(b.buf) {
		res = make([]byte, count)
	} else {
		res = b.buf[:count] // 下一次读取前有效
	}
	if _, err := io.ReadFull(b.r, res); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		b.fail(fmt.Errorf("skel: read binary: %w", err))
		return nil
	}
	return res
}

func (b *binReader) skip(count int) {
	b.readBytes(count)
}

func (b *binReader) readU8() uint8 {
	bs := b.readBytes(1)
	if bs == nil {
		return 0
	}
	return bs[0]
}

func (b *binReader) readBool() bool {
	return b.readU8() != 0
}

func (b *binReader) readU16() uint16 {
	bs := b.readBytes(2)
	if bs == nil {
		return 0
	}
	return binary.BigEndian.Uint16(bs)
}

func (b *binReader) readF4() float32 {
	bs := b.readBytes(4)
	if bs == nil {
		return 0
	}
	return math.Float32frombits(binary.BigEndian.Uint32(bs))
}

// readInt 读取变长整数，每个字节低 7 位有效，最高位表示后面还有
func (b *binReader) readInt() int {
	res := uint32(0)
	for shift := 0; shift <= 28; shift += 7 {
		temp := b.readU8()
		res |= uint32(temp&127) << shift
		if temp&128 == 0 {
			break
		}
	}
	return int(int32(res)) // 保留负号
}

// readCount 读取数量，负数或超出剩余数据的数量视为损坏
func (b *binReader) readCount() int {
	res := b.readInt()
	if res < 0 || res > 1<<24 {
		b.fail(fmt.Errorf("%w: count %d", ErrInvalidData, res))
		return 0
	}
	return res
}

func (b *binReader) readStr() string {
	count := b.readCount()
	if count <= 1 {
		return ""
	}
	return string(b.readBytes(count - 1))
}

func (b *binReader) readRefStr() string {
	idx := b.readInt() - 1
	if idx < 0 {
		return ""
	}
	if idx >= len(b.strings) {
		b.fail(fmt.Errorf("%w: string ref %d", ErrInvalidData, idx))
		return ""
	}
	return b.strings[idx]
}

func (b *binReader) readClr() mgl32.Vec4 {
	bs := b.readBytes(4)
	if bs == nil {
		return mgl32.Vec4{1, 1, 1, 1}
	}
	return mgl32.Vec4{
		float32(bs[0]) / 0xFF,
		float32(bs[1]) / 0xFF,
		float32(bs[2]) / 0xFF,
		float32(bs[3]) / 0xFF,
	}
}

func (b *binReader) readAny(desc any) {
	if b.err != nil {
		return
	}
	if err := binary.Read(b.r, binary.BigEndian, desc); err != nil {
		b.fail(fmt.Errorf("skel: read binary: %w", err))
	}
}

func (b *binReader) readFloats(count int) []float32 {
	res := make([]float32, count)
	for i := range res {
		res[i] = b.readF4()
	}
	return res
}

func (b *binReader) readCurve() Curve {
	switch kind := b.readU8(); kind {
	case binCurveLinear:
		return Curve{}
	case binCurveStepped:
		return Curve{Type: CurveStepped}
	case binCurveBezier:
		res := Curve{Type: CurveBezier}
		b.readAny(&res.Data)
		return res
	default:
		b.fail(fmt.Errorf("%w: curve type %d", ErrInvalidData, kind))
		return Curve{}
	}
}

// binLoader 保存解析二进制骨骼时需要的上下文
type binLoader struct {
	*binReader
	data         *Data
	nonessential bool
	skins        []string // 二进制里皮肤按下标引用，0 为默认皮肤
	audioEvents  []bool   // 事件是否带音频，决定动画事件帧的长度
}

// LoadBinary 解析 3.8 导出的 .skel 二进制骨骼数据，约束、事件与路径附件只做跳过
func LoadBinary(r io.Reader) (*Data, error) {
	l := &binLoader{
		binReader: &binReader{r: bufio.NewReader(r)},
		data:      NewData(),
	}
	steps := []struct {
		name string
		fn   func() error
	}{
		{"header", l.loadHeader},
		{"strings", l.loadStrings},
		{"bones", l.loadBones},
		{"slots", l.loadSlots},
		{"constraints", l.loadConstraints},
		{"skins", l.loadSkins},
		{"events", l.loadEvents},
		{"animations", l.loadAnimations},
	}
	for _, step := range steps {
		err := step.fn()
		if l.err != nil { // 读取错误会导致后续校验误报，优先返回
			err = l.err
		}
		if err != nil {
			return nil, fmt.Errorf("skel: binary %s: %w", step.name, err)
		}
	}
	l.data.UpdateWorld()
	return l.data, nil
}

func (l *binLoader) loadHeader() error {
	l.data.Hash = l.readStr()
	l.data.Version = l.readStr()
	temp := [2]mgl32.Vec2{} // x,y  width,height
	l.readAny(&temp)
	l.data.Size = temp[1]
	l.nonessential = l.readBool()
	if l.nonessential {
		l.readF4()  // fps
		l.readStr() // images
		l.readStr() // audio
	}
	return nil
}

func (l *binLoader) loadStrings() error {
	count := l.readCount()
	l.strings = make([]string, 0, count)
	for i := 0; i < count && l.err == nil; i++ {
		l.strings = append(l.strings, l.readStr())
	}
	return nil
}

func (l *binLoader) loadBones() error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		bone := &Bone{Name: l.readStr()}
		if i > 0 {
			parent := l.readInt()
			if parent < 0 || parent >= len(l.data.Bones) {
				return fmt.Errorf("%w: bone %q parent %d", ErrInvalidData, bone.Name, parent)
			}
			bone.Parent = l.data.Bones[parent]
		}
		bone.Local.Rotation = mgl32.DegToRad(l.readF4())
		temp := [3]mgl32.Vec2{} // pos scale shear
		l.readAny(&temp)
		bone.Local.Position = temp[0]
		bone.Local.Scale = temp[1]
		if temp[2] != (mgl32.Vec2{}) {
			slog.Debug("skel: bone shear ignored", "bone", bone.Name, "shear", temp[2])
		}
		bone.Length = l.readF4()
		mode := l.readInt()
		if mode < 0 || mode > int(TransformNoScaleOrReflection) {
			return fmt.Errorf("%w: bone %q transform %d", ErrInvalidData, bone.Name, mode)
		}
		bone.Mode = TransformMode(mode)
		l.readBool() // skin required
		if l.nonessential {
			l.skip(4) // 编辑器里的颜色
		}
		l.data.AddBone(bone)
	}
	return nil
}

func (l *binLoader) bone(idx int) (*Bone, error) {
	if idx < 0 || idx >= len(l.data.Bones) {
		return nil, fmt.Errorf("%w: bone index %d", ErrInvalidData, idx)
	}
	return l.data.Bones[idx], nil
}

func (l *binLoader) slot(idx int) (*Slot, error) {
	if idx < 0 || idx >= len(l.data.Slots) {
		return nil, fmt.Errorf("%w: slot index %d", ErrInvalidData, idx)
	}
	return l.data.Slots[idx], nil
}

func (l *binLoader) loadSlots() error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		slot := &Slot{Name: l.readStr()}
		bone, err := l.bone(l.readInt())
		if err != nil {
			return fmt.Errorf("slot %q: %w", slot.Name, err)
		}
		slot.Bone = bone
		slot.Color = l.readClr()
		l.skip(4) // dark color
		slot.Attachment = l.readRefStr()
		blend := l.readInt()
		if blend < 0 || blend > int(BlendScreen) {
			return fmt.Errorf("%w: slot %q blend %d", ErrInvalidData, slot.Name, blend)
		}
		slot.Blend = BlendMode(blend)
		l.data.AddSlot(slot)
	}
	return nil
}

// loadConstraints 只保留 IK，变换约束与路径约束直接跳过
func (l *binLoader) loadConstraints() error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		ikc := &IKConstraint{Name: l.readStr()}
		l.readInt()  // order
		l.readBool() // skin required
		boneCount := l.readCount()
		if l.err == nil && (boneCount < 1 || boneCount > 2) {
			return fmt.Errorf("%w: ik %q has %d bones", ErrInvalidData, ikc.Name, boneCount)
		}
		for j := 0; j < boneCount; j++ {
			bone, err := l.bone(l.readInt())
			if err != nil {
				return fmt.Errorf("ik %q: %w", ikc.Name, err)
			}
			ikc.Bones = append(ikc.Bones, bone)
		}
		target, err := l.bone(l.readInt())
		if err != nil {
			return fmt.Errorf("ik %q: %w", ikc.Name, err)
		}
		ikc.Target = target
		ikc.Mix = l.readF4()
		l.readF4() // softness
		ikc.BendPositive = int8(l.readU8()) >= 0
		l.skip(3) // compress stretch uniform
		l.data.IKConstraints = append(l.data.IKConstraints, ikc)
	}
	skipOther := func(rest int) {
		count := l.readCount()
		for i := 0; i < count && l.err == nil; i++ {
			l.readStr()
			l.readInt()
			l.readBool()
			boneCount := l.readCount()
			for j := 0; j < boneCount; j++ {
				l.readInt()
			}
			l.readInt()
			l.skip(rest)
		}
	}
	skipOther(2 + 10*4) // transform
	skipOther(3 + 5*4)  // path
	return nil
}


// loadSkins 默认皮肤只有 slot 列表，数量为 0 表示没有默认皮肤
func (l *binLoader) loadSkins() error {
	if count := l.readCount(); count > 0 {
		if err := l.loadSkin(DefaultSkin, count); err != nil {
			return err
		}
	} else {
		l.skins = append(l.skins, DefaultSkin)
	}
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		name := l.readRefStr()
		for j := 0; j < 4; j++ { // bones ik transform path
			items := l.readCount()
			for k := 0; k < items; k++ {
				l.readInt()
			}
		}
		if err := l.loadSkin(name, l.readCount()); err != nil {
			return err
		}
	}
	return nil
}

func (l *binLoader) loadSkin(name string, slotCount int) error {
	if l.data.Skin(name) != nil {
		return fmt.Errorf("%w: duplicate skin %q", ErrInvalidData, name)
	}
	skin := NewSkin(name)
	for i := 0; i < slotCount && l.err == nil; i++ {
		slot, err := l.slot(l.readInt())
		if err != nil {
			return fmt.Errorf("skin %q: %w", name, err)
		}
		count := l.readCount()
		for j := 0; j < count && l.err == nil; j++ {
			key := l.readRefStr()
			attachment, err := l.loadAttachment(key)
			if err != nil {
				return fmt.Errorf("skin %q slot %q attachment %q: %w", name, slot.Name, key, err)
			}
			if attachment != nil {
				skin.Add(slot.Name, key, attachment)
			}
		}
	}
	l.skins = append(l.skins, name)
	l.data.Skins.Add(name, skin)
	return nil
}

// readVertices 返回与 JSON 相同的顶点流，带权重时为 count,(bone,x,y,weight)*
func (l *binLoader) readVertices(count int) ([]float32, bool) {
	if !l.readBool() {
		return l.readFloats(count * 2), false
	}
	res := make([]float32, 0, count*5)
	for i := 0; i < count && l.err == nil; i++ {
		bones := l.readCount()
		res = append(res, float32(bones))
		for j := 0; j < bones; j++ {
			res = append(res, float32(l.readInt()), l.readF4(), l.readF4(), l.readF4())
		}
	}
	return res, true
}

// loadAttachment 不支持的附件类型读完数据后返回 nil
func (l *binLoader) loadAttachment(key string) (*Attachment, error) {
	name := l.readRefStr()
	if name == "" {
		name = key
	}
	kind := l.readU8()
	res := &Attachment{Name: name, Color: mgl32.Vec4{1, 1, 1, 1}}
	switch kind {
	case binAttachmentRegion:
		res.Type = "region"
		res.Kind = AttachmentRegion
		res.Path = l.readRefStr()
		res.Local.Rotation = mgl32.DegToRad(l.readF4())
		temp := [3]mgl32.Vec2{} // pos scale size
		l.readAny(&temp)
		res.Local.Position = temp[0]
		res.Local.Scale = temp[1]
		res.Width, res.Height = temp[2].X(), temp[2].Y()
		res.Color = l.readClr()
	case binAttachmentBoundingBox:
		res.Type = "boundingbox"
		res.Kind = AttachmentBoundingBox
		count := l.readCount()
		vertices, weighted := l.readVertices(count)
		if weighted {
			slog.Warn("skel: weighted bounding box ignored", "attachment", key)
			res.Kind = AttachmentUnknown
		}
		res.Vertices = vertices
		if l.nonessential {
			l.skip(4)
		}
	case binAttachmentMesh:
		res.Type = "mesh"
		res.Path = l.readRefStr()
		res.Color = l.readClr()
		count := l.readCount()
		res.UVs = l.readFloats(count * 2)
		triangles := l.readCount()
		res.Triangles = make([]uint16, triangles)
		for i := range res.Triangles {
			res.Triangles[i] = l.readU16()
		}
		vertices, weighted := l.readVertices(count)
		res.Vertices = vertices
		res.Kind = AttachmentMesh
		if weighted {
			res.Kind = AttachmentWeightedMesh
		}
		res.Hull = l.readInt()
		if l.nonessential {
			edges := l.readCount()
			l.skip(edges*2 + 2*4) // edges width height
		}
		if l.err != nil {
			return nil, nil
		}
		var err error
		if weighted {
			err = validateWeights(res.Vertices, count, len(l.data.Bones))
		}
		if err == nil {
			err = validateTriangles(res.Triangles, count)
		}
		if err != nil {
			return nil, err
		}
	case binAttachmentLinkedMesh:
		l.readRefStr() // path
		l.skip(4)      // color
		l.readRefStr() // skin
		l.readRefStr() // parent
		l.readBool()   // deform
		if l.nonessential {
			l.skip(2 * 4)
		}
		slog.Warn("skel: unsupported attachment type", "attachment", key, "type", "linkedmesh")
		return nil, nil
	case binAttachmentPath:
		l.skip(2) // closed constantSpeed
		count := l.readCount()
		l.readVertices(count)
		l.readFloats(count / 3)
		if l.nonessential {
			l.skip(4)
		}
		return nil, nil
	case binAttachmentPoint:
		l.skip(3 * 4) // rotation x y
		if l.nonessential {
			l.skip(4)
		}
		return nil, nil
	case binAttachmentClipping:
		l.readInt() // end slot
		count := l.readCount()
		l.readVertices(count)
		if l.nonessential {
			l.skip(4)
		}
		slog.Warn("skel: unsupported attachment type", "attachment", key, "type", "clipping")
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: attachment type %d", ErrInvalidData, kind)
	}
	if res.Path == "" {
		res.Path = res.Name
	}
	return res, nil
}

func (l *binLoader) loadEvents() error {
	count := l.readCount()
	l.audioEvents = make([]bool, 0, count)
	for i := 0; i < count && l.err == nil; i++ {
		l.readRefStr() // name
		l.readInt()
		l.readF4()
		l.readStr()
		audio := l.readStr() != ""
		if audio {
			l.skip(2 * 4) // volume balance
		}
		l.audioEvents = append(l.audioEvents, audio)
	}
	return nil
}

func (l *binLoader) loadAnimations() error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		name := l.readStr()
		anim, err := l.loadAnimation(name)
		if err != nil {
			return fmt.Errorf("animation %q: %w", name, err)
		}
		l.data.Animations.Add(name, anim)
	}
	return nil
}

func (l *binLoader) loadAnimation(name string) (*Animation, error) {
	loader := &animLoader{data: l.data, anim: NewAnimation(name)}
	for _, fn := range []func(*animLoader) error{
		l.loadSlotTimelines,
		l.loadBoneTimelines,
		l.loadIKTimelines,
		l.skipTransformTimelines,
		l.skipPathTimelines,
		l.loadDeformTimelines,
		l.loadDrawOrderTimeline,
		l.skipEventTimeline,
	} {
		if err := fn(loader); err != nil {
			return nil, err
		}
		if l.err != nil {
			return nil, l.err
		}
	}
	loader.anim.Duration = loader.duration
	return loader.anim, nil
}

// keyframe 读取时间与除最后一帧外的曲线，read 在两者之间读取帧数据
func (l *binLoader) keyframe(loader *animLoader, idx, count int, read func()) BaseKeyframe {
	res := BaseKeyframe{Time: l.readF4()}
	read()
	if idx < count-1 {
		res.Curve = l.readCurve()
	}
	loader.duration = max(loader.duration, res.Time)
	return res
}

func (l *binLoader) loadSlotTimelines(loader *animLoader) error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		slot, err := l.slot(l.readInt())
		if err != nil {
			return err
		}
		res, ok := loader.anim.Slots[slot.Name]
		if !ok {
			res = &SlotTimelines{}
			loader.anim.Slots[slot.Name] = res
		}
		tCount := l.readCount()
		for j := 0; j < tCount && l.err == nil; j++ {
			kind := l.readU8()
			fCount := l.readCount()
			switch kind {
			case binSlotAttachment:
				for k := 0; k < fCount; k++ {
					frame := &AttachmentKeyframe{Time: l.readF4(), Name: l.readRefStr()}
					loader.duration = max(loader.duration, frame.Time)
					res.Attachment = append(res.Attachment, frame)
				}
			case binSlotColor, binSlotTwoColor:
				for k := 0; k < fCount; k++ {
					frame := &ColorKeyframe{}
					frame.BaseKeyframe = l.keyframe(loader, k, fCount, func() {
						frame.Color = l.readClr()
						if kind == binSlotTwoColor {
							l.skip(4) // dark
						}
					})
					res.Color = append(res.Color, frame)
				}
			default:
				return fmt.Errorf("%w: slot %q timeline type %d", ErrInvalidData, slot.Name, kind)
			}
		}
	}
	return nil
}

func (l *binLoader) loadBoneTimelines(loader *animLoader) error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		bone, err := l.bone(l.readInt())
		if err != nil {
			return err
		}
		res, ok := loader.anim.Bones[bone.Name]
		if !ok {
			res = &BoneTimelines{}
			loader.anim.Bones[bone.Name] = res
		}
		tCount := l.readCount()
		for j := 0; j < tCount && l.err == nil; j++ {
			kind := l.readU8()
			fCount := l.readCount()
			for k := 0; k < fCount && l.err == nil; k++ {
				switch kind {
				case binBoneRotate:
					frame := &RotateKeyframe{}
					frame.BaseKeyframe = l.keyframe(loader, k, fCount, func() {
						frame.Angle = mgl32.DegToRad(l.readF4())
					})
					res.Rotate = append(res.Rotate, frame)
				case binBoneTranslate:
					frame := &TranslateKeyframe{}
					frame.BaseKeyframe = l.keyframe(loader, k, fCount, func() {
						l.readAny(&frame.Offset)
					})
					res.Translate = append(res.Translate, frame)
				case binBoneScale:
					frame := &ScaleKeyframe{}
					frame.BaseKeyframe = l.keyframe(loader, k, fCount, func() {
						l.readAny(&frame.Scale)
					})
					res.Scale = append(res.Scale, frame)
				case binBoneShear:
					l.keyframe(loader, k, fCount, func() { l.skip(2 * 4) })
				default:
					return fmt.Errorf("%w: bone %q timeline type %d", ErrInvalidData, bone.Name, kind)
				}
			}
		}
	}
	return nil
}

func (l *binLoader) loadIKTimelines(loader *animLoader) error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		idx := l.readInt()
		if idx < 0 || idx >= len(l.data.IKConstraints) {
			return fmt.Errorf("%w: ik index %d", ErrInvalidData, idx)
		}
		fCount := l.readCount()
		frames := make([]*IKKeyframe, 0, fCount)
		for j := 0; j < fCount && l.err == nil; j++ {
			frame := &IKKeyframe{}
			frame.BaseKeyframe = l.keyframe(loader, j, fCount, func() {
				frame.Mix = l.readF4()
				l.readF4() // softness
				frame.BendPositive = int8(l.readU8()) >= 0
				l.skip(2) // compress stretch
			})
			frames = append(frames, frame)
		}
		loader.anim.IK[l.data.IKConstraints[idx].Name] = frames
	}
	return nil
}

func (l *binLoader) skipTransformTimelines(loader *animLoader) error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		l.readInt()
		fCount := l.readCount()
		for j := 0; j < fCount && l.err == nil; j++ {
			l.keyframe(loader, j, fCount, func() { l.skip(4 * 4) })
		}
	}
	return nil
}

func (l *binLoader) skipPathTimelines(loader *animLoader) error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		l.readInt()
		tCount := l.readCount()
		for j := 0; j < tCount && l.err == nil; j++ {
			kind := l.readU8()
			size := 4
			switch kind {
			case binPathPosition, binPathSpacing:
			case binPathMix:
				size = 2 * 4
			default:
				return fmt.Errorf("%w: path timeline type %d", ErrInvalidData, kind)
			}
			fCount := l.readCount()
			for k := 0; k < fCount && l.err == nil; k++ {
				l.keyframe(loader, k, fCount, func() { l.skip(size) })
			}
		}
	}
	return nil
}

// loadDeformTimelines 每帧只存 [start, start+len) 的偏移，end 为 0 表示回到 setup
func (l *binLoader) loadDeformTimelines(loader *animLoader) error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		idx := l.readInt()
		if idx < 0 || idx >= len(l.skins) {
			return fmt.Errorf("%w: deform skin index %d", ErrInvalidData, idx)
		}
		skin := l.skins[idx]
		sCount := l.readCount()
		for j := 0; j < sCount && l.err == nil; j++ {
			slot, err := l.slot(l.readInt())
			if err != nil {
				return err
			}
			aCount := l.readCount()
			for k := 0; k < aCount && l.err == nil; k++ {
				key := l.readRefStr()
				if l.data.FindAttachment(skin, slot.Name, key) == nil {
					return fmt.Errorf("%w: deform %s/%s/%s", ErrInvalidData, skin, slot.Name, key)
				}
				fCount := l.readCount()
				frames := make([]*FFDKeyframe, 0, fCount)
				for m := 0; m < fCount && l.err == nil; m++ {
					frame := &FFDKeyframe{}
					frame.BaseKeyframe = l.keyframe(loader, m, fCount, func() {
						end := l.readCount()
						if end == 0 {
							return
						}
						frame.Offset = l.readCount()
						frame.Vertices = l.readFloats(end)
					})
					frames = append(frames, frame)
				}
				loader.anim.AddFFD(skin, slot.Name, key, frames)
			}
		}
	}
	return nil
}

func (l *binLoader) loadDrawOrderTimeline(loader *animLoader) error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		frame := &DrawOrderKeyframe{Time: l.readF4()}
		loader.duration = max(loader.duration, frame.Time)
		oCount := l.readCount()
		offsets := make([]jsonDrawOffset, 0, oCount)
		for j := 0; j < oCount && l.err == nil; j++ {
			slot, err := l.slot(l.readInt())
			if err != nil {
				return err
			}
			offsets = append(offsets, jsonDrawOffset{Slot: slot.Name, Offset: l.readInt()})
		}
		if l.err != nil {
			return nil
		}
		if len(offsets) > 0 {
			order, err := loader.expandDrawOrder(offsets, len(l.data.Slots))
			if err != nil {
				return err
			}
			frame.Order = order
		}
		loader.anim.DrawOrder = append(loader.anim.DrawOrder, frame)
	}
	return nil
}

func (l *binLoader) skipEventTimeline(loader *animLoader) error {
	count := l.readCount()
	for i := 0; i < count && l.err == nil; i++ {
		time := l.readF4()
		idx := l.readInt()
		if idx < 0 || idx >= len(l.audioEvents) {
			return fmt.Errorf("%w: event index %d", ErrInvalidData, idx)
		}
		l.readInt()
		l.readF4()
		if l.readBool() {
			l.readStr()
		}
		if l.audioEvents[idx] {
			l.skip(2 * 4)
		}
		loader.duration = max(loader.duration, time)
	}
	return nil
}
