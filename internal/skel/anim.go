package skel

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type CurveType uint8

const (
	CurveLinear CurveType = iota
	CurveStepped
	CurveBezier
)

type Curve struct {
	Type CurveType
	Data [2]mgl32.Vec2 // 贝塞尔的两个控制点，端点固定为 (0,0) (1,1)
}

func evalX(curve [2]mgl32.Vec2, rate float32) float32 {
	rate2 := rate * rate
	rate3 := rate2 * rate
	invRate := 1 - rate
	invRate2 := invRate * invRate
	return rate3 + 3*rate2*invRate*curve[1].X() + 3*rate*invRate2*curve[0].X()
}

func evalY(curve [2]mgl32.Vec2, rate float32) float32 {
	rate2 := rate * rate
	rate3 := rate2 * rate
	invRate := 1 - rate
	invRate2 := invRate * invRate
	return rate3 + 3*rate2*invRate*curve[1].Y() + 3*rate*invRate2*curve[0].Y()
}

// findX 二分求出 x(t) == rate 的参数 t
func findX(curve [2]mgl32.Vec2, rate float32) float32 {
	start := float32(0)
	stop := float32(1)
	res := float32(0.5)
	for i := 0; i < 32; i++ {
		x := evalX(curve, res)
		if math32.Abs(rate-x) <= 1e-5 {
			break
		}
		if rate < x {
			stop = res
		} else {
			start = res
		}
		res = (stop + start) * 0.5
	}
	return res
}

// Evaluate 把 0~1 的时间比例映射为插值比例
func (c Curve) Evaluate(rate float32) float32 {
	rate = mgl32.Clamp(rate, 0, 1)
	switch c.Type {
	case CurveStepped:
		return 0
	case CurveBezier:
		if rate == 0 || rate == 1 {
			return rate
		}
		return evalY(c.Data, findX(c.Data, rate))
	default:
		return rate
	}
}

func Tween(v0, v1, rate float32) float32 {
	return Lerp(v0, v1, rate)
}

type Keyframe interface {
	KeyTime() float32
}

type CurveKeyframe interface {
	Keyframe
	KeyCurve() Curve
}

type BaseKeyframe struct {
	Time  float32
	Curve Curve // 到下一帧的插值曲线
}

func (k BaseKeyframe) KeyTime() float32 { return k.Time }
func (k BaseKeyframe) KeyCurve() Curve  { return k.Curve }

// FindKeyframe 返回最后一个 time <= curr 的帧下标，curr 在第一帧之前或没有帧时返回 -1
func FindKeyframe[K Keyframe](frames []K, curr float32) int {
	return sort.Search(len(frames), func(i int) bool {
		return frames[i].KeyTime() > curr
	}) - 1
}

// bracket 找到包住 curr 的两帧与插值比例，第一帧之前保持第一帧，最后一帧之后保持最后一帧
func bracket[K CurveKeyframe](frames []K, curr float32) (int, int, float32) {
	idx := FindKeyframe(frames, curr)
	if idx < 0 {
		return 0, 0, 0
	}
	if idx+1 >= len(frames) {
		return idx, idx, 0
	}
	pre, next := frames[idx], frames[idx+1]
	span := next.KeyTime() - pre.KeyTime()
	if span <= 0 {
		return idx + 1, idx + 1, 0
	}
	return idx, idx + 1, pre.KeyCurve().Evaluate((curr - pre.KeyTime()) / span)
}

type RotateKeyframe struct {
	BaseKeyframe
	Angle float32 // 相对 setup 的旋转量 弧度
}

type TranslateKeyframe struct {
	BaseKeyframe
	Offset mgl32.Vec2
}

type ScaleKeyframe struct {
	BaseKeyframe
	Scale mgl32.Vec2
}

type AttachmentKeyframe struct {
	Time float32
	Name string // 为空表示隐藏附件
}

func (k *AttachmentKeyframe) KeyTime() float32 { return k.Time }

type ColorKeyframe struct {
	BaseKeyframe
	Color mgl32.Vec4
}

type DrawOrderKeyframe struct {
	Time  float32
	Order []int // 第 i 个绘制的 slot 下标，nil 表示 setup 顺序
}

func (k *DrawOrderKeyframe) KeyTime() float32 { return k.Time }

type IKKeyframe struct {
	BaseKeyframe
	Mix          float32
	BendPositive bool
}

// FFDKeyframe 只存储受影响的一段顶点分量 [Offset, Offset+len(Vertices))
type FFDKeyframe struct {
	BaseKeyframe
	Offset   int
	Vertices []float32
}

// At 返回第 i 个顶点分量的偏移，覆盖范围外为 0
func (k *FFDKeyframe) At(i int) float32 {
	i -= k.Offset
	if i < 0 || i >= len(k.Vertices) {
		return 0
	}
	return k.Vertices[i]
}

// FFDSample 是某一时刻 FFD 轨道的采样结果
type FFDSample struct {
	K0, K1   *FFDKeyframe
	Fraction float32
}

func (s *FFDSample) Offset(i int) float32 {
	return Tween(s.K0.At(i), s.K1.At(i), s.Fraction)
}

// SampleFFD 没有轨道时返回 false
func SampleFFD(frames []*FFDKeyframe, curr float32) (FFDSample, bool) {
	if len(frames) == 0 {
		return FFDSample{}, false
	}
	i0, i1, rate := bracket(frames, curr)
	return FFDSample{K0: frames[i0], K1: frames[i1], Fraction: rate}, true
}

type BoneTimelines struct {
	Rotate    []*RotateKeyframe
	Translate []*TranslateKeyframe
	Scale     []*ScaleKeyframe
}

type SlotTimelines struct {
	Attachment []*AttachmentKeyframe
	Color      []*ColorKeyframe
}

type FFDTimelines map[string]map[string]map[string][]*FFDKeyframe // skin -> slot -> attachment

type Animation struct {
	Name      string
	Duration  float32
	Bones     map[string]*BoneTimelines
	Slots     map[string]*SlotTimelines
	FFD       FFDTimelines
	DrawOrder []*DrawOrderKeyframe
	IK        map[string][]*IKKeyframe
}

func NewAnimation(name string) *Animation {
	return &Animation{
		Name:  name,
		Bones: make(map[string]*BoneTimelines),
		Slots: make(map[string]*SlotTimelines),
		FFD:   make(FFDTimelines),
		IK:    make(map[string][]*IKKeyframe),
	}
}

// FFDTrack 先找指定皮肤的轨道，没有再回退到默认皮肤
func (a *Animation) FFDTrack(skin, slot, attachment string) []*FFDKeyframe {
	if a == nil {
		return nil
	}
	if res := a.FFD[skin][slot][attachment]; len(res) > 0 {
		return res
	}
	return a.FFD[DefaultSkin][slot][attachment]
}

func (a *Animation) AddFFD(skin, slot, attachment string, frames []*FFDKeyframe) {
	slots, ok := a.FFD[skin]
	if !ok {
		slots = make(map[string]map[string][]*FFDKeyframe)
		a.FFD[skin] = slots
	}
	attachments, ok := slots[slot]
	if !ok {
		attachments = make(map[string][]*FFDKeyframe)
		slots[slot] = attachments
	}
	attachments[attachment] = frames
}

func (t *BoneTimelines) apply(bone *PoseBone, curr float32) {
	if len(t.Rotate) > 0 {
		i0, i1, rate := bracket(t.Rotate, curr)
		bone.Local.Rotation = bone.Bone.Local.Rotation + LerpRotation(t.Rotate[i0].Angle, t.Rotate[i1].Angle, rate)
	}
	if len(t.Translate) > 0 {
		i0, i1, rate := bracket(t.Translate, curr)
		bone.Local.Position = bone.Bone.Local.Position.Add(Vec2Lerp(t.Translate[i0].Offset, t.Translate[i1].Offset, rate))
	}
	if len(t.Scale) > 0 {
		i0, i1, rate := bracket(t.Scale, curr)
		bone.Local.Scale = Vec2Mul(bone.Bone.Local.Scale, Vec2Lerp(t.Scale[i0].Scale, t.Scale[i1].Scale, rate))
	}
}

func (t *SlotTimelines) apply(slot *PoseSlot, curr float32) {
	if idx := FindKeyframe(t.Attachment, curr); idx >= 0 {
		slot.Attachment = t.Attachment[idx].Name
	}
	if len(t.Color) > 0 {
		i0, i1, rate := bracket(t.Color, curr)
		slot.Color = Vec4Lerp(t.Color[i0].Color, t.Color[i1].Color, rate)
	}
}
