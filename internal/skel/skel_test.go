package skel

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSkeleton = `{
  "skeleton": {"hash": "h1", "spine": "3.5.51", "width": 100, "height": 200},
  "bones": [
    {"name": "root"},
    {"name": "arm", "parent": "root", "length": 10, "x": 5, "rotation": 90},
    {"name": "target", "parent": "root", "y": 10}
  ],
  "slots": [
    {"name": "body", "bone": "root", "attachment": "body"},
    {"name": "hand", "bone": "arm", "attachment": "hand", "color": "ff000080", "blend": "additive"}
  ],
  "skins": {
    "default": {
      "body": {"body": {"type": "mesh", "uvs": [0,0, 1,0, 0,1], "vertices": [0,0, 10,0, 0,10], "triangles": [0,1,2]}},
      "hand": {"hand": {"width": 4, "height": 2}}
    },
    "red": {
      "hand": {"hand": {"type": "weightedmesh", "uvs": [0,0, 1,0, 0,1], "triangles": [0,1,2],
        "vertices": [1, 0,0,0,1,  1, 1,10,0,1,  2, 0,0,10,0.5, 1,0,10,0.5]}}
    }
  },
  "animations": {
    "walk": {
      "bones": {"arm": {"rotate": [{"time": 1, "angle": 90}, {"time": 0, "angle": 0}]}},
      "slots": {"hand": {"attachment": [{"time": 0.5, "name": null}]}},
      "ffd": {"default": {"body": {"body": [
        {"time": 0, "offset": 2, "vertices": [1, 1]},
        {"time": 2}
      ]}}},
      "drawOrder": [{"time": 0.25, "offsets": [{"slot": "body", "offset": 1}]}]
    },
    "idle": {}
  }
}`

func loadTest(t *testing.T) *Data {
	data, err := Load(strings.NewReader(testSkeleton))
	require.NoError(t, err)
	return data
}

func TestRotateAndScale(t *testing.T) {
	mat2 := mgl32.Ident2()
	rotate := float32(0)
	scale := mgl32.Vec2{1, 1}
	for i := 0; i < 100; i++ {
		temp1 := rand.Float32()
		// 等比缩放与旋转顺序无关
		temp2 := rand.Float32()/5 + 0.9
		rotate += temp1
		scale = Vec2Mul(scale, mgl32.Vec2{temp2, temp2})
		mat2 = mat2.Mul2(Rotate(temp1)).Mul2(Scale(mgl32.Vec2{temp2, temp2}))
	}
	temp := Rotate(rotate).Mul2(Scale(scale))
	assert.True(t, mat2.ApproxEqualThreshold(temp, 1e-2))
}

func TestAffineInverse(t *testing.T) {
	a := Space{Position: mgl32.Vec2{3, -4}, Rotation: 0.7, Scale: mgl32.Vec2{2, 0.5}}.Affine()
	p := mgl32.Vec2{1.5, 2.5}
	back := a.Inv().Transform(a.Transform(p))
	assert.InDelta(t, p.X(), back.X(), 1e-4)
	assert.InDelta(t, p.Y(), back.Y(), 1e-4)
	assert.InDelta(t, 0.7, a.Rotation(), 1e-5)
	assert.InDelta(t, 2, a.Scale().X(), 1e-5)
}

func TestLoad(t *testing.T) {
	data := loadTest(t)
	assert.Equal(t, "h1", data.Hash)
	assert.Equal(t, mgl32.Vec2{100, 200}, data.Size)
	require.Len(t, data.Bones, 3)

	arm, err := data.Bone("arm")
	require.NoError(t, err)
	assert.Equal(t, "root", arm.Parent.Name)
	assert.InDelta(t, math32.Pi/2, arm.Local.Rotation, 1e-6)
	assert.InDelta(t, 5, arm.World.Pos.X(), 1e-6)

	hand, err := data.Slot("hand")
	require.NoError(t, err)
	assert.Equal(t, BlendAdditive, hand.Blend)
	assert.InDelta(t, 1, hand.Color.X(), 1e-6)
	assert.InDelta(t, 128.0/255, hand.Color.W(), 1e-6)

	assert.Equal(t, "default", data.Skins.Order[0].Key)
	assert.Equal(t, "red", data.Skins.Order[1].Key)
	assert.Equal(t, AttachmentMesh, data.FindAttachment("default", "body", "body").Kind)
	assert.Equal(t, AttachmentRegion, data.FindAttachment("default", "hand", "hand").Kind)
	assert.Equal(t, AttachmentWeightedMesh, data.FindAttachment("red", "hand", "hand").Kind)
	// red 皮肤里没有 body，回退到默认皮肤
	assert.Equal(t, AttachmentMesh, data.FindAttachment("red", "body", "body").Kind)
	assert.Nil(t, data.FindAttachment("red", "body", "missing"))

	assert.Equal(t, "walk", data.Animations.Order[0].Key)
	walk := data.Animation("walk")
	assert.InDelta(t, 2, walk.Duration, 1e-6)
	rotate := walk.Bones["arm"].Rotate
	require.Len(t, rotate, 2)
	assert.Zero(t, rotate[0].Time) // 按时间排序
	assert.Equal(t, []int{1, 0}, walk.DrawOrder[0].Order)
	assert.Len(t, walk.FFDTrack("red", "body", "body"), 2)
	assert.Zero(t, data.Animation("idle").Duration)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(strings.NewReader(`{"bones": [{"name": "a", "parent": "nope"}]}`))
	assert.ErrorIs(t, err, ErrUnknownBone)

	_, err = Load(strings.NewReader(`{"bones": [{"name": "a"}], "slots": [{"name": "s", "bone": "a"}],
		"skins": {"default": {"s": {"m": {"type": "weightedmesh", "uvs": [0,0], "vertices": [1, 0,0,0,1, 7]}}}}}`))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = Load(strings.NewReader(`{"bones": [{"name": "a"}], "slots": [{"name": "s", "bone": "a"}],
		"skins": {"default": {"s": {"m": {"type": "weightedmesh", "uvs": [0,0], "vertices": [1, 3,0,0,1]}}}}}`))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = Load(strings.NewReader(`{"bones": [{"name": "a"}], "slots": [{"name": "s", "bone": "a", "color": "zz"}]}`))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = Load(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestCurve(t *testing.T) {
	assert.Zero(t, Curve{Type: CurveStepped}.Evaluate(0.7))
	assert.InDelta(t, 0.3, Curve{}.Evaluate(0.3), 1e-6)
	assert.InDelta(t, 1, Curve{}.Evaluate(4), 1e-6)

	bezier := Curve{Type: CurveBezier, Data: [2]mgl32.Vec2{{0.25, 0.25}, {0.75, 0.75}}}
	assert.Equal(t, float32(0), bezier.Evaluate(0))
	assert.Equal(t, float32(1), bezier.Evaluate(1))
	assert.InDelta(t, 0.5, bezier.Evaluate(0.5), 1e-3)

	c2 := float32(0)
	c3 := float32(0.75)
	curve, err := parseCurve(&jsonKeyframe{Curve: []byte("0.25"), C2: &c2, C3: &c3})
	require.NoError(t, err)
	assert.Equal(t, CurveBezier, curve.Type)
	assert.Equal(t, mgl32.Vec2{0.75, 1}, curve.Data[1])

	curve, err = parseCurve(&jsonKeyframe{Curve: []byte(`"stepped"`)})
	require.NoError(t, err)
	assert.Equal(t, CurveStepped, curve.Type)
}

func TestSampleFFD(t *testing.T) {
	frames := []*FFDKeyframe{
		{BaseKeyframe: BaseKeyframe{Time: 1}, Offset: 2, Vertices: []float32{4, 6}},
		{BaseKeyframe: BaseKeyframe{Time: 3}, Vertices: []float32{2}},
	}
	_, ok := SampleFFD(nil, 1)
	assert.False(t, ok)

	sample, ok := SampleFFD(frames, 1)
	require.True(t, ok)
	assert.Equal(t, float32(4), sample.K0.At(2))
	assert.Zero(t, sample.Fraction)
	assert.Equal(t, float32(4), sample.Offset(2))

	sample, _ = SampleFFD(frames, 2)
	assert.InDelta(t, 0.5, sample.Fraction, 1e-6)
	assert.InDelta(t, 1, sample.Offset(0), 1e-6)
	assert.InDelta(t, 2, sample.Offset(2), 1e-6)

	// 最后一帧之后保持最后一帧
	sample, _ = SampleFFD(frames, 10)
	assert.Same(t, frames[1], sample.K0)
	assert.Same(t, frames[1], sample.K1)
	// 第一帧之前保持第一帧
	sample, _ = SampleFFD(frames, 0)
	assert.Same(t, frames[0], sample.K0)
	assert.Zero(t, sample.Fraction)
}

func TestPose(t *testing.T) {
	data := loadTest(t)
	pose := NewPose(data)
	assert.ErrorIs(t, pose.SetSkin("nope"), ErrUnknownSkin)
	assert.ErrorIs(t, pose.SetAnim("nope"), ErrUnknownAnim)
	require.NoError(t, pose.SetAnim("walk"))

	pose.Advance(2.5) // 循环播放
	assert.InDelta(t, 0.5, pose.Time, 1e-6)
	assert.InDelta(t, 3*math32.Pi/4, pose.Bone("arm").Local.Rotation, 1e-5)
	assert.Equal(t, []int{1, 0}, pose.DrawOrder)

	var keys []string
	for item := range pose.Attachments() {
		keys = append(keys, item.Slot.Name)
	}
	assert.Equal(t, []string{"body"}, keys) // hand 在 0.5 被隐藏

	pose.Strike(0.1)
	keys = keys[:0]
	for item := range pose.Attachments() {
		keys = append(keys, item.Slot.Name)
	}
	assert.Equal(t, []string{"body", "hand"}, keys)

	require.NoError(t, pose.SetSkin("red"))
	for item := range pose.Attachments() {
		if item.Slot.Name == "hand" {
			assert.Equal(t, AttachmentWeightedMesh, item.Attachment.Kind)
		}
	}
}

func TestIK(t *testing.T) {
	data, err := Load(strings.NewReader(`{
	  "bones": [
	    {"name": "root"},
	    {"name": "arm", "parent": "root", "length": 10},
	    {"name": "target", "parent": "root", "y": 10}
	  ],
	  "ik": [{"name": "reach", "bones": ["arm"], "target": "target"}]
	}`))
	require.NoError(t, err)
	pose := NewPose(data)
	assert.InDelta(t, math32.Pi/2, pose.Bone("arm").World.Rotation(), 1e-5)

	data.IKConstraints[0].Mix = 0.5
	pose.Strike(0)
	assert.InDelta(t, math32.Pi/4, pose.Bone("arm").World.Rotation(), 1e-5)
}

func TestIK2(t *testing.T) {
	data, err := Load(strings.NewReader(`{
	  "bones": [
	    {"name": "root"},
	    {"name": "upper", "parent": "root", "length": 10},
	    {"name": "lower", "parent": "upper", "x": 10, "length": 10},
	    {"name": "target", "parent": "root", "x": 10, "y": 10}
	  ],
	  "ik": [{"name": "leg", "bones": ["upper", "lower"], "target": "target"}]
	}`))
	require.NoError(t, err)
	pose := NewPose(data)
	tip := pose.Bone("lower").World.Transform(mgl32.Vec2{10, 0})
	assert.InDelta(t, 10, tip.X(), 1e-3)
	assert.InDelta(t, 10, tip.Y(), 1e-3)
}
