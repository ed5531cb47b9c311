package skel

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type binWriter struct {
	bytes.Buffer
}

func (w *binWriter) int(v int) *binWriter {
	val := uint32(int32(v))
	for val >= 0x80 {
		w.WriteByte(byte(val&0x7f | 0x80))
		val >>= 7
	}
	w.WriteByte(byte(val))
	return w
}

func (w *binWriter) u8(v uint8) *binWriter {
	w.WriteByte(v)
	return w
}

func (w *binWriter) u16(v uint16) *binWriter {
	w.Write(binary.BigEndian.AppendUint16(nil, v))
	return w
}

func (w *binWriter) f4(vs ...float32) *binWriter {
	for _, v := range vs {
		w.Write(binary.BigEndian.AppendUint32(nil, math.Float32bits(v)))
	}
	return w
}

func (w *binWriter) str(s string) *binWriter {
	w.int(len(s) + 1)
	w.WriteString(s)
	return w
}

func (w *binWriter) clr(r, g, b, a uint8) *binWriter {
	w.Write([]byte{r, g, b, a})
	return w
}

// testBinary 与 testSkeleton 结构类似：两根骨骼、一个槽位、一个 mesh 与一个 region
func testBinary() []byte {
	w := &binWriter{}
	w.str("h2").str("3.8.99").f4(0, 0, 100, 200).u8(0)
	w.int(3).str("body").str("alt").str("red") // 字符串表，引用从 1 开始

	w.int(2)
	w.str("root").f4(0, 0, 0, 1, 1, 0, 0, 0).int(0).u8(0)
	w.str("arm").int(0).f4(90, 5, 0, 1, 1, 0, 0, 10).int(0).u8(0)

	w.int(1)
	w.str("body").int(1).clr(255, 0, 0, 255).clr(0, 0, 0, 0).int(1).int(1)

	w.int(1) // ik
	w.str("reach").int(0).u8(0).int(1).int(1).int(0).f4(0.5, 0).u8(0xff).u8(0).u8(0).u8(0)
	w.int(0).int(0) // transform path

	w.int(1).int(0).int(3) // 默认皮肤: slot 0 下三个附件
	w.int(1).int(0).u8(binAttachmentMesh).int(0).clr(255, 255, 255, 255).int(3)
	w.f4(0, 0, 1, 0, 0, 1)
	w.int(3).u16(0).u16(1).u16(2)
	w.u8(0).f4(0, 0, 10, 0, 0, 10)
	w.int(3)
	w.int(2).int(0).u8(binAttachmentRegion).int(0).f4(0, 1, 2, 1, 1, 4, 2).clr(255, 255, 255, 128)
	w.int(0).int(0).u8(binAttachmentPoint).f4(0, 0, 0) // 不支持的类型跳过
	w.int(1)                                            // 命名皮肤
	w.int(3).int(0).int(0).int(0).int(0)
	w.int(1).int(0).int(1)
	w.int(1).int(0).u8(binAttachmentMesh).int(0).clr(255, 255, 255, 255).int(3)
	w.f4(0, 0, 1, 0, 0, 1)
	w.int(3).u16(0).u16(1).u16(2)
	w.u8(1) // 带权重
	w.int(1).int(0).f4(0, 0, 1)
	w.int(1).int(1).f4(10, 0, 1)
	w.int(2).int(0).f4(0, 10, 0.5).int(1).f4(0, 10, 0.5)
	w.int(3)

	w.int(1) // events
	w.int(1).int(0).f4(0).str("").str("ding.ogg").f4(1, 0)

	w.int(1).str("walk")
	w.int(1).int(0).int(1).u8(binSlotAttachment).int(1).f4(0.5).int(2)
	w.int(1).int(1).int(1).u8(binBoneRotate).int(2)
	w.f4(0, 0).u8(binCurveStepped)
	w.f4(1, 90)
	w.int(1).int(0).int(1).f4(0, 1, 0).u8(1).u8(0).u8(0)
	w.int(0).int(0)
	w.int(1).int(1).int(1).int(0).int(1).int(1).int(2)
	w.f4(0).int(2).int(2).f4(1, 1).u8(binCurveLinear)
	w.f4(2).int(0)
	w.int(1).f4(0.25).int(1).int(0).int(0) // draw order
	w.int(1).f4(3).int(0).int(0).f4(0).u8(0).f4(1, 0)
	return w.Bytes()
}

func TestLoadBinary(t *testing.T) {
	data, err := LoadBinary(bytes.NewReader(testBinary()))
	require.NoError(t, err)
	assert.Equal(t, "3.8.99", data.Version)
	assert.Equal(t, mgl32.Vec2{100, 200}, data.Size)

	require.Len(t, data.Bones, 2)
	arm, err := data.Bone("arm")
	require.NoError(t, err)
	assert.Equal(t, data.Bones[0], arm.Parent)
	assert.InDelta(t, math32.Pi/2, arm.Local.Rotation, 1e-5)
	assert.Equal(t, mgl32.Vec2{5, 0}, arm.World.Pos)

	slot, err := data.Slot("body")
	require.NoError(t, err)
	assert.Equal(t, arm, slot.Bone)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, slot.Color)
	assert.Equal(t, "body", slot.Attachment)
	assert.Equal(t, BlendAdditive, slot.Blend)

	require.Len(t, data.IKConstraints, 1)
	assert.Equal(t, float32(0.5), data.IKConstraints[0].Mix)
	assert.False(t, data.IKConstraints[0].BendPositive)
	assert.Equal(t, data.Bones[0], data.IKConstraints[0].Target)

	mesh := data.Skin(DefaultSkin).Attachment("body", "body")
	require.NotNil(t, mesh)
	assert.Equal(t, AttachmentMesh, mesh.Kind)
	assert.Equal(t, "body", mesh.Path)
	assert.Equal(t, []float32{0, 0, 10, 0, 0, 10}, mesh.Vertices)
	assert.Equal(t, []uint16{0, 1, 2}, mesh.Triangles)
	region := data.Skin(DefaultSkin).Attachment("body", "alt")
	require.NotNil(t, region)
	assert.Equal(t, AttachmentRegion, region.Kind)
	assert.Equal(t, mgl32.Vec2{1, 2}, region.Local.Position)
	assert.Equal(t, float32(4), region.Width)
	assert.InDelta(t, 128.0/255, region.Color.W(), 1e-6)
	assert.Nil(t, data.Skin(DefaultSkin).Attachment("body", "point"))

	weighted := data.FindAttachment("red", "body", "body")
	require.NotNil(t, weighted)
	assert.Equal(t, AttachmentWeightedMesh, weighted.Kind)
	assert.Len(t, weighted.Vertices, 5+5+9)

	anim := data.Animation("walk")
	require.NotNil(t, anim)
	assert.Equal(t, float32(3), anim.Duration)
	assert.Equal(t, "alt", anim.Slots["body"].Attachment[0].Name)
	rotate := anim.Bones["arm"].Rotate
	require.Len(t, rotate, 2)
	assert.Equal(t, CurveStepped, rotate[0].Curve.Type)
	assert.InDelta(t, math32.Pi/2, rotate[1].Angle, 1e-5)
	require.Len(t, anim.IK["reach"], 1)
	assert.True(t, anim.IK["reach"][0].BendPositive)

	track := anim.FFDTrack("red", "body", "body")
	require.Len(t, track, 2)
	assert.Equal(t, 2, track[0].Offset)
	assert.Equal(t, []float32{1, 1}, track[0].Vertices)
	assert.Empty(t, track[1].Vertices)
	assert.Nil(t, anim.FFDTrack(DefaultSkin, "body", "body"))

	require.Len(t, anim.DrawOrder, 1)
	assert.Equal(t, []int{0}, anim.DrawOrder[0].Order)
}

func TestLoadBinaryInvalid(t *testing.T) {
	raw := testBinary()
	_, err := LoadBinary(bytes.NewReader(raw[:len(raw)/2]))
	assert.Error(t, err)

	// 字符串引用越界
	w := &binWriter{}
	w.str("h").str("3.8").f4(0, 0, 0, 0).u8(0)
	w.int(0)
	w.int(1).str("root").f4(0, 0, 0, 1, 1, 0, 0, 0).int(0).u8(0)
	w.int(1).str("s").int(0).clr(0, 0, 0, 0).clr(0, 0, 0, 0).int(5).int(0)
	_, err = LoadBinary(bytes.NewReader(w.Bytes()))
	assert.ErrorIs(t, err, ErrInvalidData)
}
