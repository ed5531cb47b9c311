package skel

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Affine 是骨骼与附件共用的 2D 仿射变换  x' = Mat * x + Pos
type Affine struct {
	Mat mgl32.Mat2
	Pos mgl32.Vec2
}

func IdentityAffine() Affine {
	return Affine{Mat: mgl32.Ident2()}
}

func (a Affine) Transform(v mgl32.Vec2) mgl32.Vec2 {
	return a.Mat.Mul2x1(v).Add(a.Pos)
}

// Mul 先应用 b 再应用 a
func (a Affine) Mul(b Affine) Affine {
	return Affine{
		Mat: a.Mat.Mul2(b.Mat),
		Pos: a.Mat.Mul2x1(b.Pos).Add(a.Pos),
	}
}

func (a Affine) Inv() Affine {
	inv := a.Mat.Inv()
	return Affine{Mat: inv, Pos: inv.Mul2x1(a.Pos).Mul(-1)}
}

// Mat3 转换为齐次矩阵，方便与 site/texture 矩阵组合
func (a Affine) Mat3() mgl32.Mat3 {
	m := a.Mat
	return mgl32.Mat3{
		m[0], m[1], 0,
		m[2], m[3], 0,
		a.Pos.X(), a.Pos.Y(), 1,
	}
}

func (a Affine) Rotation() float32 {
	return math32.Atan2(a.Mat[1], a.Mat[0])
}

func (a Affine) Scale() mgl32.Vec2 {
	return mgl32.Vec2{a.Mat.Col(0).Len(), a.Mat.Col(1).Len()}
}

// Space 是局部空间描述 平移 旋转(弧度) 缩放
type Space struct {
	Position mgl32.Vec2
	Rotation float32
	Scale    mgl32.Vec2
}

func IdentitySpace() Space {
	return Space{Scale: mgl32.Vec2{1, 1}}
}

func (s Space) Affine() Affine {
	return Affine{
		Mat: Rotate(s.Rotation).Mul2(Scale(s.Scale)),
		Pos: s.Position,
	}
}

func Rotate(rad float32) mgl32.Mat2 {
	return mgl32.Rotate2D(rad)
}

func Scale(scale mgl32.Vec2) mgl32.Mat2 {
	return mgl32.Diag2(scale)
}

// normalize 去掉矩阵中的缩放量，只保留旋转
func normalize(m mgl32.Mat2) mgl32.Mat2 {
	c0, c1 := m.Col(0), m.Col(1)
	if l := c0.Len(); l > 0 {
		c0 = c0.Mul(1 / l)
	}
	if l := c1.Len(); l > 0 {
		c1 = c1.Mul(1 / l)
	}
	return mgl32.Mat2FromCols(c0, c1)
}

func Lerp(v0, v1, rate float32) float32 {
	return v0 + (v1-v0)*rate
}

func Vec2Lerp(v0, v1 mgl32.Vec2, rate float32) mgl32.Vec2 {
	return mgl32.Vec2{Lerp(v0[0], v1[0], rate), Lerp(v0[1], v1[1], rate)}
}

func Vec4Lerp(v0, v1 mgl32.Vec4, rate float32) mgl32.Vec4 {
	return mgl32.Vec4{
		Lerp(v0[0], v1[0], rate),
		Lerp(v0[1], v1[1], rate),
		Lerp(v0[2], v1[2], rate),
		Lerp(v0[3], v1[3], rate),
	}
}

func Vec2Mul(v0, v1 mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{v0[0] * v1[0], v0[1] * v1[1]}
}

// WrapAngle 把角度差收敛到 [-Pi, Pi]，插值时走最短路径
func WrapAngle(rad float32) float32 {
	for rad > math32.Pi {
		rad -= 2 * math32.Pi
	}
	for rad < -math32.Pi {
		rad += 2 * math32.Pi
	}
	return rad
}

func LerpRotation(r0, r1, rate float32) float32 {
	return r0 + WrapAngle(r1-r0)*rate
}
