package render

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"spine2d/internal/atlas"
	"spine2d/internal/surface"
)

// degenerateEpsilon 是纹理空间三角形有向面积的下限，单位 texel²
const degenerateEpsilon = 1e-6

// 区域附件使用的单位四边形
var (
	regionPositions = []float32{-1, -1, 1, -1, 1, 1, -1, 1}
	regionTexcoords = []float32{0, 1, 1, 1, 1, 0, 0, 0}
	regionTriangles = []uint16{0, 1, 2, 0, 2, 3}
)

func isFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}

// triangleAffine 求把三个纹理坐标映射到三个位置的唯一仿射变换
// 纹理三角形退化时返回 false
func triangleAffine(p0, p1, p2, t0, t1, t2 mgl32.Vec2) (mgl32.Mat3, bool) {
	x1, y1 := p1.X()-p0.X(), p1.Y()-p0.Y()
	x2, y2 := p2.X()-p0.X(), p2.Y()-p0.Y()
	u1, v1 := t1.X()-t0.X(), t1.Y()-t0.Y()
	u2, v2 := t2.X()-t0.X(), t2.Y()-t0.Y()
	det := u1*v2 - u2*v1
	if math32.Abs(det) < degenerateEpsilon {
		return mgl32.Mat3{}, false
	}
	id := 1 / det
	a := id * (v2*x1 - v1*x2)
	b := id * (v2*y1 - v1*y2)
	c := id * (u1*x2 - u2*x1)
	d := id * (u1*y2 - u2*y1)
	e := p0.X() - (a*t0.X() + c*t0.Y())
	f := p0.Y() - (b*t0.X() + d*t0.Y())
	res := mgl32.Mat3{a, b, 0, c, d, 0, e, f, 1}
	for _, val := range res {
		if !isFinite(val) {
			return mgl32.Mat3{}, false
		}
	}
	return res, true
}

func vertexAt(buf []float32, idx uint16) mgl32.Vec2 {
	return mgl32.Vec2{buf[2*int(idx)], buf[2*int(idx)+1]}
}

// drawTexturedMesh 每个三角形裁剪后整张贴图按仿射变换绘制一次，返回跳过的退化三角形数量
func drawTexturedMesh(s surface.Surface, triangles []uint16, positions, texcoords []float32,
	img surface.Image, m mgl32.Mat3) int {
	skipped := 0
	for i := 0; i+2 < len(triangles); i += 3 {
		i0, i1, i2 := triangles[i], triangles[i+1], triangles[i+2]
		p0, p1, p2 := vertexAt(positions, i0), vertexAt(positions, i1), vertexAt(positions, i2)
		t0 := atlas.Apply(m, vertexAt(texcoords, i0))
		t1 := atlas.Apply(m, vertexAt(texcoords, i1))
		t2 := atlas.Apply(m, vertexAt(texcoords, i2))
		affine, ok := triangleAffine(p0, p1, p2, t0, t1, t2)
		if !ok {
			skipped++
			continue
		}
		path := &surface.Path{}
		path.MoveTo(p0.X(), p0.Y())
		path.LineTo(p1.X(), p1.Y())
		path.LineTo(p2.X(), p2.Y())
		path.Close()
		s.Save()
		s.Clip(path)
		s.Transform(affine)
		s.DrawImage(img)
		s.Restore()
	}
	return skipped
}
