package surface

import (
	"github.com/go-gl/mathgl/mgl32"
)

func cross(a, b mgl32.Vec2) float32 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// Area 返回有向面积，正负表示环绕方向
func (p Polygon) Area() float32 {
	res := float32(0)
	for i := range p {
		res += cross(p[i], p[(i+1)%len(p)])
	}
	return res / 2
}

func (p Polygon) Bounds() (mgl32.Vec2, mgl32.Vec2) {
	if len(p) == 0 {
		return mgl32.Vec2{}, mgl32.Vec2{}
	}
	lo, hi := p[0], p[0]
	for _, point := range p[1:] {
		lo = mgl32.Vec2{min(lo.X(), point.X()), min(lo.Y(), point.Y())}
		hi = mgl32.Vec2{max(hi.X(), point.X()), max(hi.Y(), point.Y())}
	}
	return lo, hi
}

// ClipConvex 求 subject 与凸多边形 clip 的交集 (Sutherland–Hodgman)
func ClipConvex(subject, clip Polygon) Polygon {
	if len(clip) < 3 {
		return nil
	}
	sign := float32(1)
	if clip.Area() < 0 {
		sign = -1
	}
	inside := func(a, b, p mgl32.Vec2) bool {
		return cross(b.Sub(a), p.Sub(a))*sign >= 0
	}
	res := subject
	for i := range clip {
		if len(res) == 0 {
			return nil
		}
		a, b := clip[i], clip[(i+1)%len(clip)]
		input := res
		res = make(Polygon, 0, len(input)+1)
		for j := range input {
			curr, prev := input[j], input[(j+len(input)-1)%len(input)]
			currIn, prevIn := inside(a, b, curr), inside(a, b, prev)
			if currIn != prevIn {
				res = append(res, intersect(prev, curr, a, b))
			}
			if currIn {
				res = append(res, curr)
			}
		}
	}
	return res
}

// intersect 求线段 p0p1 与直线 ab 的交点
func intersect(p0, p1, a, b mgl32.Vec2) mgl32.Vec2 {
	d := p1.Sub(p0)
	e := b.Sub(a)
	den := cross(d, e)
	if den == 0 {
		return p0
	}
	t := cross(a.Sub(p0), e) / den
	return p0.Add(d.Mul(t))
}
