// Package surface 定义渲染核心需要的最小 2D 画布能力
package surface

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Blend uint8

const (
	BlendNormal Blend = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

// Image 是外部持有的纹理，Complete 为 false 时本帧跳过
type Image interface {
	Size() (int, int)
	Complete() bool
}

// Surface 的变换、透明度、混合模式与裁剪都随 Save/Restore 入栈出栈
type Surface interface {
	Save()
	Restore()
	// Transform 右乘当前变换矩阵，后设置的先作用于坐标
	Transform(m mgl32.Mat3)
	MulAlpha(alpha float32)
	SetBlend(blend Blend)
	// Clip 与当前裁剪区域求交，只支持凸多边形
	Clip(path *Path)
	Fill(path *Path, c color.Color)
	Stroke(path *Path, c color.Color)
	// DrawImage 在用户空间 (0,0) 处按像素尺寸绘制整张图片
	DrawImage(img Image)
	// FillText 在用户空间原点处绘制文字，文字本身不随变换缩放旋转
	FillText(text string, c color.Color)
}

type Polygon []mgl32.Vec2

type Subpath struct {
	Points Polygon
	Closed bool
}

type Path struct {
	Subpaths []Subpath
}

func (p *Path) MoveTo(x, y float32) {
	p.Subpaths = append(p.Subpaths, Subpath{Points: Polygon{{x, y}}})
}

func (p *Path) LineTo(x, y float32) {
	if len(p.Subpaths) == 0 {
		p.MoveTo(x, y)
		return
	}
	last := &p.Subpaths[len(p.Subpaths)-1]
	last.Points = append(last.Points, mgl32.Vec2{x, y})
}

func (p *Path) Close() {
	if len(p.Subpaths) > 0 {
		p.Subpaths[len(p.Subpaths)-1].Closed = true
	}
}

func (p *Path) Rect(x, y, w, h float32) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

const circleSegments = 32

func (p *Path) Circle(x, y, r float32) {
	p.MoveTo(x+r, y)
	for i := 1; i < circleSegments; i++ {
		rad := 2 * math32.Pi * float32(i) / circleSegments
		p.LineTo(x+r*math32.Cos(rad), y+r*math32.Sin(rad))
	}
	p.Close()
}

// Transform 返回变换后的新路径
func (p *Path) Transform(m mgl32.Mat3) *Path {
	res := &Path{Subpaths: make([]Subpath, 0, len(p.Subpaths))}
	for _, sub := range p.Subpaths {
		points := make(Polygon, 0, len(sub.Points))
		for _, point := range sub.Points {
			points = append(points, Apply(m, point))
		}
		res.Subpaths = append(res.Subpaths, Subpath{Points: points, Closed: sub.Closed})
	}
	return res
}

// Segments 遍历所有线段，闭合子路径包含首尾相连的一段
func (p *Path) Segments(fn func(p0, p1 mgl32.Vec2)) {
	for _, sub := range p.Subpaths {
		for i := 1; i < len(sub.Points); i++ {
			fn(sub.Points[i-1], sub.Points[i])
		}
		if sub.Closed && len(sub.Points) > 2 {
			fn(sub.Points[len(sub.Points)-1], sub.Points[0])
		}
	}
}

func Apply(m mgl32.Mat3, p mgl32.Vec2) mgl32.Vec2 {
	return m.Mul3x1(p.Vec3(1)).Vec2()
}
