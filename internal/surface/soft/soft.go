// Package soft 是基于 golang.org/x/image 的纯软件 Surface，用于离屏渲染与像素测试
package soft

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/blend"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"spine2d/internal/surface"
)

// Source 由能提供像素数据的图片实现
type Source interface {
	Source() image.Image
}

type Surface struct {
	surface.Stack
	dst       *image.RGBA
	raster    vector.Rasterizer
	LineWidth float32 // 设备像素
}

var _ surface.Surface = (*Surface)(nil)

func New(dst *image.RGBA) *Surface {
	return &Surface{Stack: surface.NewStack(), dst: dst, LineWidth: 1}
}

func (s *Surface) Image() *image.RGBA {
	return s.dst
}

func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.dst, s.dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func toAff3(m mgl32.Mat3) f64.Aff3 {
	return f64.Aff3{
		float64(m[0]), float64(m[3]), float64(m[6]),
		float64(m[1]), float64(m[4]), float64(m[7]),
	}
}

func toRect(lo, hi mgl32.Vec2) image.Rectangle {
	return image.Rect(int(math32.Floor(lo.X())), int(math32.Floor(lo.Y())),
		int(math32.Ceil(hi.X())), int(math32.Ceil(hi.Y())))
}

// region 把设备空间包围盒与目标图片、裁剪区域求交
func (s *Surface) region(polys []surface.Polygon) image.Rectangle {
	res := image.Rectangle{}
	for _, poly := range polys {
		res = res.Union(toRect(poly.Bounds()))
	}
	res = res.Intersect(s.dst.Bounds())
	for _, poly := range s.State().Clip {
		res = res.Intersect(toRect(poly.Bounds()))
	}
	return res
}

func (s *Surface) coverage(r image.Rectangle, polys []surface.Polygon) *image.Alpha {
	res := image.NewAlpha(r)
	s.raster.Reset(r.Dx(), r.Dy())
	s.raster.DrawOp = draw.Src
	ox, oy := float32(r.Min.X), float32(r.Min.Y)
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		s.raster.MoveTo(poly[0].X()-ox, poly[0].Y()-oy)
		for _, point := range poly[1:] {
			s.raster.LineTo(point.X()-ox, point.Y()-oy)
		}
		s.raster.ClosePath()
	}
	s.raster.Draw(res, r, image.Opaque, image.Point{})
	return res
}

// mask 合并形状覆盖率、裁剪区域与全局透明度
func (s *Surface) mask(r image.Rectangle, shape []surface.Polygon) *image.Alpha {
	state := s.State()
	res := s.coverage(r, shape)
	for _, poly := range state.Clip {
		clip := s.coverage(r, []surface.Polygon{poly})
		for i, val := range clip.Pix {
			res.Pix[i] = min(res.Pix[i], val)
		}
	}
	if state.Alpha < 1 {
		alpha := max(state.Alpha, 0)
		for i, val := range res.Pix {
			res.Pix[i] = uint8(float32(val)*alpha + 0.5)
		}
	}
	return res
}

func (s *Surface) composite(r image.Rectangle, src image.Image, mask *image.Alpha) {
	mode := s.State().Blend
	if mode == surface.BlendNormal {
		draw.DrawMask(s.dst, r, src, r.Min, mask, r.Min, draw.Over)
		return
	}
	fg := image.NewRGBA(r)
	draw.Draw(fg, r, src, r.Min, draw.Src)
	bg := s.dst.SubImage(r)
	var res *image.RGBA
	switch mode {
	case surface.BlendAdditive:
		res = blend.Add(bg, fg)
	case surface.BlendMultiply:
		res = blend.Multiply(bg, fg)
	default:
		res = blend.Screen(bg, fg)
	}
	// 按遮罩在原图与混合结果之间插值，遮罩外保持原样
	off := res.Bounds().Min.Sub(r.Min)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m := uint32(mask.AlphaAt(x, y).A)
			if m == 0 {
				continue
			}
			c := res.RGBAAt(x+off.X, y+off.Y)
			d := s.dst.RGBAAt(x, y)
			s.dst.SetRGBA(x, y, color.RGBA{
				R: mix(d.R, c.R, m),
				G: mix(d.G, c.G, m),
				B: mix(d.B, c.B, m),
				A: mix(d.A, c.A, m),
			})
		}
	}
}

func mix(d, c uint8, m uint32) uint8 {
	return uint8((uint32(d)*(255-m) + uint32(c)*m + 127) / 255)
}

func (s *Surface) Fill(path *surface.Path, c color.Color) {
	device := path.Transform(s.State().Matrix)
	polys := make([]surface.Polygon, 0, len(device.Subpaths))
	for _, sub := range device.Subpaths {
		polys = append(polys, sub.Points)
	}
	s.fillPolygons(polys, c)
}

func (s *Surface) fillPolygons(polys []surface.Polygon, c color.Color) {
	r := s.region(polys)
	if r.Empty() {
		return
	}
	s.composite(r, image.NewUniform(c), s.mask(r, polys))
}

// Stroke 把每条线段扩展成设备空间的矩形，线宽不随变换缩放
func (s *Surface) Stroke(path *surface.Path, c color.Color) {
	half := s.LineWidth / 2
	polys := make([]surface.Polygon, 0)
	path.Transform(s.State().Matrix).Segments(func(p0, p1 mgl32.Vec2) {
		d := p1.Sub(p0)
		l := d.Len()
		if l == 0 {
			return
		}
		n := mgl32.Vec2{-d.Y(), d.X()}.Mul(half / l)
		polys = append(polys, surface.Polygon{p0.Add(n), p1.Add(n), p1.Sub(n), p0.Sub(n)})
	})
	s.fillPolygons(polys, c)
}

func (s *Surface) DrawImage(img surface.Image) {
	src, ok := img.(Source)
	if !ok || !img.Complete() {
		return
	}
	pix := src.Source()
	bounds := pix.Bounds()
	ctm := s.State().Matrix
	if math32.Abs(ctm.Det()) < 1e-12 {
		return
	}
	w, h := float32(bounds.Dx()), float32(bounds.Dy())
	quad := surface.Polygon{
		surface.Apply(ctm, mgl32.Vec2{0, 0}),
		surface.Apply(ctm, mgl32.Vec2{w, 0}),
		surface.Apply(ctm, mgl32.Vec2{w, h}),
		surface.Apply(ctm, mgl32.Vec2{0, h}),
	}
	// 图片左上角不一定在 (0,0)
	m := ctm.Mul3(mgl32.Translate2D(-float32(bounds.Min.X), -float32(bounds.Min.Y)))
	r := s.region([]surface.Polygon{quad})
	if r.Empty() {
		return
	}
	layer := image.NewRGBA(r)
	xdraw.BiLinear.Transform(layer, toAff3(m), pix, bounds, xdraw.Src, nil)
	s.composite(r, layer, s.mask(r, []surface.Polygon{quad}))
}

// FillText 使用固定的位图字体，忽略裁剪与混合模式
func (s *Surface) FillText(text string, c color.Color) {
	origin := s.Origin()
	drawer := font.Drawer{
		Dst:  s.dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(origin.X()), int(origin.Y())),
	}
	drawer.DrawString(text)
}
