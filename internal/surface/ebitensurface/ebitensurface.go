// Package ebitensurface 用 ebiten 的 DrawTriangles 实现 Surface，用于实时预览
package ebitensurface

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"spine2d/internal/surface"
)

var (
	BlendMap = map[surface.Blend]ebiten.Blend{
		surface.BlendNormal:   ebiten.BlendSourceOver,
		surface.BlendAdditive: ebiten.BlendLighter,
		surface.BlendMultiply: {
			// 源因子：前景颜色乘以背景颜色
			BlendFactorSourceRGB:   ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha: ebiten.BlendFactorDestinationAlpha,
			// 目标因子：不保留背景原有颜色
			BlendFactorDestinationRGB:   ebiten.BlendFactorZero,
			BlendFactorDestinationAlpha: ebiten.BlendFactorZero,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		},
		surface.BlendScreen: {
			BlendFactorSourceRGB:   ebiten.BlendFactorOne,
			BlendFactorSourceAlpha: ebiten.BlendFactorOne,
			// 目标因子：背景颜色乘以 (1 - 前景颜色)
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		},
	}
)

var whiteSubImage *ebiten.Image

// solidImage 延迟创建纯白纹理，取 3x3 中间的像素避免线性采样混入边缘
func solidImage() *ebiten.Image {
	if whiteSubImage == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whiteSubImage
}

// Source 由能提供像素数据的图片实现，首次绘制时上传为 ebiten.Image
type Source interface {
	Source() image.Image
}

type Surface struct {
	surface.Stack
	dst       *ebiten.Image
	textures  map[surface.Image]*ebiten.Image
	LineWidth float32
}

var _ surface.Surface = (*Surface)(nil)

func New(dst *ebiten.Image) *Surface {
	return &Surface{
		Stack:     surface.NewStack(),
		dst:       dst,
		textures:  make(map[surface.Image]*ebiten.Image),
		LineWidth: 1,
	}
}

// Reset 每帧开始时切换目标并清空状态栈，纹理缓存保留
func (s *Surface) Reset(dst *ebiten.Image) {
	s.dst = dst
	s.Stack.Reset()
}

func (s *Surface) texture(img surface.Image) *ebiten.Image {
	if res, ok := s.textures[img]; ok {
		return res
	}
	src, ok := img.(Source)
	if !ok || !img.Complete() {
		return nil
	}
	res := ebiten.NewImageFromImage(src.Source())
	s.textures[img] = res
	return res
}

func (s *Surface) options() *ebiten.DrawTrianglesOptions {
	return &ebiten.DrawTrianglesOptions{
		Blend:          BlendMap[s.State().Blend],
		ColorScaleMode: ebiten.ColorScaleModePremultipliedAlpha,
		Filter:         ebiten.FilterLinear,
	}
}

// clipPolygon 与所有裁剪多边形求交
func (s *Surface) clipPolygon(poly surface.Polygon) surface.Polygon {
	for _, clip := range s.State().Clip {
		poly = surface.ClipConvex(poly, clip)
		if len(poly) < 3 {
			return nil
		}
	}
	return poly
}

func (s *Surface) DrawImage(img surface.Image) {
	if !img.Complete() {
		return
	}
	tex := s.texture(img)
	if tex == nil {
		return
	}
	ctm := s.State().Matrix
	if math32.Abs(ctm.Det()) < 1e-12 {
		return
	}
	bounds := tex.Bounds()
	w, h := float32(bounds.Dx()), float32(bounds.Dy())
	quad := surface.Polygon{
		surface.Apply(ctm, mgl32.Vec2{0, 0}),
		surface.Apply(ctm, mgl32.Vec2{w, 0}),
		surface.Apply(ctm, mgl32.Vec2{w, h}),
		surface.Apply(ctm, mgl32.Vec2{0, h}),
	}
	poly := s.clipPolygon(quad)
	if len(poly) < 3 {
		return
	}
	// 设备空间的裁剪结果反算回图片像素坐标
	inv := ctm.Inv()
	alpha := s.State().Alpha
	vertices := make([]ebiten.Vertex, 0, len(poly))
	for _, point := range poly {
		src := surface.Apply(inv, point)
		vertices = append(vertices, ebiten.Vertex{
			DstX:   point.X(),
			DstY:   point.Y(),
			SrcX:   src.X() + float32(bounds.Min.X),
			SrcY:   src.Y() + float32(bounds.Min.Y),
			ColorR: alpha,
			ColorG: alpha,
			ColorB: alpha,
			ColorA: alpha,
		})
	}
	s.dst.DrawTriangles(vertices, fan(len(vertices)), tex, s.options())
}

func fan(count int) []uint16 {
	if count < 3 {
		return nil
	}
	res := make([]uint16, 0, 3*(count-2))
	for i := 2; i < count; i++ {
		res = append(res, 0, uint16(i-1), uint16(i))
	}
	return res
}

func toPath(device *surface.Path) *vector.Path {
	res := &vector.Path{}
	for _, sub := range device.Subpaths {
		if len(sub.Points) == 0 {
			continue
		}
		res.MoveTo(sub.Points[0].X(), sub.Points[0].Y())
		for _, point := range sub.Points[1:] {
			res.LineTo(point.X(), point.Y())
		}
		if sub.Closed {
			res.Close()
		}
	}
	return res
}

func (s *Surface) Fill(path *surface.Path, c color.Color) {
	vs, is := toPath(path.Transform(s.State().Matrix)).AppendVerticesAndIndicesForFilling(nil, nil)
	s.drawSolid(vs, is, c)
}

func (s *Surface) Stroke(path *surface.Path, c color.Color) {
	vs, is := toPath(path.Transform(s.State().Matrix)).AppendVerticesAndIndicesForStroke(nil, nil, &vector.StrokeOptions{
		Width: s.LineWidth,
	})
	s.drawSolid(vs, is, c)
}

// drawSolid 逐个三角形裁剪后用纯色绘制
func (s *Surface) drawSolid(vs []ebiten.Vertex, is []uint16, c color.Color) {
	r, g, b, a := c.RGBA()
	alpha := s.State().Alpha
	clr := [4]float32{
		float32(r) / 0xffff * alpha,
		float32(g) / 0xffff * alpha,
		float32(b) / 0xffff * alpha,
		float32(a) / 0xffff * alpha,
	}
	if len(s.State().Clip) > 0 {
		vs, is = s.clipTriangles(vs, is)
	}
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = clr[0], clr[1], clr[2], clr[3]
	}
	if len(is) == 0 {
		return
	}
	opts := s.options()
	opts.FillRule = ebiten.NonZero
	s.dst.DrawTriangles(vs, is, solidImage(), opts)
}

func (s *Surface) clipTriangles(vs []ebiten.Vertex, is []uint16) ([]ebiten.Vertex, []uint16) {
	resV := make([]ebiten.Vertex, 0, len(vs))
	resI := make([]uint16, 0, len(is))
	for i := 0; i+2 < len(is); i += 3 {
		tri := surface.Polygon{
			{vs[is[i]].DstX, vs[is[i]].DstY},
			{vs[is[i+1]].DstX, vs[is[i+1]].DstY},
			{vs[is[i+2]].DstX, vs[is[i+2]].DstY},
		}
		poly := s.clipPolygon(tri)
		if len(poly) < 3 {
			continue
		}
		base := uint16(len(resV))
		for _, point := range poly {
			resV = append(resV, ebiten.Vertex{DstX: point.X(), DstY: point.Y()})
		}
		for _, idx := range fan(len(poly)) {
			resI = append(resI, base+idx)
		}
	}
	return resV, resI
}

// FillText 使用 ebitenutil 的调试字体，颜色固定为白色
func (s *Surface) FillText(text string, _ color.Color) {
	origin := s.Origin()
	ebitenutil.DebugPrintAt(s.dst, text, int(origin.X()), int(origin.Y()))
}
