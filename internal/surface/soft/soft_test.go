package soft

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"spine2d/internal/surface"
)

type texture struct {
	img *image.RGBA
}

func (t *texture) Size() (int, int) {
	return t.img.Bounds().Dx(), t.img.Bounds().Dy()
}

func (t *texture) Complete() bool      { return true }
func (t *texture) Source() image.Image { return t.img }

func newTexture(w, h int, c color.Color) *texture {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return &texture{img: img}
}

var red = color.RGBA{R: 255, A: 255}

func newSurface() *Surface {
	return New(image.NewRGBA(image.Rect(0, 0, 10, 10)))
}

func TestFill(t *testing.T) {
	s := newSurface()
	path := &surface.Path{}
	path.Rect(2, 2, 4, 4)
	s.Fill(path, red)
	assert.Equal(t, red, s.Image().RGBAAt(3, 3))
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(8, 8))
}

func TestClip(t *testing.T) {
	s := newSurface()
	whole := &surface.Path{}
	whole.Rect(0, 0, 10, 10)
	left := &surface.Path{}
	left.Rect(0, 0, 5, 10)

	s.Save()
	s.Clip(left)
	s.Fill(whole, red)
	s.Restore()
	assert.Equal(t, red, s.Image().RGBAAt(2, 5))
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(7, 5))

	// 出栈后裁剪失效
	s.Fill(whole, red)
	assert.Equal(t, red, s.Image().RGBAAt(7, 5))
	assert.Zero(t, s.Depth())
}

func TestMulAlpha(t *testing.T) {
	s := newSurface()
	path := &surface.Path{}
	path.Rect(0, 0, 10, 10)
	s.MulAlpha(0.5)
	s.Fill(path, red)
	assert.InDelta(t, 128, s.Image().RGBAAt(5, 5).A, 1)
}

func TestDrawImage(t *testing.T) {
	s := newSurface()
	tex := newTexture(4, 4, red)
	s.DrawImage(tex)
	assert.Equal(t, red, s.Image().RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(5, 5))

	s = newSurface()
	s.Transform(mgl32.Translate2D(2, 0))
	s.DrawImage(tex)
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(0, 1))
	assert.Equal(t, red, s.Image().RGBAAt(3, 1))

	// 退化变换直接跳过
	s = newSurface()
	s.Transform(mgl32.Scale2D(0, 1))
	s.DrawImage(tex)
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(0, 0))
}

func TestDrawImageClipped(t *testing.T) {
	s := newSurface()
	tri := &surface.Path{}
	tri.MoveTo(0, 0)
	tri.LineTo(10, 0)
	tri.LineTo(0, 10)
	tri.Close()
	s.Save()
	s.Clip(tri)
	s.Transform(mgl32.Scale2D(2.5, 2.5))
	s.DrawImage(newTexture(4, 4, red))
	s.Restore()
	assert.Equal(t, red, s.Image().RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(8, 8))
}

func TestStroke(t *testing.T) {
	s := newSurface()
	s.LineWidth = 2
	path := &surface.Path{}
	path.MoveTo(0, 5)
	path.LineTo(10, 5)
	s.Stroke(path, red)
	assert.Equal(t, red, s.Image().RGBAAt(5, 4))
	assert.Equal(t, red, s.Image().RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{}, s.Image().RGBAAt(5, 8))
}

func TestBlendAdditive(t *testing.T) {
	s := newSurface()
	s.Clear(color.RGBA{G: 255, A: 255})
	path := &surface.Path{}
	path.Rect(0, 0, 5, 10)
	s.SetBlend(surface.BlendAdditive)
	s.Fill(path, red)
	got := s.Image().RGBAAt(2, 2)
	assert.Equal(t, uint8(255), got.R)
	assert.Equal(t, uint8(255), got.G)
	// 遮罩外不受影响
	assert.Equal(t, color.RGBA{G: 255, A: 255}, s.Image().RGBAAt(7, 2))
}

func TestFillText(t *testing.T) {
	s := New(image.NewRGBA(image.Rect(0, 0, 40, 20)))
	s.Transform(mgl32.Translate2D(2, 14))
	s.FillText("ab", red)
	filled := 0
	for _, v := range s.Image().Pix {
		if v != 0 {
			filled++
		}
	}
	assert.Positive(t, filled)
}
