package atlas

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Format 区分两种 atlas 约定，决定裁剪补偿放在 uv 上还是位置上
type Format uint8

const (
	// FormatUntrimmed uv 只覆盖打包后的矩形，位置通过 SitePosition 补偿裁剪
	FormatUntrimmed Format = iota
	// FormatTrimmed uv 覆盖裁剪前的原始矩形，位置不需要补偿
	FormatTrimmed
)

func (f Format) String() string {
	if f == FormatTrimmed {
		return "trimmed"
	}
	return "untrimmed"
}

func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "untrimmed":
		return FormatUntrimmed, nil
	case "trimmed":
		return FormatTrimmed, nil
	}
	return 0, fmt.Errorf("atlas: unknown format %q", name)
}

// SiteMatrix 把单位 uv 映射到图片像素坐标
// 图片尺寸 -> 页面归一化 -> 区域摆放，page 为 nil 跳过归一化，site 为 nil 跳过摆放
func SiteMatrix(imgW, imgH float32, page *Page, site *Site, format Format) mgl32.Mat3 {
	res := mgl32.Scale2D(imgW, imgH)
	if page != nil && page.W > 0 && page.H > 0 {
		res = res.Mul3(mgl32.Scale2D(1/float32(page.W), 1/float32(page.H)))
	}
	if site != nil {
		res = res.Mul3(sitePlacement(site, format))
	}
	return res
}

func sitePlacement(site *Site, format Format) mgl32.Mat3 {
	x, y := float32(site.X), float32(site.Y)
	w, h := float32(site.W), float32(site.H)
	ow, oh := float32(site.OrigW), float32(site.OrigH)
	offX, offY := float32(site.OffX), float32(site.OffY)
	if format == FormatTrimmed {
		if site.Rotate {
			u0 := x - (oh - offY - h)
			v0 := y - (ow - offX - w)
			// (s,t) -> (u0 + t*oh, v0 + (1-s)*ow)
			return mgl32.Mat3{0, -ow, 0, oh, 0, 0, u0, v0 + ow, 1}
		}
		return mgl32.Translate2D(x-offX, y-(oh-h-offY)).Mul3(mgl32.Scale2D(ow, oh))
	}
	if site.Rotate {
		// 打包矩形宽 h 高 w，(s,t) -> (x + t*h, y + w - s*w)
		return mgl32.Mat3{0, -w, 0, h, 0, 0, x, y + w, 1}
	}
	return mgl32.Translate2D(x, y).Mul3(mgl32.Scale2D(w, h))
}

// SitePosition 在位置空间补偿裁剪，只用于 FormatUntrimmed，site 为 nil 时为单位矩阵
func SitePosition(site *Site) mgl32.Mat3 {
	if site == nil || site.OrigW == 0 || site.OrigH == 0 {
		return mgl32.Ident3()
	}
	w, h := float32(site.W), float32(site.H)
	ow, oh := float32(site.OrigW), float32(site.OrigH)
	offX, offY := float32(site.OffX), float32(site.OffY)
	return mgl32.Scale2D(1/ow, 1/oh).
		Mul3(mgl32.Translate2D(2*offX-(ow-w), (oh-h)-2*offY)).
		Mul3(mgl32.Scale2D(w, h))
}

func Apply(m mgl32.Mat3, p mgl32.Vec2) mgl32.Vec2 {
	return m.Mul3x1(p.Vec3(1)).Vec2()
}
