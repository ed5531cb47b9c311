// Package imageset 并发加载 atlas 页面图片，每张图片解码完成后才标记为可用
package imageset

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/anthonynsimon/bild/clone"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"spine2d/internal/surface"
)

type Image struct {
	Name  string
	pix   *image.RGBA
	ready atomic.Bool
	err   error
}

// FromImage 包装已经解码好的图片，立即可用
func FromImage(name string, img image.Image) *Image {
	res := &Image{Name: name}
	res.set(img)
	return res
}

func (i *Image) set(img image.Image) {
	i.pix = clone.AsRGBA(img)
	i.ready.Store(true)
}

func (i *Image) Complete() bool {
	return i.ready.Load()
}

// Err 返回解码失败的原因，只在 Set.Wait 返回后有效
func (i *Image) Err() error {
	return i.err
}

func (i *Image) Size() (int, int) {
	if !i.Complete() {
		return 0, 0
	}
	return i.pix.Bounds().Dx(), i.pix.Bounds().Dy()
}

// Source 在加载完成前返回 nil
func (i *Image) Source() image.Image {
	if !i.Complete() {
		return nil
	}
	return i.pix
}

// Decode 按扩展名选择解码器
// tga 注册的魔数为空会匹配任意输入，所以已知格式都直接调用对应的解码器
func Decode(r io.Reader, ext string) (image.Image, error) {
	var img image.Image
	var err error
	switch strings.ToLower(ext) {
	case ".png":
		img, err = png.Decode(r)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(r)
	case ".tga":
		img, err = tga.Decode(r)
	case ".webp":
		img, err = webp.Decode(r)
	default:
		img, _, err = image.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("imageset: decode %s: %w", ext, err)
	}
	return img, nil
}

func LoadFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageset: open %s: %w", path, err)
	}
	defer file.Close()
	img, err := Decode(file, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("imageset: %s: %w", path, err)
	}
	return img, nil
}

type Set struct {
	images map[string]*Image
	group  *errgroup.Group
}

func NewSet() *Set {
	return &Set{images: make(map[string]*Image), group: &errgroup.Group{}}
}

func (s *Set) Add(img *Image) {
	s.images[img.Name] = img
}

func (s *Set) Get(name string) *Image {
	return s.images[name]
}

// Start 立即登记所有图片并在后台解码，limit <= 0 表示不限制并发
// 正在解码的数量达到 limit 时 Start 会阻塞到有空位为止，同一个 Set 只能调用一次
// 单张图片失败只影响它自己，只有 ctx 取消才会放弃剩下的图片
func (s *Set) Start(ctx context.Context, paths map[string]string, limit int) {
	group := &errgroup.Group{}
	if limit > 0 {
		group.SetLimit(limit)
	}
	s.group = group
	for name, path := range paths {
		item := &Image{Name: name}
		s.images[name] = item
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				item.err = err
				return err
			}
			img, err := LoadFile(path)
			if err != nil {
				item.err = err
				return err
			}
			item.set(img)
			return nil
		})
	}
}

// Wait 等待所有图片解码结束，返回第一个错误，每张图片的错误见 Image.Err
func (s *Set) Wait() error {
	return s.group.Wait()
}

// Images 返回渲染器使用的图片表，未完成的图片也在其中
func (s *Set) Images() map[string]surface.Image {
	res := make(map[string]surface.Image, len(s.images))
	for name, img := range s.images {
		res[name] = img
	}
	return res
}
