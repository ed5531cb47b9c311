package imageset

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	return img
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, testImage()))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestDecode(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, testImage()))
	img, err := Decode(buf, ".PNG")
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	_, err = Decode(bytes.NewReader([]byte("nope")), ".png")
	assert.Error(t, err)

	buf.Reset()
	require.NoError(t, jpeg.Encode(buf, testImage(), nil))
	img, err = Decode(buf, ".jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestFromImage(t *testing.T) {
	img := FromImage("a", testImage())
	assert.True(t, img.Complete())
	w, h := img.Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	r, _, _, _ := img.Source().At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	var empty Image
	assert.False(t, empty.Complete())
	assert.Nil(t, empty.Source())
	w, _ = empty.Size()
	assert.Zero(t, w)
}

func TestSet(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	writePNG(t, filepath.Join(dir, "b.png"))

	set := NewSet()
	set.Start(context.Background(), map[string]string{
		"a.png": filepath.Join(dir, "a.png"),
		"b.png": filepath.Join(dir, "b.png"),
	}, 1)
	require.NoError(t, set.Wait())
	images := set.Images()
	require.Len(t, images, 2)
	assert.True(t, images["a.png"].Complete())
	assert.True(t, set.Get("b.png").Complete())
	w, h := set.Get("a.png").Size()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	assert.NoError(t, set.Get("a.png").Err())
}

// 串行加载时坏图片不能让排在后面的图片放弃解码
func TestSetPartialFailure(t *testing.T) {
	dir := t.TempDir()
	paths := map[string]string{"missing.png": filepath.Join(dir, "missing.png")}
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(t, filepath.Join(dir, name))
		paths[name] = filepath.Join(dir, name)
	}

	set := NewSet()
	set.Start(context.Background(), paths, 1)
	assert.ErrorIs(t, set.Wait(), os.ErrNotExist)
	assert.ErrorIs(t, set.Get("missing.png").Err(), os.ErrNotExist)
	assert.False(t, set.Get("missing.png").Complete())
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		assert.True(t, set.Get(name).Complete(), name)
		assert.NoError(t, set.Get(name).Err(), name)
	}
}

func TestSetCanceled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set := NewSet()
	set.Start(ctx, map[string]string{"a.png": filepath.Join(dir, "a.png")}, 1)
	assert.ErrorIs(t, set.Wait(), context.Canceled)
	assert.False(t, set.Get("a.png").Complete())
}

func TestSetMissing(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))

	set := NewSet()
	set.Add(FromImage("extra", testImage()))
	set.Start(context.Background(), map[string]string{
		"missing.png": filepath.Join(dir, "missing.png"),
	}, 0)
	assert.ErrorIs(t, set.Wait(), os.ErrNotExist)
	assert.False(t, set.Get("missing.png").Complete())
	assert.True(t, set.Get("extra").Complete())
}
