// Package render 把摆好姿势的骨骼动画绘制到 surface 上
//
// 使用流程：加载数据后调用一次 BuildCache，之后每帧先推进 Pose 再调用 DrawPose
// 一个 Renderer 的缓存同一时刻只服务一个 Pose，多个实例同时动画需要各自的 Renderer
package render

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"spine2d/internal/atlas"
	"spine2d/internal/skel"
	"spine2d/internal/surface"
)

var blendModes = map[skel.BlendMode]surface.Blend{
	skel.BlendNormal:   surface.BlendNormal,
	skel.BlendAdditive: surface.BlendAdditive,
	skel.BlendMultiply: surface.BlendMultiply,
	skel.BlendScreen:   surface.BlendScreen,
}

type Renderer struct {
	surface surface.Surface
	format  atlas.Format
	logger  *slog.Logger
	cache   *Cache
}

type Option func(*Renderer)

// WithAtlasFormat 指定 atlas 的裁剪约定，默认 FormatUntrimmed
func WithAtlasFormat(format atlas.Format) Option {
	return func(r *Renderer) {
		r.format = format
	}
}

// WithLogger 覆盖包级日志
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

func New(s surface.Surface, opts ...Option) *Renderer {
	res := &Renderer{surface: s, format: atlas.FormatUntrimmed, cache: newCache()}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

// BuildCache 重建全部顶点缓冲并整体替换图片表
func (r *Renderer) BuildCache(data *skel.Data, atlasData *atlas.Data, images map[string]surface.Image) {
	r.cache = buildCache(data, images)
	if atlasData == nil {
		return
	}
	for _, page := range atlasData.Pages {
		if r.cache.image(page.Name) == nil {
			r.log().Warn("render: atlas page has no image", "page", page.Name)
		}
	}
}

func (r *Renderer) ClearCache() {
	r.cache.clear()
}

// UpdatePose 重算所有可见网格附件的顶点，必须在绘制前调用
func (r *Renderer) UpdatePose(pose *skel.Pose, _ *atlas.Data) error {
	return updatePose(pose, r.cache)
}

// siteName 附件在 atlas 中的名字
func siteName(item skel.SlotAttachment) string {
	if item.Attachment != nil && item.Attachment.Path != "" {
		return item.Attachment.Path
	}
	return item.Key
}

// resolveImage 先按页面名找图片，没有 site 时按附件名
func (r *Renderer) resolveImage(item skel.SlotAttachment, atlasData *atlas.Data) (surface.Image, *atlas.Site) {
	site := atlasData.Site(siteName(item))
	name := item.Key
	if site != nil && site.Page != nil {
		name = site.Page.Name
	}
	return r.cache.image(name), site
}

// sitePosition 只有 FormatUntrimmed 需要在位置空间补偿裁剪
func (r *Renderer) sitePosition(site *atlas.Site) {
	if r.format == atlas.FormatUntrimmed && site != nil {
		r.surface.Transform(atlas.SitePosition(site))
	}
}

// DrawPose 按绘制顺序绘制所有附件，缓存缺失时在绘制任何内容前返回错误
func (r *Renderer) DrawPose(pose *skel.Pose, atlasData *atlas.Data) error {
	if err := r.UpdatePose(pose, atlasData); err != nil {
		return err
	}
	for item := range pose.Attachments() {
		if item.Attachment == nil || item.Attachment.Kind == skel.AttachmentBoundingBox {
			continue
		}
		if err := r.drawAttachment(pose, item, atlasData); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawAttachment(pose *skel.Pose, item skel.SlotAttachment, atlasData *atlas.Data) error {
	img, site := r.resolveImage(item, atlasData)
	if img == nil || !img.Complete() {
		r.log().Debug("render: image not ready", "slot", item.Slot.Name, "attachment", item.Key)
		return nil
	}
	var info *AttachmentInfo
	kind := item.Attachment.Kind
	if kind == skel.AttachmentMesh || kind == skel.AttachmentWeightedMesh {
		var err error
		if info, err = r.cache.lookup(pose.SkinKey, item.Slot.Name, item.Key); err != nil {
			return err
		}
	}
	var page *atlas.Page
	if site != nil {
		page = site.Page
	}
	w, h := img.Size()
	m := atlas.SiteMatrix(float32(w), float32(h), page, site, r.format)

	s := r.surface
	s.Save()
	defer s.Restore()
	s.MulAlpha(item.Color.W())
	s.SetBlend(blendModes[item.Slot.Blend])
	skipped := 0
	switch kind {
	case skel.AttachmentRegion:
		s.Transform(item.BoneWorld.Mat3())
		s.Transform(item.Attachment.Local.Affine().Mat3())
		r.sitePosition(site)
		s.Transform(mgl32.Scale2D(item.Attachment.Width/2, item.Attachment.Height/2))
		skipped = drawTexturedMesh(s, regionTriangles, regionPositions, regionTexcoords, img, m)
	case skel.AttachmentMesh:
		s.Transform(item.BoneWorld.Mat3())
		r.sitePosition(site)
		skipped = drawTexturedMesh(s, info.Triangles, info.Position, info.Texcoords, img, m)
	case skel.AttachmentWeightedMesh:
		r.sitePosition(site)
		skipped = drawTexturedMesh(s, info.Triangles, info.Position, info.Texcoords, img, m)
	default:
		r.log().Debug("render: skip attachment", "attachment", item.Key, "kind", kind)
	}
	if skipped > 0 {
		r.log().Debug("render: degenerate triangles", "attachment", item.Key, "count", skipped)
	}
	return nil
}

// DrawDebugPose 绘制当前姿势的线框、骨骼与 IK 约束
func (r *Renderer) DrawDebugPose(pose *skel.Pose, atlasData *atlas.Data) error {
	if err := r.UpdatePose(pose, atlasData); err != nil {
		return err
	}
	return r.drawDebug(pose.Attachments(), pose, pose.SkinKey, pose.Data, false, atlasData)
}

// DrawDebugData 绘制 setup pose 的线框，使用构建缓存时的绑定姿势顶点
func (r *Renderer) DrawDebugData(pose *skel.Pose, atlasData *atlas.Data) error {
	r.surface.Save()
	defer r.surface.Restore()
	r.surface.Transform(pose.Root.Mat3())
	return r.drawDebug(pose.Data.Attachments(pose.SkinKey), pose.Data, pose.SkinKey, pose.Data, true, atlasData)
}
