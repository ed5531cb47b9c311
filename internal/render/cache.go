package render

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"spine2d/internal/skel"
	"spine2d/internal/surface"
)

var ErrMissingCacheEntry = errors.New("render: missing cache entry")

// AttachmentInfo 是网格附件的顶点缓冲，长度在构建后固定
type AttachmentInfo struct {
	Kind        skel.AttachmentKind
	VertexCount int
	Triangles   []uint16
	Texcoords   []float32
	// Setup 为绑定姿势下的位置，构建后只读
	// Mesh 为局部坐标，WeightedMesh 为蒙皮后的世界坐标
	Setup []float32
	// Position 每帧原地覆盖，WeightedMesh 时就是 blend 缓冲
	Position []float32

	source *skel.Attachment
}

// Cache 按 皮肤 -> 槽位 -> 附件 保存顶点缓冲，同一时刻只能服务一个 Pose
type Cache struct {
	skins  map[string]map[string]map[string]*AttachmentInfo
	images map[string]surface.Image
}

func newCache() *Cache {
	return &Cache{
		skins:  make(map[string]map[string]map[string]*AttachmentInfo),
		images: make(map[string]surface.Image),
	}
}

// buildCache 为所有皮肤中的网格附件建立缓冲，其他类型的附件绘制时直接读取静态数据
func buildCache(data *skel.Data, images map[string]surface.Image) *Cache {
	res := newCache()
	for _, skin := range data.Skins.Order {
		slots := make(map[string]map[string]*AttachmentInfo)
		res.skins[skin.Key] = slots
		for entry := range skin.Value.Entries() {
			info := newAttachmentInfo(data, entry.Attachment)
			if info == nil {
				continue
			}
			items, ok := slots[entry.Slot]
			if !ok {
				items = make(map[string]*AttachmentInfo)
				slots[entry.Slot] = items
			}
			items[entry.Key] = info
		}
	}
	if images != nil {
		res.images = images
	}
	return res
}

func newAttachmentInfo(data *skel.Data, attachment *skel.Attachment) *AttachmentInfo {
	if attachment == nil {
		return nil
	}
	res := &AttachmentInfo{
		Kind:      attachment.Kind,
		Triangles: append([]uint16(nil), attachment.Triangles...),
		Texcoords: append([]float32(nil), attachment.UVs...),
		source:    attachment,
	}
	switch attachment.Kind {
	case skel.AttachmentMesh:
		res.VertexCount = len(attachment.Vertices) / 2
		res.Setup = append([]float32(nil), attachment.Vertices[:2*res.VertexCount]...)
	case skel.AttachmentWeightedMesh:
		res.VertexCount = len(attachment.UVs) / 2
		res.Setup = make([]float32, 2*res.VertexCount)
		blendVertices(res.Setup, attachment.Vertices, data, nil)
	default:
		return nil
	}
	res.Position = append([]float32(nil), res.Setup...)
	return res
}

func (c *Cache) clear() {
	c.skins = make(map[string]map[string]map[string]*AttachmentInfo)
	c.images = make(map[string]surface.Image)
}

// lookup 先找指定皮肤，没有再回退到默认皮肤
func (c *Cache) lookup(skin, slot, key string) (*AttachmentInfo, error) {
	if res, ok := c.skins[skin][slot][key]; ok {
		return res, nil
	}
	if res, ok := c.skins[skel.DefaultSkin][slot][key]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("%w: skin %q slot %q attachment %q", ErrMissingCacheEntry, skin, slot, key)
}

func (c *Cache) image(name string) surface.Image {
	return c.images[name]
}

// blendVertices 遍历 count,(bone,x,y,weight)* 的权重流做线性混合蒙皮
// ffd 不为 nil 时先把偏移加到局部坐标上，每个权重项消耗两个分量
func blendVertices(dst, stream []float32, skeleton skel.Skeleton, ffd *skel.FFDSample) {
	pos, comp := 0, 0
	for v := 0; 2*v+1 < len(dst) && pos < len(stream); v++ {
		count := int(stream[pos])
		pos++
		var sum mgl32.Vec2
		for range count {
			bone := int(stream[pos])
			local := mgl32.Vec2{stream[pos+1], stream[pos+2]}
			weight := stream[pos+3]
			pos += 4
			if ffd != nil {
				local = local.Add(mgl32.Vec2{ffd.Offset(comp), ffd.Offset(comp + 1)})
			}
			comp += 2
			sum = sum.Add(skeleton.World(bone).Transform(local).Mul(weight))
		}
		dst[2*v], dst[2*v+1] = sum.X(), sum.Y()
	}
}
