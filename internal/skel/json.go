package skel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrInvalidData = errors.New("skel: invalid data")

type jsonSkeleton struct {
	Hash   string  `json:"hash"`
	Spine  string  `json:"spine"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

type jsonBone struct {
	Name            string   `json:"name"`
	Parent          string   `json:"parent"`
	Length          float32  `json:"length"`
	X               float32  `json:"x"`
	Y               float32  `json:"y"`
	Rotation        float32  `json:"rotation"`
	ScaleX          *float32 `json:"scaleX"`
	ScaleY          *float32 `json:"scaleY"`
	InheritRotation *bool    `json:"inheritRotation"` // 2.x
	InheritScale    *bool    `json:"inheritScale"`    // 2.x
	Transform       string   `json:"transform"`       // 3.x
}

type jsonSlot struct {
	Name       string `json:"name"`
	Bone       string `json:"bone"`
	Color      string `json:"color"`
	Attachment string `json:"attachment"`
	Blend      string `json:"blend"`
}

type jsonIK struct {
	Name         string   `json:"name"`
	Bones        []string `json:"bones"`
	Target       string   `json:"target"`
	Mix          *float32 `json:"mix"`
	BendPositive *bool    `json:"bendPositive"`
}

type jsonAttachment struct {
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	X         float32   `json:"x"`
	Y         float32   `json:"y"`
	Rotation  float32   `json:"rotation"`
	ScaleX    *float32  `json:"scaleX"`
	ScaleY    *float32  `json:"scaleY"`
	Width     float32   `json:"width"`
	Height    float32   `json:"height"`
	Color     string    `json:"color"`
	Vertices  []float32 `json:"vertices"`
	UVs       []float32 `json:"uvs"`
	Triangles []uint16  `json:"triangles"`
	Hull      int       `json:"hull"`
}

type jsonDrawOffset struct {
	Slot   string `json:"slot"`
	Offset int    `json:"offset"`
}

// jsonKeyframe 是所有时间轴关键帧字段的并集
type jsonKeyframe struct {
	Time         float32          `json:"time"`
	Curve        json.RawMessage  `json:"curve"`
	C2           *float32         `json:"c2"`
	C3           *float32         `json:"c3"`
	C4           *float32         `json:"c4"`
	Angle        float32          `json:"angle"`
	X            *float32         `json:"x"`
	Y            *float32         `json:"y"`
	Name         *string          `json:"name"`
	Color        string           `json:"color"`
	Offset       int              `json:"offset"`
	Vertices     []float32        `json:"vertices"`
	Offsets      []jsonDrawOffset `json:"offsets"`
	Mix          *float32         `json:"mix"`
	BendPositive *bool            `json:"bendPositive"`
}

type jsonRoot struct {
	Skeleton   *jsonSkeleton   `json:"skeleton"`
	Bones      []*jsonBone     `json:"bones"`
	Slots      []*jsonSlot     `json:"slots"`
	IK         []*jsonIK       `json:"ik"`
	Skins      json.RawMessage `json:"skins"`
	Animations json.RawMessage `json:"animations"`
}

// LoadFile 按扩展名选择格式，.skel 为二进制，其余按 JSON 解析
func LoadFile(path string) (*Data, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("skel: open %s: %w", path, err)
	}
	defer file.Close()
	if strings.EqualFold(filepath.Ext(path), ".skel") {
		return LoadBinary(file)
	}
	return Load(file)
}

// Load 解析 2.x/3.x 的 JSON 骨骼数据，皮肤与动画保持声明顺序
func Load(r io.Reader) (*Data, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("skel: read: %w", err)
	}
	root := &jsonRoot{}
	if err = json.Unmarshal(raw, root); err != nil {
		return nil, fmt.Errorf("skel: decode: %w", err)
	}
	res := NewData()
	if root.Skeleton != nil {
		res.Hash = root.Skeleton.Hash
		res.Version = root.Skeleton.Spine
		res.Size = mgl32.Vec2{root.Skeleton.Width, root.Skeleton.Height}
	}
	for _, item := range root.Bones {
		if err = res.loadBone(item); err != nil {
			return nil, err
		}
	}
	for _, item := range root.Slots {
		if err = res.loadSlot(item); err != nil {
			return nil, err
		}
	}
	for _, item := range root.IK {
		if err = res.loadIK(item); err != nil {
			return nil, err
		}
	}
	if err = res.loadSkins(root.Skins); err != nil {
		return nil, err
	}
	if err = eachField(root.Animations, func(key string, value json.RawMessage) error {
		anim, err := res.loadAnimation(key, value)
		if err != nil {
			return fmt.Errorf("skel: animation %q: %w", key, err)
		}
		res.Animations.Add(key, anim)
		return nil
	}); err != nil {
		return nil, err
	}
	res.UpdateWorld()
	return res, nil
}

// eachField 按声明顺序遍历 JSON 对象的字段
func eachField(raw json.RawMessage, fn func(key string, value json.RawMessage) error) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("skel: decode: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected object", ErrInvalidData)
	}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("skel: decode: %w", err)
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err = dec.Decode(&value); err != nil {
			return fmt.Errorf("skel: decode %q: %w", key, err)
		}
		if err = fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

func valueOr[T any](ptr *T, def T) T {
	if ptr == nil {
		return def
	}
	return *ptr
}

func parseColor(hex string) (mgl32.Vec4, error) {
	if hex == "" {
		return mgl32.Vec4{1, 1, 1, 1}, nil
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return mgl32.Vec4{}, fmt.Errorf("%w: color %q", ErrInvalidData, hex)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return mgl32.Vec4{}, fmt.Errorf("%w: color %q", ErrInvalidData, hex)
	}
	return mgl32.Vec4{
		float32(val>>24&0xff) / 255,
		float32(val>>16&0xff) / 255,
		float32(val>>8&0xff) / 255,
		float32(val&0xff) / 255,
	}, nil
}

func parseTransformMode(item *jsonBone) (TransformMode, error) {
	switch item.Transform {
	case "", "normal":
	case "onlyTranslation":
		return TransformOnlyTranslation, nil
	case "noRotationOrReflection":
		return TransformNoRotationOrReflection, nil
	case "noScale":
		return TransformNoScale, nil
	case "noScaleOrReflection":
		return TransformNoScaleOrReflection, nil
	default:
		return 0, fmt.Errorf("%w: bone %q transform %q", ErrInvalidData, item.Name, item.Transform)
	}
	// 2.x 使用两个布尔值描述继承关系
	rotation := valueOr(item.InheritRotation, true)
	scale := valueOr(item.InheritScale, true)
	switch {
	case !rotation && !scale:
		return TransformOnlyTranslation, nil
	case !rotation:
		return TransformNoRotationOrReflection, nil
	case !scale:
		return TransformNoScale, nil
	}
	return TransformNormal, nil
}

func parseBlend(name string) (BlendMode, error) {
	switch name {
	case "", "normal":
		return BlendNormal, nil
	case "additive":
		return BlendAdditive, nil
	case "multiply":
		return BlendMultiply, nil
	case "screen":
		return BlendScreen, nil
	}
	return 0, fmt.Errorf("%w: blend %q", ErrInvalidData, name)
}

func (d *Data) loadBone(item *jsonBone) error {
	if _, ok := d.boneIndex[item.Name]; ok || item.Name == "" {
		return fmt.Errorf("%w: bone name %q", ErrInvalidData, item.Name)
	}
	bone := &Bone{
		Name:   item.Name,
		Length: item.Length,
		Local: Space{
			Position: mgl32.Vec2{item.X, item.Y},
			Rotation: mgl32.DegToRad(item.Rotation),
			Scale:    mgl32.Vec2{valueOr(item.ScaleX, 1), valueOr(item.ScaleY, 1)},
		},
	}
	if item.Parent != "" {
		parent, err := d.Bone(item.Parent) // 父骨骼必须先声明
		if err != nil {
			return fmt.Errorf("skel: bone %q: %w", item.Name, err)
		}
		bone.Parent = parent
	}
	mode, err := parseTransformMode(item)
	if err != nil {
		return err
	}
	bone.Mode = mode
	d.AddBone(bone)
	return nil
}

func (d *Data) loadSlot(item *jsonSlot) error {
	if _, ok := d.slotIndex[item.Name]; ok || item.Name == "" {
		return fmt.Errorf("%w: slot name %q", ErrInvalidData, item.Name)
	}
	bone, err := d.Bone(item.Bone)
	if err != nil {
		return fmt.Errorf("skel: slot %q: %w", item.Name, err)
	}
	color, err := parseColor(item.Color)
	if err != nil {
		return fmt.Errorf("skel: slot %q: %w", item.Name, err)
	}
	blend, err := parseBlend(item.Blend)
	if err != nil {
		return fmt.Errorf("skel: slot %q: %w", item.Name, err)
	}
	d.AddSlot(&Slot{
		Name:       item.Name,
		Bone:       bone,
		Color:      color,
		Attachment: item.Attachment,
		Blend:      blend,
	})
	return nil
}

func (d *Data) loadIK(item *jsonIK) error {
	if len(item.Bones) < 1 || len(item.Bones) > 2 {
		return fmt.Errorf("%w: ik %q has %d bones", ErrInvalidData, item.Name, len(item.Bones))
	}
	ikc := &IKConstraint{
		Name:         item.Name,
		Mix:          valueOr(item.Mix, 1),
		BendPositive: valueOr(item.BendPositive, true),
	}
	for _, name := range item.Bones {
		bone, err := d.Bone(name)
		if err != nil {
			return fmt.Errorf("skel: ik %q: %w", item.Name, err)
		}
		ikc.Bones = append(ikc.Bones, bone)
	}
	target, err := d.Bone(item.Target)
	if err != nil {
		return fmt.Errorf("skel: ik %q: %w", item.Name, err)
	}
	ikc.Target = target
	d.IKConstraints = append(d.IKConstraints, ikc)
	return nil
}

// loadSkins 同时支持 {skin: {slot: {attachment}}} 与 3.8 的 [{name, attachments}]
func (d *Data) loadSkins(raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []struct {
			Name        string          `json:"name"`
			Attachments json.RawMessage `json:"attachments"`
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("skel: decode skins: %w", err)
		}
		for _, item := range items {
			if err := d.loadSkin(item.Name, item.Attachments); err != nil {
				return err
			}
		}
		return nil
	}
	return eachField(raw, d.loadSkin)
}

func (d *Data) loadSkin(name string, raw json.RawMessage) error {
	skin := NewSkin(name)
	err := eachField(raw, func(slotName string, value json.RawMessage) error {
		if _, err := d.Slot(slotName); err != nil {
			return fmt.Errorf("skel: skin %q: %w", name, err)
		}
		return eachField(value, func(key string, value json.RawMessage) error {
			item := &jsonAttachment{}
			if err := json.Unmarshal(value, item); err != nil {
				return fmt.Errorf("skel: skin %q slot %q attachment %q: %w", name, slotName, key, err)
			}
			attachment, err := d.loadAttachment(key, item)
			if err != nil {
				return fmt.Errorf("skel: skin %q slot %q attachment %q: %w", name, slotName, key, err)
			}
			skin.Add(slotName, key, attachment)
			return nil
		})
	})
	if err != nil {
		return err
	}
	d.Skins.Add(name, skin)
	return nil
}

func attachmentKind(item *jsonAttachment) AttachmentKind {
	switch item.Type {
	case "", "region":
		return AttachmentRegion
	case "boundingbox":
		return AttachmentBoundingBox
	case "mesh":
		if len(item.Vertices) != len(item.UVs) { // 3.x 的 mesh 顶点数与 uv 数不一致时为带权重网格
			return AttachmentWeightedMesh
		}
		return AttachmentMesh
	case "weightedmesh", "skinnedmesh":
		return AttachmentWeightedMesh
	}
	return AttachmentUnknown
}

func (d *Data) loadAttachment(key string, item *jsonAttachment) (*Attachment, error) {
	color, err := parseColor(item.Color)
	if err != nil {
		return nil, err
	}
	res := &Attachment{
		Name: key,
		Path: item.Path,
		Type: item.Type,
		Kind: attachmentKind(item),
		Local: Space{
			Position: mgl32.Vec2{item.X, item.Y},
			Rotation: mgl32.DegToRad(item.Rotation),
			Scale:    mgl32.Vec2{valueOr(item.ScaleX, 1), valueOr(item.ScaleY, 1)},
		},
		Width:     item.Width,
		Height:    item.Height,
		Color:     color,
		Vertices:  item.Vertices,
		UVs:       item.UVs,
		Triangles: item.Triangles,
		Hull:      item.Hull,
	}
	if item.Name != "" {
		res.Name = item.Name
	}
	if res.Path == "" {
		res.Path = res.Name
	}
	switch res.Kind {
	case AttachmentMesh:
		if len(res.Vertices)%2 != 0 {
			return nil, fmt.Errorf("%w: odd vertex stream", ErrInvalidData)
		}
		err = validateTriangles(res.Triangles, len(res.UVs)/2)
	case AttachmentWeightedMesh:
		if len(res.UVs)%2 != 0 {
			return nil, fmt.Errorf("%w: odd uv stream", ErrInvalidData)
		}
		if err = validateWeights(res.Vertices, len(res.UVs)/2, len(d.Bones)); err == nil {
			err = validateTriangles(res.Triangles, len(res.UVs)/2)
		}
	case AttachmentBoundingBox:
		if len(res.Vertices)%2 != 0 {
			return nil, fmt.Errorf("%w: odd vertex stream", ErrInvalidData)
		}
	case AttachmentUnknown:
		slog.Warn("skel: unsupported attachment type", "attachment", key, "type", item.Type)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func validateTriangles(triangles []uint16, vertexCount int) error {
	if len(triangles)%3 != 0 {
		return fmt.Errorf("%w: %d triangle indices", ErrInvalidData, len(triangles))
	}
	for _, idx := range triangles {
		if int(idx) >= vertexCount {
			return fmt.Errorf("%w: triangle index %d out of %d vertices", ErrInvalidData, idx, vertexCount)
		}
	}
	return nil
}

// validateWeights 检查 count,(bone,x,y,weight)* 流的长度与骨骼下标
func validateWeights(vertices []float32, vertexCount, boneCount int) error {
	idx := 0
	for i := 0; i < vertexCount; i++ {
		if idx >= len(vertices) {
			return fmt.Errorf("%w: weighted stream ends at vertex %d", ErrInvalidData, i)
		}
		count := int(vertices[idx])
		idx++
		if count < 0 || idx+count*4 > len(vertices) {
			return fmt.Errorf("%w: weighted stream vertex %d has %d influences", ErrInvalidData, i, count)
		}
		for j := 0; j < count; j++ {
			if bone := int(vertices[idx]); bone < 0 || bone >= boneCount {
				return fmt.Errorf("%w: weighted stream bone %d", ErrInvalidData, bone)
			}
			idx += 4
		}
	}
	if idx != len(vertices) {
		return fmt.Errorf("%w: weighted stream has %d trailing values", ErrInvalidData, len(vertices)-idx)
	}
	return nil
}

func parseCurve(item *jsonKeyframe) (Curve, error) {
	raw := bytes.TrimSpace(item.Curve)
	if len(raw) == 0 {
		return Curve{}, nil
	}
	switch raw[0] {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return Curve{}, err
		}
		switch name {
		case "stepped":
			return Curve{Type: CurveStepped}, nil
		case "linear":
			return Curve{}, nil
		}
		return Curve{}, fmt.Errorf("%w: curve %q", ErrInvalidData, name)
	case '[':
		var val []float32
		if err := json.Unmarshal(raw, &val); err != nil {
			return Curve{}, err
		}
		if len(val) != 4 {
			return Curve{}, fmt.Errorf("%w: curve has %d values", ErrInvalidData, len(val))
		}
		return Curve{Type: CurveBezier, Data: [2]mgl32.Vec2{{val[0], val[1]}, {val[2], val[3]}}}, nil
	default: // 3.x 把第一个控制点的 x 写在 curve 里，其余在 c2 c3 c4
		var cx1 float32
		if err := json.Unmarshal(raw, &cx1); err != nil {
			return Curve{}, err
		}
		return Curve{Type: CurveBezier, Data: [2]mgl32.Vec2{
			{cx1, valueOr(item.C2, 0)},
			{valueOr(item.C3, 1), valueOr(item.C4, 1)},
		}}, nil
	}
}

type animLoader struct {
	data     *Data
	anim     *Animation
	duration float32
}

func (l *animLoader) base(item *jsonKeyframe) (BaseKeyframe, error) {
	curve, err := parseCurve(item)
	if err != nil {
		return BaseKeyframe{}, err
	}
	l.duration = max(l.duration, item.Time)
	return BaseKeyframe{Time: item.Time, Curve: curve}, nil
}

func decodeKeyframes(raw json.RawMessage) ([]*jsonKeyframe, error) {
	var res []*jsonKeyframe
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("skel: decode keyframes: %w", err)
	}
	sort.SliceStable(res, func(i, j int) bool { // 保证顺序性
		return res[i].Time < res[j].Time
	})
	return res, nil
}

func (d *Data) loadAnimation(name string, raw json.RawMessage) (*Animation, error) {
	loader := &animLoader{data: d, anim: NewAnimation(name)}
	err := eachField(raw, func(key string, value json.RawMessage) error {
		switch key {
		case "bones":
			return eachField(value, loader.loadBone)
		case "slots":
			return eachField(value, loader.loadSlot)
		case "ffd", "deform":
			return eachField(value, loader.loadFFDSkin)
		case "drawOrder", "draworder":
			return loader.loadDrawOrder(value)
		case "ik":
			return eachField(value, loader.loadIK)
		}
		return nil // events 等暂不支持
	})
	if err != nil {
		return nil, err
	}
	loader.anim.Duration = loader.duration
	return loader.anim, nil
}

func (l *animLoader) loadBone(name string, raw json.RawMessage) error {
	if _, err := l.data.Bone(name); err != nil {
		return err
	}
	res := &BoneTimelines{}
	err := eachField(raw, func(key string, value json.RawMessage) error {
		items, err := decodeKeyframes(value)
		if err != nil {
			return err
		}
		for _, item := range items {
			base, err := l.base(item)
			if err != nil {
				return err
			}
			switch key {
			case "rotate":
				res.Rotate = append(res.Rotate, &RotateKeyframe{BaseKeyframe: base, Angle: mgl32.DegToRad(item.Angle)})
			case "translate":
				res.Translate = append(res.Translate, &TranslateKeyframe{BaseKeyframe: base,
					Offset: mgl32.Vec2{valueOr(item.X, 0), valueOr(item.Y, 0)}})
			case "scale":
				res.Scale = append(res.Scale, &ScaleKeyframe{BaseKeyframe: base,
					Scale: mgl32.Vec2{valueOr(item.X, 1), valueOr(item.Y, 1)}})
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bone %q: %w", name, err)
	}
	l.anim.Bones[name] = res
	return nil
}

func (l *animLoader) loadSlot(name string, raw json.RawMessage) error {
	if _, err := l.data.Slot(name); err != nil {
		return err
	}
	res := &SlotTimelines{}
	err := eachField(raw, func(key string, value json.RawMessage) error {
		items, err := decodeKeyframes(value)
		if err != nil {
			return err
		}
		for _, item := range items {
			switch key {
			case "attachment":
				l.duration = max(l.duration, item.Time)
				res.Attachment = append(res.Attachment, &AttachmentKeyframe{Time: item.Time, Name: valueOr(item.Name, "")})
			case "color":
				base, err := l.base(item)
				if err != nil {
					return err
				}
				color, err := parseColor(item.Color)
				if err != nil {
					return err
				}
				res.Color = append(res.Color, &ColorKeyframe{BaseKeyframe: base, Color: color})
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("slot %q: %w", name, err)
	}
	l.anim.Slots[name] = res
	return nil
}

func (l *animLoader) loadFFDSkin(skin string, raw json.RawMessage) error {
	return eachField(raw, func(slot string, raw json.RawMessage) error {
		if _, err := l.data.Slot(slot); err != nil {
			return err
		}
		return eachField(raw, func(attachment string, raw json.RawMessage) error {
			items, err := decodeKeyframes(raw)
			if err != nil {
				return err
			}
			frames := make([]*FFDKeyframe, 0, len(items))
			for _, item := range items {
				base, err := l.base(item)
				if err != nil {
					return err
				}
				if item.Offset < 0 {
					return fmt.Errorf("%w: ffd %s/%s offset %d", ErrInvalidData, slot, attachment, item.Offset)
				}
				frames = append(frames, &FFDKeyframe{BaseKeyframe: base, Offset: item.Offset, Vertices: item.Vertices})
			}
			l.anim.AddFFD(skin, slot, attachment, frames)
			return nil
		})
	})
}

// loadDrawOrder 把每帧的 slot 偏移展开为完整的绘制顺序
func (l *animLoader) loadDrawOrder(raw json.RawMessage) error {
	items, err := decodeKeyframes(raw)
	if err != nil {
		return err
	}
	count := len(l.data.Slots)
	for _, item := range items {
		l.duration = max(l.duration, item.Time)
		frame := &DrawOrderKeyframe{Time: item.Time}
		if len(item.Offsets) > 0 {
			order, err := l.expandDrawOrder(item.Offsets, count)
			if err != nil {
				return err
			}
			frame.Order = order
		}
		l.anim.DrawOrder = append(l.anim.DrawOrder, frame)
	}
	return nil
}

func (l *animLoader) expandDrawOrder(offsets []jsonDrawOffset, count int) ([]int, error) {
	if len(offsets) > count {
		return nil, fmt.Errorf("%w: %d draw order offsets for %d slots", ErrInvalidData, len(offsets), count)
	}
	order := make([]int, count)
	for i := range order {
		order[i] = -1
	}
	unchanged := make([]int, 0, count-len(offsets))
	original := 0
	for _, item := range offsets {
		slot, err := l.data.Slot(item.Slot)
		if err != nil {
			return nil, err
		}
		if slot.Index < original {
			return nil, fmt.Errorf("%w: draw order slot %q out of sequence", ErrInvalidData, item.Slot)
		}
		for original != slot.Index { // 没有变化的 slot 先收集起来
			unchanged = append(unchanged, original)
			original++
		}
		target := original + item.Offset
		if target < 0 || target >= count || order[target] != -1 {
			return nil, fmt.Errorf("%w: draw order offset %d for slot %q", ErrInvalidData, item.Offset, item.Slot)
		}
		order[target] = original
		original++
	}
	for original < count {
		unchanged = append(unchanged, original)
		original++
	}
	for i := count - 1; i >= 0; i-- { // 空位从后往前填入未变化的 slot
		if order[i] == -1 {
			order[i] = unchanged[len(unchanged)-1]
			unchanged = unchanged[:len(unchanged)-1]
		}
	}
	return order, nil
}

func (l *animLoader) loadIK(name string, raw json.RawMessage) error {
	found := false
	for _, ikc := range l.data.IKConstraints {
		found = found || ikc.Name == name
	}
	if !found {
		return fmt.Errorf("%w: ik %q", ErrInvalidData, name)
	}
	items, err := decodeKeyframes(raw)
	if err != nil {
		return err
	}
	frames := make([]*IKKeyframe, 0, len(items))
	for _, item := range items {
		base, err := l.base(item)
		if err != nil {
			return err
		}
		frames = append(frames, &IKKeyframe{
			BaseKeyframe: base,
			Mix:          valueOr(item.Mix, 1),
			BendPositive: valueOr(item.BendPositive, true),
		})
	}
	l.anim.IK[name] = frames
	return nil
}
