package render

import (
	"image/color"
	"iter"

	"github.com/go-gl/mathgl/mgl32"

	"spine2d/internal/atlas"
	"spine2d/internal/skel"
	"spine2d/internal/surface"
)

var (
	meshStroke = color.NRGBA{R: 127, G: 127, B: 127, A: 255}
	meshFill   = color.NRGBA{R: 127, G: 127, B: 127, A: 64}
	boxStroke  = color.NRGBA{G: 255, B: 255, A: 255}
	boneStroke = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	ikStroke   = color.NRGBA{R: 255, G: 255, A: 255}
	axisX      = color.NRGBA{R: 255, A: 255}
	axisY      = color.NRGBA{G: 128, A: 255}
	pointColor = color.NRGBA{B: 255, A: 255}
)

// circleRadius 是比例为 1 时标记圆的半径
const circleRadius = 12

func (r *Renderer) drawDebug(items iter.Seq[skel.SlotAttachment], skeleton skel.Skeleton, skin string,
	data *skel.Data, setup bool, atlasData *atlas.Data) error {
	for item := range items {
		if item.Attachment == nil {
			continue
		}
		if err := r.drawDebugAttachment(item, skin, setup, atlasData); err != nil {
			return err
		}
	}
	for _, bone := range data.Bones {
		r.drawBone(bone, skeleton.World(bone.Index))
	}
	for _, ikc := range data.IKConstraints {
		r.drawIK(ikc, skeleton)
	}
	return nil
}

func (r *Renderer) drawDebugAttachment(item skel.SlotAttachment, skin string, setup bool, atlasData *atlas.Data) error {
	s := r.surface
	site := atlasData.Site(siteName(item))
	attachment := item.Attachment
	switch attachment.Kind {
	case skel.AttachmentRegion:
		s.Save()
		s.Transform(item.BoneWorld.Mat3())
		s.Transform(attachment.Local.Affine().Mat3())
		r.sitePosition(site)
		path := &surface.Path{}
		path.Rect(-attachment.Width/2, -attachment.Height/2, attachment.Width, attachment.Height)
		s.Fill(path, meshFill)
		s.Stroke(path, meshStroke)
		s.Restore()
	case skel.AttachmentBoundingBox:
		s.Save()
		s.Transform(item.BoneWorld.Mat3())
		path := &surface.Path{}
		for i := 0; i+1 < len(attachment.Vertices); i += 2 {
			path.LineTo(attachment.Vertices[i], attachment.Vertices[i+1])
		}
		path.Close()
		s.Stroke(path, boxStroke)
		s.Restore()
	case skel.AttachmentMesh, skel.AttachmentWeightedMesh:
		info, err := r.cache.lookup(skin, item.Slot.Name, item.Key)
		if err != nil {
			return err
		}
		positions := info.Position
		if setup {
			positions = info.Setup
		}
		s.Save()
		if attachment.Kind == skel.AttachmentMesh {
			s.Transform(item.BoneWorld.Mat3())
		}
		r.sitePosition(site)
		drawMesh(s, info.Triangles, positions, meshStroke, meshFill)
		s.Restore()
	}
	return nil
}

// drawMesh 绘制三角形线框，fill 为 nil 时不填充
func drawMesh(s surface.Surface, triangles []uint16, positions []float32, stroke, fill color.Color) {
	path := &surface.Path{}
	for i := 0; i+2 < len(triangles); i += 3 {
		p0 := vertexAt(positions, triangles[i])
		p1 := vertexAt(positions, triangles[i+1])
		p2 := vertexAt(positions, triangles[i+2])
		path.MoveTo(p0.X(), p0.Y())
		path.LineTo(p1.X(), p1.Y())
		path.LineTo(p2.X(), p2.Y())
		path.Close()
	}
	if fill != nil {
		s.Fill(path, fill)
	}
	s.Stroke(path, stroke)
}

func (r *Renderer) drawBone(bone *skel.Bone, world skel.Affine) {
	s := r.surface
	s.Save()
	defer s.Restore()
	s.Transform(world.Mat3())
	l := bone.Length
	path := &surface.Path{}
	path.MoveTo(0, 0)
	path.LineTo(0.1*l, -0.1*l)
	path.LineTo(l, 0)
	path.LineTo(0.1*l, 0.1*l)
	path.Close()
	s.Stroke(path, boneStroke)
	drawPoint(s, pointColor, 1)
	// 骨骼空间 y 轴向上，文字需要翻回来
	s.Transform(mgl32.Scale2D(1, -1))
	s.FillText(bone.Name, boneStroke)
}

func drawCircle(s surface.Surface, c color.Color, scale float32) {
	path := &surface.Path{}
	path.Circle(0, 0, circleRadius*scale)
	s.Stroke(path, c)
}

// drawPoint 圆圈加上 x y 两个坐标轴
func drawPoint(s surface.Surface, c color.Color, scale float32) {
	drawCircle(s, c, scale)
	axis := &surface.Path{}
	axis.MoveTo(0, 0)
	axis.LineTo(2*circleRadius*scale, 0)
	s.Stroke(axis, axisX)
	axis = &surface.Path{}
	axis.MoveTo(0, 0)
	axis.LineTo(0, 2*circleRadius*scale)
	s.Stroke(axis, axisY)
}

func (r *Renderer) drawCircleAt(world skel.Affine, offset, scale float32) {
	s := r.surface
	s.Save()
	s.Transform(world.Mat3())
	if offset != 0 {
		s.Transform(mgl32.Translate2D(offset, 0))
	}
	drawCircle(s, ikStroke, scale)
	s.Restore()
}

func (r *Renderer) drawIK(ikc *skel.IKConstraint, skeleton skel.Skeleton) {
	target := skeleton.World(ikc.Target.Index)
	path := &surface.Path{}
	path.MoveTo(target.Pos.X(), target.Pos.Y())
	switch len(ikc.Bones) {
	case 1:
		bone := ikc.Bones[0]
		world := skeleton.World(bone.Index)
		path.LineTo(world.Pos.X(), world.Pos.Y())
		r.surface.Stroke(path, ikStroke)
		r.drawCircleAt(target, 0, 1.5)
		r.drawCircleAt(world, 0, 0.5)
		r.drawCircleAt(world, bone.Length, 1.5)
	case 2:
		parent, child := ikc.Bones[0], ikc.Bones[1]
		parentWorld, childWorld := skeleton.World(parent.Index), skeleton.World(child.Index)
		path.LineTo(childWorld.Pos.X(), childWorld.Pos.Y())
		path.LineTo(parentWorld.Pos.X(), parentWorld.Pos.Y())
		r.surface.Stroke(path, ikStroke)
		r.drawCircleAt(target, 0, 1.5)
		r.drawCircleAt(childWorld, 0, 0.75)
		r.drawCircleAt(childWorld, child.Length, 1.5)
		r.drawCircleAt(parentWorld, 0, 0.5)
	}
}
