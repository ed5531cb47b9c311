package skel

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// applyIK 修改约束链上骨骼的局部旋转，调用方负责重新计算世界变换
func (p *Pose) applyIK(ikc *IKConstraint, mix float32, bendPositive bool) {
	if mix == 0 || ikc.Target == nil {
		return
	}
	target := p.Bones[ikc.Target.Index].World.Pos
	switch len(ikc.Bones) {
	case 1:
		p.applyIK1(p.Bones[ikc.Bones[0].Index], target, mix)
	case 2:
		bend := float32(1)
		if !bendPositive {
			bend = -1
		}
		p.applyIK2(p.Bones[ikc.Bones[0].Index], p.Bones[ikc.Bones[1].Index], target, bend, mix)
	}
}

// parentSpace 把世界坐标转换到骨骼父节点的坐标系
func (p *Pose) parentSpace(bone *PoseBone, world mgl32.Vec2) mgl32.Vec2 {
	parent := p.Root
	if bone.Bone.Parent != nil {
		parent = p.Bones[bone.Bone.Parent.Index].World
	}
	return parent.Inv().Transform(world)
}

func (p *Pose) applyIK1(bone *PoseBone, target mgl32.Vec2, mix float32) {
	local := p.parentSpace(bone, target).Sub(bone.Local.Position)
	rotation := math32.Atan2(local.Y(), local.X())
	bone.Local.Rotation = LerpRotation(bone.Local.Rotation, rotation, mix)
}

// applyIK2 两骨骼 IK 使用余弦定理求解两个关节角
func (p *Pose) applyIK2(parent, child *PoseBone, target mgl32.Vec2, bend, mix float32) {
	local := p.parentSpace(parent, target).Sub(parent.Local.Position)
	childPos := Vec2Mul(child.Local.Position, parent.Local.Scale)
	l1 := childPos.Len()
	l2 := child.Bone.Length * child.Local.Scale.X() * parent.Local.Scale.X()
	if l1 == 0 || l2 == 0 {
		p.applyIK1(parent, target, mix)
		return
	}
	dd := local.Dot(local)
	cos := mgl32.Clamp((dd-l1*l1-l2*l2)/(2*l1*l2), -1, 1)
	a2 := math32.Acos(cos) * bend
	a1 := math32.Atan2(local.Y(), local.X()) - math32.Atan2(l2*math32.Sin(a2), l1+l2*math32.Cos(a2))
	offset := math32.Atan2(childPos.Y(), childPos.X()) // 子骨骼相对父骨骼方向的夹角
	parent.Local.Rotation = LerpRotation(parent.Local.Rotation, a1-offset, mix)
	child.Local.Rotation = LerpRotation(child.Local.Rotation, a2+offset, mix)
}
