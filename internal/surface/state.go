package surface

import (
	"github.com/go-gl/mathgl/mgl32"
)

type State struct {
	Matrix mgl32.Mat3
	Alpha  float32
	Blend  Blend
	Clip   []Polygon // 设备空间，全部求交
}

// Stack 实现 Surface 中与像素无关的状态管理，供具体实现嵌入
type Stack struct {
	state State
	saved []State
}

func NewStack() Stack {
	res := Stack{}
	res.Reset()
	return res
}

func (s *Stack) Reset() {
	s.state = State{Matrix: mgl32.Ident3(), Alpha: 1}
	s.saved = s.saved[:0]
}

func (s *Stack) State() State {
	return s.state
}

func (s *Stack) Depth() int {
	return len(s.saved)
}

func (s *Stack) Save() {
	s.saved = append(s.saved, s.state)
}

// Restore 栈为空时不做处理
func (s *Stack) Restore() {
	if len(s.saved) == 0 {
		return
	}
	s.state = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
}

func (s *Stack) Transform(m mgl32.Mat3) {
	s.state.Matrix = s.state.Matrix.Mul3(m)
}

func (s *Stack) MulAlpha(alpha float32) {
	s.state.Alpha *= alpha
}

func (s *Stack) SetBlend(blend Blend) {
	s.state.Blend = blend
}

func (s *Stack) Clip(path *Path) {
	device := path.Transform(s.state.Matrix)
	// 复制一份，避免与已保存的状态共享底层数组
	clip := make([]Polygon, len(s.state.Clip), len(s.state.Clip)+len(device.Subpaths))
	copy(clip, s.state.Clip)
	for _, sub := range device.Subpaths {
		clip = append(clip, sub.Points)
	}
	s.state.Clip = clip
}

// Origin 返回用户空间原点在设备空间的位置
func (s *Stack) Origin() mgl32.Vec2 {
	return Apply(s.state.Matrix, mgl32.Vec2{})
}
