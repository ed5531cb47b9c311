package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"spine2d/internal/atlas"
	"spine2d/internal/config"
	"spine2d/internal/imageset"
	"spine2d/internal/render"
	"spine2d/internal/skel"
	"spine2d/internal/surface/ebitensurface"
)

var debugModes = []string{config.DebugOff, config.DebugPose, config.DebugData}

type Game struct {
	// 原始数据
	Atlas *atlas.Data
	Skel  *skel.Data
	// 运行时
	Images   *imageset.Set
	Pose     *skel.Pose
	Surface  *ebitensurface.Surface
	Renderer *render.Renderer
	Pos      mgl32.Vec2 // 调整位置
	Scale    float32
	Debug    string
	// 动画
	AnimIndex int
	AnimKeys  []string

	err error
}

func NewGame(cfg config.Config) (*Game, error) {
	atlasData, err := atlas.ParseFile(cfg.Atlas)
	if err != nil {
		return nil, err
	}
	data, err := skel.LoadFile(cfg.Skeleton)
	if err != nil {
		return nil, err
	}
	res := &Game{
		Atlas:    atlasData,
		Skel:     data,
		Images:   imageset.NewSet(),
		Pose:     skel.NewPose(data),
		Surface:  ebitensurface.New(nil),
		Pos:      mgl32.Vec2{cfg.X, cfg.Y},
		Scale:    cfg.Scale,
		Debug:    cfg.Debug,
		AnimKeys: data.Animations.Keys(),
	}
	res.Renderer = render.New(res.Surface, render.WithAtlasFormat(cfg.Format()))
	if cfg.Skin != "" {
		if err = res.Pose.SetSkin(cfg.Skin); err != nil {
			return nil, err
		}
	}
	if cfg.Animation != "" {
		for i, key := range res.AnimKeys {
			if key == cfg.Animation {
				res.AnimIndex = i
			}
		}
		if err = res.Pose.SetAnim(cfg.Animation); err != nil {
			return nil, err
		}
	} else if len(res.AnimKeys) > 0 {
		if err = res.Pose.SetAnim(res.AnimKeys[0]); err != nil {
			return nil, err
		}
	}
	res.loadImages(cfg)
	res.Renderer.BuildCache(data, atlasData, res.Images.Images())
	return res, nil
}

// loadImages 在后台解码页面图片，未完成的页面在绘制时跳过
func (g *Game) loadImages(cfg config.Config) {
	paths := g.Atlas.PagePaths(cfg.Atlas)
	if cfg.ImageDir != "" {
		for name := range paths {
			paths[name] = filepath.Join(cfg.ImageDir, name)
		}
	}
	g.Images.Start(context.Background(), paths, cfg.Workers)
	go func() {
		if err := g.Images.Wait(); err != nil {
			slog.Error("load images", "err", err)
		}
	}()
}

func (g *Game) switchAnim(step int) {
	if len(g.AnimKeys) == 0 {
		return
	}
	g.AnimIndex = (g.AnimIndex + step + len(g.AnimKeys)) % len(g.AnimKeys)
	if err := g.Pose.SetAnim(g.AnimKeys[g.AnimIndex]); err != nil {
		g.err = err
	}
}

func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	// 按键控制
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		g.Pos[1]--
	} else if ebiten.IsKeyPressed(ebiten.KeyS) {
		g.Pos[1]++
	} else if ebiten.IsKeyPressed(ebiten.KeyA) {
		g.Pos[0]--
	} else if ebiten.IsKeyPressed(ebiten.KeyD) {
		g.Pos[0]++
	} else if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		slog.Info("position", "x", g.Pos.X(), "y", g.Pos.Y())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyJ) {
		g.switchAnim(-1)
	} else if inpututil.IsKeyJustPressed(ebiten.KeyK) {
		g.switchAnim(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		for i, mode := range debugModes {
			if mode == g.Debug {
				g.Debug = debugModes[(i+1)%len(debugModes)]
				break
			}
		}
	}
	// 骨骼空间 y 轴向上，屏幕 y 轴向下
	g.Pose.Root = skel.Affine{Mat: skel.Scale(mgl32.Vec2{g.Scale, -g.Scale}), Pos: g.Pos}
	g.Pose.Advance(1 / float32(ebiten.TPS()))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.Surface.Reset(screen)
	var err error
	switch g.Debug {
	case config.DebugPose:
		err = g.Renderer.DrawDebugPose(g.Pose, g.Atlas)
	case config.DebugData:
		err = g.Renderer.DrawDebugData(g.Pose, g.Atlas)
	default:
		err = g.Renderer.DrawPose(g.Pose, g.Atlas)
	}
	if err != nil && g.err == nil {
		g.err = err // Draw 不能返回错误，交给下一次 Update
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s [%s]", g.Pose.AnimKey, g.Pose.SkinKey))
}

func (g *Game) Layout(w, h int) (int, int) {
	return w, h
}
