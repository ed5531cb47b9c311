package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"spine2d/internal/config"
	"spine2d/internal/render"
)

func main() {
	configFile := flag.String("config", "", "Path to viewer.toml")
	skeleton := flag.String("skel", "", "Path to skeleton json")
	atlasFile := flag.String("atlas", "", "Path to atlas file")
	imageDir := flag.String("images", "", "Directory of page images (default: atlas dir)")
	format := flag.String("format", "", "Atlas format: untrimmed or trimmed")
	skin := flag.String("skin", "", "Skin name")
	anim := flag.String("anim", "", "Animation name (default: first)")
	scale := flag.Float64("scale", 0, "Draw scale")
	debug := flag.String("debug", "", "Debug overlay: pose or data")
	logLevel := flag.String("log", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		HandleErr(err)
	}
	cfg.Resolve(config.Flags{
		Skeleton:  *skeleton,
		Atlas:     *atlasFile,
		ImageDir:  *imageDir,
		Format:    *format,
		Skin:      *skin,
		Animation: *anim,
		Scale:     float32(*scale),
		Debug:     *debug,
		LogLevel:  *logLevel,
	})
	HandleErr(cfg.Validate())

	level, err := cfg.SlogLevel()
	HandleErr(err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	render.SetLogger(logger)

	game, err := NewGame(cfg)
	HandleErr(err)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("spine2d")
	HandleErr(ebiten.RunGame(game))
}
