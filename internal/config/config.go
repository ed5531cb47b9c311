// Package config 读取查看器的 TOML 配置，命令行参数优先
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"spine2d/internal/atlas"
)

// Debug 模式
const (
	DebugOff  = ""
	DebugPose = "pose"
	DebugData = "data"
)

type Config struct {
	// 资源路径
	Skeleton string `toml:"skeleton"`
	Atlas    string `toml:"atlas"`
	ImageDir string `toml:"image_dir"` // 为空时使用 atlas 所在目录
	// 渲染
	AtlasFormat string  `toml:"atlas_format"`
	Skin        string  `toml:"skin"`
	Animation   string  `toml:"animation"`
	Width       int     `toml:"width"`
	Height      int     `toml:"height"`
	X           float32 `toml:"x"`
	Y           float32 `toml:"y"`
	Scale       float32 `toml:"scale"`
	Debug       string  `toml:"debug"`
	// 其他
	LogLevel string `toml:"log_level"`
	Workers  int    `toml:"workers"` // 并发解码图片的数量
}

// Flags 中非零值覆盖配置文件
type Flags struct {
	Skeleton  string
	Atlas     string
	ImageDir  string
	Format    string
	Skin      string
	Animation string
	Scale     float32
	Debug     string
	LogLevel  string
}

func Default() Config {
	return Config{
		AtlasFormat: atlas.FormatUntrimmed.String(),
		Width:       1280,
		Height:      720,
		X:           640,
		Y:           600,
		Scale:       1,
		LogLevel:    "info",
		Workers:     runtime.NumCPU(),
	}
}

// Load 在默认值之上读取配置文件，未知字段视为错误
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Resolve(flags Flags) {
	if flags.Skeleton != "" {
		c.Skeleton = flags.Skeleton
	}
	if flags.Atlas != "" {
		c.Atlas = flags.Atlas
	}
	if flags.ImageDir != "" {
		c.ImageDir = flags.ImageDir
	}
	if flags.Format != "" {
		c.AtlasFormat = flags.Format
	}
	if flags.Skin != "" {
		c.Skin = flags.Skin
	}
	if flags.Animation != "" {
		c.Animation = flags.Animation
	}
	if flags.Scale > 0 {
		c.Scale = flags.Scale
	}
	if flags.Debug != "" {
		c.Debug = flags.Debug
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	// 配置文件里写成 0 的字段回到默认值
	def := Default()
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.Scale <= 0 {
		c.Scale = def.Scale
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
}

func (c *Config) Validate() error {
	if c.Skeleton == "" {
		return fmt.Errorf("config: skeleton path is required")
	}
	if c.Atlas == "" {
		return fmt.Errorf("config: atlas path is required")
	}
	if _, err := atlas.ParseFormat(c.AtlasFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Debug {
	case DebugOff, DebugPose, DebugData:
	default:
		return fmt.Errorf("config: unknown debug mode %q", c.Debug)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Format() atlas.Format {
	format, _ := atlas.ParseFormat(c.AtlasFormat)
	return format
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
