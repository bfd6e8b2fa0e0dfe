package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/msalah0e/lombard/internal/force"
	"github.com/msalah0e/lombard/internal/layout"
)

// Config holds lombard configuration.
type Config struct {
	Canvas  CanvasConfig  `toml:"canvas"`
	Render  RenderConfig  `toml:"render"`
	Solver  SolverConfig  `toml:"solver"`
	Layout  LayoutConfig  `toml:"layout"`
	Log     LogConfig     `toml:"log"`
	Gallery GalleryConfig `toml:"gallery"`
}

// CanvasConfig sets the drawing area.
type CanvasConfig struct {
	Width  float64 `toml:"width" validate:"gt=0"`
	Height float64 `toml:"height" validate:"gt=0"`
}

// RenderConfig controls drawing.
type RenderConfig struct {
	Curvature float64 `toml:"curvature" validate:"gte=0"`
	ShowDates bool    `toml:"show_dates"`
	TitleCard bool    `toml:"title_card"`
}

// SolverConfig tunes the force simulation.
type SolverConfig struct {
	AlphaMin      float64 `toml:"alpha_min" validate:"gt=0,lt=1"`
	AlphaDecay    float64 `toml:"alpha_decay" validate:"gt=0,lt=1"`
	VelocityDecay float64 `toml:"velocity_decay" validate:"gt=0,lt=1"`
	MaxTicks      int     `toml:"max_ticks" validate:"gt=0"`
	FrameMS       int     `toml:"frame_ms" validate:"gt=0"`
}

// Options converts the solver settings for force.New.
func (s SolverConfig) Options() force.Options {
	return force.Options{AlphaMin: s.AlphaMin, AlphaDecay: s.AlphaDecay, VelocityDecay: s.VelocityDecay}
}

// LayoutConfig picks the layout used when none is given.
type LayoutConfig struct {
	Default string `toml:"default" validate:"required,layout"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
}

// GalleryConfig controls parallel gallery rendering.
type GalleryConfig struct {
	Concurrency int `toml:"concurrency" validate:"gte=1"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{Width: 960, Height: 640},
		Render: RenderConfig{Curvature: 1.0, ShowDates: false, TitleCard: true},
		Solver: SolverConfig{
			AlphaMin:      force.DefaultAlphaMin,
			AlphaDecay:    force.DefaultAlphaDecay,
			VelocityDecay: force.DefaultVelocityDecay,
			MaxTicks:      600,
			FrameMS:       16,
		},
		Layout:  LayoutConfig{Default: string(layout.Force)},
		Log:     LogConfig{Level: "warn"},
		Gallery: GalleryConfig{Concurrency: 4},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("layout", func(fl validator.FieldLevel) bool {
		_, err := layout.Lookup(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks every field against its allowed range.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s: %v fails %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Value(), fe.Tag())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ConfigDir returns the lombard config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "lombard")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the default config file. A missing or broken file yields the
// defaults.
func Load() *Config {
	cfg, err := LoadFrom(Path())
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFrom reads the config at path over the defaults and validates it.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg *Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
