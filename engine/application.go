package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/rendergraph/engine/core"
)

const (
	defaultWidth   uint32 = 1280
	defaultHeight  uint32 = 720
	defaultCamera         = "main"
	defaultWorkers        = 4
)

type ApplicationConfig struct {
	// The application name, used in log lines.
	Name string `toml:"name"`
	// Framebuffer width.
	Width uint32 `toml:"width"`
	// Framebuffer height.
	Height uint32 `toml:"height"`
	// Path of the pipeline document, TOML or YAML.
	Pipeline string `toml:"pipeline"`
	// Directory relative texture paths are resolved against.
	AssetsDir string `toml:"assets_dir"`
	LogLevel  string `toml:"log_level"`
	// Reload the pipeline when its document changes on disk.
	Watch bool `toml:"watch"`
	// Stop after this many frames, 0 runs until cancelled.
	MaxFrames uint64 `toml:"max_frames"`
	// Number of workers used to load assets.
	Workers int `toml:"workers"`
	// Where the last frame is written, if set.
	Output string `toml:"output"`
	// The camera tag culling is done for.
	Camera string `toml:"camera"`
}

// LoadApplicationConfig reads a TOML config file. Relative paths inside it are
// resolved against the directory of the file.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &ApplicationConfig{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.Pipeline = resolvePath(base, cfg.Pipeline)
	cfg.AssetsDir = resolvePath(base, cfg.AssetsDir)
	cfg.Output = resolvePath(base, cfg.Output)

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// SetDefaults fills every unset field.
func (c *ApplicationConfig) SetDefaults() {
	if c.Name == "" {
		c.Name = "rendergraph"
	}
	if c.Width == 0 {
		c.Width = defaultWidth
	}
	if c.Height == 0 {
		c.Height = defaultHeight
	}
	if c.Camera == "" {
		c.Camera = defaultCamera
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.AssetsDir == "" && c.Pipeline != "" {
		c.AssetsDir = filepath.Dir(c.Pipeline)
	}
}

func (c *ApplicationConfig) Validate() error {
	if c.Pipeline == "" {
		return fmt.Errorf("config: pipeline: %w", core.ErrMissingConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
