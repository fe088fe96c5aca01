package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/pinboard/pkg/workspace"
)

const (
	// ConfigFile is the name of the optional config file inside the system directory.
	ConfigFile = "config.yaml"

	EnvDir          = "PINBOARD_DIR"
	EnvHistoryLimit = "PINBOARD_HISTORY_LIMIT"
)

// Config is the on-disk workspace configuration. Zero fields keep the defaults.
type Config struct {
	HistoryLimit       int      `yaml:"historyLimit"`
	Debounce           string   `yaml:"debounce"`
	Throttle           string   `yaml:"throttle"`
	GridSize           int      `yaml:"gridSize"`
	MaxBackgroundBytes int      `yaml:"maxBackgroundBytes"`
	Viewport           Viewport `yaml:"viewport"`
	PersistHistory     *bool    `yaml:"persistHistory"`
}

// Viewport is the drag area in pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LoadConfig reads {dir}/{systemDir}/config.yaml. A missing file yields an empty Config.
func LoadConfig(dir, systemDir string) (Config, error) {
	var cfg Config
	path := filepath.Join(dir, systemDir, ConfigFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Env returns the pinboard environment: variables from an optional .env file in
// dir, overridden by the process environment.
func Env(dir string) map[string]string {
	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil {
		env = map[string]string{}
	}
	for _, key := range []string{EnvDir, EnvHistoryLimit} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env
}

// ResolveDir picks the workspace directory: the explicit value when set,
// otherwise PINBOARD_DIR, otherwise the current directory.
func ResolveDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if dir := Env(".")[EnvDir]; dir != "" {
		return dir
	}
	return "."
}

// applyEnv overlays environment overrides on cfg.
func (c *Config) applyEnv(env map[string]string) error {
	if v := env[EnvHistoryLimit]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer, got %q", EnvHistoryLimit, v)
		}
		c.HistoryLimit = n
	}
	return nil
}

// sessionOptions converts the config into session options.
func (c Config) sessionOptions() ([]workspace.Option, error) {
	var opts []workspace.Option
	if c.HistoryLimit > 0 {
		opts = append(opts, workspace.WithHistoryLimit(c.HistoryLimit))
	}
	if c.GridSize > 0 {
		opts = append(opts, workspace.WithGridSize(c.GridSize))
	}
	if c.MaxBackgroundBytes > 0 {
		opts = append(opts, workspace.WithMaxBackgroundBytes(c.MaxBackgroundBytes))
	}
	if c.Viewport.Width > 0 || c.Viewport.Height > 0 {
		opts = append(opts, workspace.WithViewport(c.Viewport.Width, c.Viewport.Height))
	}
	if c.PersistHistory != nil {
		opts = append(opts, workspace.WithPersistentHistory(*c.PersistHistory))
	}

	for _, d := range []struct {
		name string
		raw  string
		opt  func(time.Duration) workspace.Option
	}{
		{"debounce", c.Debounce, workspace.WithDebounce},
		{"throttle", c.Throttle, workspace.WithThrottle},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("config %s: invalid duration %q", d.name, d.raw)
		}
		opts = append(opts, d.opt(v))
	}
	return opts, nil
}
