// Package config loads .rgr.toml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"rgr/internal/trace"
)

// FileName is the config file looked up from the working directory upwards.
const FileName = ".rgr.toml"

// Environment variables that override the file.
const (
	EnvConfig     = "RGR_CONFIG"
	EnvTrace      = "RGR_TRACE"
	EnvTraceLevel = "RGR_TRACE_LEVEL"
)

// Config is the merged configuration of one run.
type Config struct {
	Path    string        `toml:"-"` // file it came from; empty for defaults
	Search  SearchConfig  `toml:"search"`
	Review  ReviewConfig  `toml:"review"`
	Trace   TraceConfig   `toml:"trace"`
	Journal JournalConfig `toml:"journal"`
	Profile ProfileConfig `toml:"profile"`
}

type SearchConfig struct {
	Binary  string `toml:"binary"`
	Context int    `toml:"context"`
}

type ReviewConfig struct {
	UI      string   `toml:"ui"`    // auto|on|off
	Color   string   `toml:"color"` // auto|on|off
	Protect []string `toml:"protect"`
}

type TraceConfig struct {
	Output    string        `toml:"output"`
	Level     string        `toml:"level"`
	Mode      string        `toml:"mode"`
	Format    string        `toml:"format"`
	RingSize  int           `toml:"ring_size"`
	Heartbeat time.Duration `toml:"heartbeat"`
	Timings   bool          `toml:"timings"`
}

type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // empty means the XDG cache directory
}

// ProfileConfig names Go runtime profile outputs; empty means off.
type ProfileConfig struct {
	CPU   string `toml:"cpu"`
	Mem   string `toml:"mem"`
	Trace string `toml:"runtime_trace"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Search:  SearchConfig{Binary: "rg", Context: 3},
		Review:  ReviewConfig{UI: "auto", Color: "auto"},
		Trace:   TraceConfig{Level: "off", Mode: "stream", Format: "auto", RingSize: 4096},
		Journal: JournalConfig{Enabled: true},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load resolves the config for a run started in startDir. getenv is
// usually os.Getenv.
func Load(startDir string, getenv func(string) string) (Config, error) {
	cfg := Default()
	path := strings.TrimSpace(getenv(EnvConfig))
	if path == "" {
		found, ok, err := Find(startDir)
		if err != nil {
			return cfg, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, err
		}
		cfg.Path = path
	}

	if out := strings.TrimSpace(getenv(EnvTrace)); out != "" {
		cfg.Trace.Output = out
		if cfg.Trace.Level == "off" {
			cfg.Trace.Level = "stage"
		}
	}
	if level := strings.TrimSpace(getenv(EnvTraceLevel)); level != "" {
		cfg.Trace.Level = level
	}
	if err := cfg.validate(); err != nil {
		if cfg.Path != "" {
			return cfg, fmt.Errorf("%s: %w", cfg.Path, err)
		}
		return cfg, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("search", "binary") && strings.TrimSpace(cfg.Search.Binary) == "" {
		return fmt.Errorf("%s: [search].binary must not be empty", path)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Search.Context < 0 {
		return fmt.Errorf("[search].context must be >= 0, got %d", c.Search.Context)
	}
	if err := checkSwitch("[review].ui", c.Review.UI); err != nil {
		return err
	}
	if err := checkSwitch("[review].color", c.Review.Color); err != nil {
		return err
	}
	for _, p := range c.Review.Protect {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("[review].protect: invalid pattern %q", p)
		}
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return err
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return err
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		return err
	}
	if c.Trace.Heartbeat < 0 {
		return fmt.Errorf("[trace].heartbeat must not be negative")
	}
	return nil
}

func checkSwitch(name, value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto", "on", "off":
		return nil
	default:
		return fmt.Errorf("invalid %s value %q (expected auto|on|off)", name, value)
	}
}

// TracerConfig converts the [trace] section for trace.New.
func (c Config) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
		Heartbeat:  c.Trace.Heartbeat,
	}, nil
}
