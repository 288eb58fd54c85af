package project

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"ownlab/internal/trace"
)

// Manifest is a loaded ownlab.toml together with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the sections of ownlab.toml.
type Config struct {
	Run     RunConfig     `toml:"run"`
	Trace   TraceConfig   `toml:"trace"`
	Lessons LessonsConfig `toml:"lessons"`
}

type RunConfig struct {
	Color          string `toml:"color"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	UI             string `toml:"ui"`
	Entry          string `toml:"entry"`
	MaxDepth       int    `toml:"max_depth"`
	// Record is a directory where every run leaves a replay recording.
	Record string `toml:"record"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
	Format string `toml:"format"`
}

type LessonsConfig struct {
	// Dir holds extra *.own lessons, relative to the manifest.
	Dir string `toml:"dir"`
}

// Default returns the configuration used when no manifest exists.
func Default() Config {
	return Config{
		Run: RunConfig{
			Color:          "auto",
			MaxDiagnostics: 100,
			UI:             "off",
			Entry:          "main",
			MaxDepth:       256,
		},
		Trace: TraceConfig{
			Level:  "off",
			Format: "auto",
		},
	}
}

var (
	colorModes   = []string{"auto", "on", "off"}
	uiModes      = []string{"auto", "on", "off"}
	traceFormats = []string{"auto", "text", "ndjson"}
)

// Load finds and parses ownlab.toml above startDir. ok is false when there
// is no manifest, in which case the returned Manifest carries defaults.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &Manifest{Config: Default()}, false, nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadFile parses the manifest at path over the defaults and validates it.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated values and limits.
func (c *Config) Validate() error {
	if err := oneOf("[run].color", c.Run.Color, colorModes); err != nil {
		return err
	}
	if err := oneOf("[run].ui", c.Run.UI, uiModes); err != nil {
		return err
	}
	if c.Run.MaxDiagnostics < 0 {
		return fmt.Errorf("[run].max_diagnostics must be >= 0, got %d", c.Run.MaxDiagnostics)
	}
	if c.Run.MaxDepth < 0 {
		return fmt.Errorf("[run].max_depth must be >= 0, got %d", c.Run.MaxDepth)
	}
	if strings.TrimSpace(c.Run.Entry) == "" {
		return fmt.Errorf("[run].entry must not be empty")
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	return oneOf("[trace].format", c.Trace.Format, traceFormats)
}

func oneOf(key, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, "|"), value)
}

// LessonsDir resolves [lessons].dir against the manifest root.
// It returns "" when no directory is configured.
func (m *Manifest) LessonsDir() string {
	dir := strings.TrimSpace(m.Config.Lessons.Dir)
	if dir == "" {
		return ""
	}
	if filepath.IsAbs(dir) || m.Root == "" {
		return dir
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}

// RecordDir resolves [run].record against the manifest root.
func (m *Manifest) RecordDir() string {
	dir := strings.TrimSpace(m.Config.Run.Record)
	if dir == "" || filepath.IsAbs(dir) || m.Root == "" {
		return dir
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}
