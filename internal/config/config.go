// Package config loads strbuf.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"strbuf/internal/trace"
)

// FileName is the configuration file looked up from the working directory upwards.
const FileName = "strbuf.toml"

// Allocator names accepted in [heap].allocator.
const (
	AllocatorGo   = "go"
	AllocatorMmap = "mmap"
)

type Config struct {
	Heap  HeapConfig  `toml:"heap"`
	Trace TraceConfig `toml:"trace"`

	// Path of the file the values came from, empty for defaults.
	Path string `toml:"-"`
}

type HeapConfig struct {
	Chunk     int    `toml:"chunk"`
	MaxLength int    `toml:"max_length"`
	Allocator string `toml:"allocator"`
	MaxBytes  int    `toml:"max_bytes"` // 0 means unlimited
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	RingSize int    `toml:"ring_size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Heap: HeapConfig{
			Chunk:     32,
			MaxLength: 65535,
			Allocator: AllocatorGo,
		},
		Trace: TraceConfig{
			Level:    "off",
			Mode:     "stream",
			Output:   "stderr",
			RingSize: 1024,
		},
	}
}

// Find looks for FileName in startDir and its parents.
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

// Load reads path on top of Default. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("heap", "allocator") && strings.TrimSpace(cfg.Heap.Allocator) == "" {
		return Config{}, fmt.Errorf("%s: [heap].allocator is empty", path)
	}
	cfg.Heap.Allocator = strings.ToLower(strings.TrimSpace(cfg.Heap.Allocator))
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Discover loads the nearest strbuf.toml above startDir, or returns Default
// when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges. Errors name the offending key.
func (c Config) Validate() error {
	switch {
	case c.Heap.Chunk < 1 || c.Heap.Chunk > 65536:
		return fmt.Errorf("[heap].chunk must be in 1..65536, got %d", c.Heap.Chunk)
	case c.Heap.MaxLength < 0 || c.Heap.MaxLength > 65535:
		return fmt.Errorf("[heap].max_length must be in 0..65535, got %d", c.Heap.MaxLength)
	case c.Heap.Allocator != AllocatorGo && c.Heap.Allocator != AllocatorMmap:
		return fmt.Errorf("[heap].allocator must be %q or %q, got %q", AllocatorGo, AllocatorMmap, c.Heap.Allocator)
	case c.Heap.MaxBytes < 0:
		return fmt.Errorf("[heap].max_bytes must not be negative, got %d", c.Heap.MaxBytes)
	case c.Trace.RingSize < 1:
		return fmt.Errorf("[trace].ring_size must be positive, got %d", c.Trace.RingSize)
	}
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		return fmt.Errorf("[trace].level: %w", err)
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		return fmt.Errorf("[trace].mode: %w", err)
	}
	if strings.TrimSpace(c.Trace.Output) == "" {
		return errors.New("[trace].output is empty")
	}
	return nil
}
