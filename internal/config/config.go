// Package config loads engine tuning parameters: arena starting
// capacities, element-storage growth behavior, and the maximum call-stack
// depth agent.Agent enforces. The engine runs fine on Default(); a config
// file only lets an embedder retune it without recompiling.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds the tunable knobs for one Agent's heap and call stack.
type Config struct {
	// Heap controls initial arena capacities (in element count, not bytes).
	// Growth beyond these is always allowed; they only avoid early
	// reallocation for a heap whose rough size is known up front.
	Heap HeapConfig `yaml:"heap"`

	// MaxCallDepth bounds agent.Agent's execution-context stack; exceeding
	// it throws a RangeError rather than growing the Go stack unbounded.
	MaxCallDepth int `yaml:"max_call_depth"`

	// Trace enables step-level execution tracing on the agent.
	Trace bool `yaml:"trace"`
}

// HeapConfig sizes the arenas runtime.NewHeap allocates.
type HeapConfig struct {
	ObjectCapacity      int     `yaml:"object_capacity"`
	ArrayCapacity       int     `yaml:"array_capacity"`
	FunctionCapacity    int     `yaml:"function_capacity"`
	StringCapacity      int     `yaml:"string_capacity"`
	ElementStorageGrowth float64 `yaml:"element_storage_growth"`
}

// Default returns the configuration new Agents use when no file is loaded.
func Default() Config {
	return Config{
		Heap: HeapConfig{
			ObjectCapacity:       256,
			ArrayCapacity:        64,
			FunctionCapacity:     128,
			StringCapacity:       256,
			ElementStorageGrowth: 1.5,
		},
		MaxCallDepth: 4096,
		Trace:        false,
	}
}

// Load reads and parses a YAML config file, filling in Default() for any
// field the file omits.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of Default().
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the heap or call stack
// unusable.
func (c Config) Validate() error {
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("config: max_call_depth must be positive, got %d", c.MaxCallDepth)
	}
	if c.Heap.ElementStorageGrowth <= 1.0 {
		return fmt.Errorf("config: element_storage_growth must exceed 1.0, got %f", c.Heap.ElementStorageGrowth)
	}
	return nil
}
