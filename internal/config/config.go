// Package config loads .flowdex/config.yaml with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/morozRed/flowdex/internal/extract"
	"github.com/morozRed/flowdex/internal/graph"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLOWDEX_"

type Config struct {
	LineLimit         int    `yaml:"line_limit"`
	StrictMode        bool   `yaml:"strict_mode"`
	AutoIndex         bool   `yaml:"auto_index"`
	TestFramework     string `yaml:"test_framework"`
	MaxLoopIterations int    `yaml:"max_loop_iterations"`

	Index IndexConfig `yaml:"index"`
	Query QueryConfig `yaml:"query"`
}

type IndexConfig struct {
	Extensions        []string `yaml:"extensions"`
	Include           []string `yaml:"include"`
	Exclude           []string `yaml:"exclude"`
	Workers           int      `yaml:"workers"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	EntryFiles        []string `yaml:"entry_files"`
	EntryDirs         []string `yaml:"entry_dirs"`
	EntryNames        []string `yaml:"entry_names"`
	EntryNameContains []string `yaml:"entry_name_contains"`
}

type QueryConfig struct {
	Depth       int `yaml:"depth"`
	MaxNodes    int `yaml:"max_nodes"`
	MaxEdges    int `yaml:"max_edges"`
	SymbolLimit int `yaml:"symbol_limit"`
}

func Default() *Config {
	rules := graph.DefaultEntryRules()
	return &Config{
		LineLimit:         500,
		StrictMode:        true,
		AutoIndex:         true,
		TestFramework:     "auto",
		MaxLoopIterations: 10,
		Index: IndexConfig{
			Extensions:        append([]string(nil), extract.CodeExtensions...),
			Include:           []string{},
			Exclude:           []string{},
			Workers:           runtime.NumCPU(),
			MaxFileSize:       1 << 20,
			EntryFiles:        rules.Files,
			EntryDirs:         rules.Dirs,
			EntryNames:        rules.Names,
			EntryNameContains: rules.NameContains,
		},
		Query: QueryConfig{
			Depth:       2,
			MaxNodes:    100,
			MaxEdges:    200,
			SymbolLimit: 50,
		},
	}
}

// Parse decodes a config document over the defaults and applies FLOWDEX_*
// overrides from the process environment. Empty input yields the defaults.
func Parse(data []byte) (*Config, error) {
	return parse(data, os.LookupEnv)
}

func parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// Encode renders cfg as a config document.
func Encode(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// LoadDotEnv loads root/.env into the process environment. Variables that
// are already set win.
func LoadDotEnv(root string) error {
	err := godotenv.Load(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// EntryRules returns the entry-point conventions configured for indexing.
func (c *Config) EntryRules() graph.EntryRules {
	return graph.EntryRules{
		Files:        c.Index.EntryFiles,
		Dirs:         c.Index.EntryDirs,
		Names:        c.Index.EntryNames,
		NameContains: c.Index.EntryNameContains,
	}
}

func (c *Config) normalize() {
	defaults := Default()
	if c.Index.Workers <= 0 {
		c.Index.Workers = defaults.Index.Workers
	}
	if c.Index.MaxFileSize <= 0 {
		c.Index.MaxFileSize = defaults.Index.MaxFileSize
	}
	if len(c.Index.Extensions) == 0 {
		c.Index.Extensions = defaults.Index.Extensions
	}
	for i, ext := range c.Index.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Index.Extensions[i] = ext
	}
	if c.Query.Depth < 0 {
		c.Query.Depth = defaults.Query.Depth
	}
	if c.Query.MaxNodes <= 0 {
		c.Query.MaxNodes = defaults.Query.MaxNodes
	}
	if c.Query.MaxEdges <= 0 {
		c.Query.MaxEdges = defaults.Query.MaxEdges
	}
	if c.Query.SymbolLimit < 0 {
		c.Query.SymbolLimit = defaults.Query.SymbolLimit
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"LINE_LIMIT":   &cfg.LineLimit,
		"WORKERS":      &cfg.Index.Workers,
		"QUERY_DEPTH":  &cfg.Query.Depth,
		"MAX_NODES":    &cfg.Query.MaxNodes,
		"MAX_EDGES":    &cfg.Query.MaxEdges,
		"SYMBOL_LIMIT": &cfg.Query.SymbolLimit,
	}
	for name, dst := range ints {
		raw, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}

	if raw, ok := lookup(EnvPrefix + "MAX_FILE_SIZE"); ok && strings.TrimSpace(raw) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_FILE_SIZE: %w", EnvPrefix, err)
		}
		cfg.Index.MaxFileSize = n
	}

	bools := map[string]*bool{
		"STRICT_MODE": &cfg.StrictMode,
		"AUTO_INDEX":  &cfg.AutoIndex,
	}
	for name, dst := range bools {
		raw, ok := lookup(EnvPrefix + name)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
	}

	if raw, ok := lookup(EnvPrefix + "TEST_FRAMEWORK"); ok && strings.TrimSpace(raw) != "" {
		cfg.TestFramework = strings.TrimSpace(raw)
	}
	if raw, ok := lookup(EnvPrefix + "EXTENSIONS"); ok && strings.TrimSpace(raw) != "" {
		cfg.Index.Extensions = splitList(raw)
	}
	if raw, ok := lookup(EnvPrefix + "EXCLUDE"); ok && strings.TrimSpace(raw) != "" {
		cfg.Index.Exclude = append(cfg.Index.Exclude, splitList(raw)...)
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
