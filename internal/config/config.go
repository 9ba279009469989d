package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kamusis/adr-cli/internal/vecstore"
)

// FileName is the project configuration file, looked up in the project root.
const FileName = "adr.yaml"

// Retrieval holds the related-document tuning knobs.
type Retrieval struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"`
}

// Config is the in-memory representation of adr.yaml.
type Config struct {
	// Root is the project directory relative paths are resolved against.
	Root string `yaml:"-"`

	IndexPath    string    `yaml:"index_path"`
	Corpus       []string  `yaml:"corpus"`
	TemplatePath string    `yaml:"template_path"`
	ADRDir       string    `yaml:"adr_dir"`
	Retrieval    Retrieval `yaml:"retrieval"`
	Normalize    bool      `yaml:"normalize,omitempty"`
	MetricsFile  string    `yaml:"metrics_file,omitempty"`
}

// DefaultConfig returns the configuration used when adr.yaml is absent.
func DefaultConfig() *Config {
	return &Config{
		IndexPath: filepath.Join("data", "index.json"),
		Corpus: []string{
			"adr/**/*.md",
			"docs/**/*.md",
			"kb/**/*.md",
		},
		TemplatePath: filepath.Join("templates", "madr.md"),
		ADRDir:       "adr",
		Retrieval: Retrieval{
			TopK:     5,
			MinScore: 0.2,
		},
	}
}

// ConfigPath returns the absolute path to root/adr.yaml.
func ConfigPath(root string) string {
	return filepath.Join(root, FileName)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// Load reads root/adr.yaml on top of the defaults. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Root = root

	path := ConfigPath(root)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save marshals cfg and writes it to root/adr.yaml.
func Save(cfg *Config) error {
	path := ConfigPath(cfg.Root)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

// Validate reports settings no command can work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.IndexPath) == "" {
		return fmt.Errorf("%w: index_path is empty", vecstore.ErrConfiguration)
	}
	if len(c.Corpus) == 0 {
		return fmt.Errorf("%w: corpus has no patterns", vecstore.ErrConfiguration)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive, got %d", vecstore.ErrConfiguration, c.Retrieval.TopK)
	}
	if c.Retrieval.MinScore < -1 || c.Retrieval.MinScore > 1 {
		return fmt.Errorf("%w: retrieval.min_score must be within [-1, 1], got %g", vecstore.ErrConfiguration, c.Retrieval.MinScore)
	}
	return nil
}

// Resolve returns p as an absolute-or-root-relative path: ~ is expanded and
// relative paths are joined to the project root.
func (c *Config) Resolve(p string) string {
	if p == "" {
		return ""
	}
	if exp, err := ExpandPath(p); err == nil {
		p = exp
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}
