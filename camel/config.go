package camel

import (
	"fmt"
	"os"

	"github.com/hesusruiz/vcutils/yaml"
	"go.uber.org/zap"
)

// Policies for a label declared more than once.
const (
	DuplicateLabelsError     = "error"
	DuplicateLabelsOverwrite = "overwrite"
)

// Config holds the settings of a parse run.
type Config struct {
	MaxInputDepth   int
	DuplicateLabels string
	MPathWidth      int
	BookNumber      int
	CodeStyle       string
	Sanitize        bool

	Logger *zap.SugaredLogger
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		MaxInputDepth:   DefaultMaxInputDepth,
		DuplicateLabels: DuplicateLabelsError,
		MPathWidth:      2,
		CodeStyle:       "github",
		Logger:          zap.NewNop().Sugar(),
	}
}

// An Option modifies the Config of a parse run.
type Option func(*Config)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func WithMaxInputDepth(depth int) Option {
	return func(c *Config) { c.MaxInputDepth = depth }
}

// WithDuplicateLabels selects what happens when a label is declared twice:
// DuplicateLabelsError aborts the parse, DuplicateLabelsOverwrite keeps the last one.
func WithDuplicateLabels(policy string) Option {
	return func(c *Config) { c.DuplicateLabels = policy }
}

func WithMPathWidth(width int) Option {
	return func(c *Config) { c.MPathWidth = width }
}

func WithBookNumber(n int) Option {
	return func(c *Config) { c.BookNumber = n }
}

func WithCodeStyle(style string) Option {
	return func(c *Config) { c.CodeStyle = style }
}

func WithSanitize(sanitize bool) Option {
	return func(c *Config) { c.Sanitize = sanitize }
}

// WithYAML applies the settings found under the "camel" key of a YAML document.
// Missing keys leave the current values untouched.
func WithYAML(cfg *yaml.YAML) Option {
	return func(c *Config) {
		if cfg == nil {
			return
		}
		c.MaxInputDepth = cfg.Int("camel.maxInputDepth", c.MaxInputDepth)
		c.DuplicateLabels = cfg.String("camel.duplicateLabels", c.DuplicateLabels)
		c.MPathWidth = cfg.Int("camel.mpathWidth", c.MPathWidth)
		c.BookNumber = cfg.Int("camel.bookNumber", c.BookNumber)
		c.CodeStyle = cfg.String("camel.codeStyle", c.CodeStyle)
		if cfg.Bool("camel.sanitize") {
			c.Sanitize = true
		}
	}
}

// ReadConfigFile parses a YAML configuration file.
// A file that does not exist is not an error: an empty configuration is returned.
func ReadConfigFile(fileName string) (*yaml.YAML, error) {
	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		return yaml.ParseYaml("")
	}
	cfg, err := yaml.ParseYamlFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", fileName, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DuplicateLabels != DuplicateLabelsError && c.DuplicateLabels != DuplicateLabelsOverwrite {
		return fmt.Errorf("invalid duplicateLabels policy %q, want %q or %q", c.DuplicateLabels, DuplicateLabelsError, DuplicateLabelsOverwrite)
	}
	if c.MPathWidth < 1 {
		return fmt.Errorf("invalid mpathWidth %d", c.MPathWidth)
	}
	if c.MaxInputDepth < 0 {
		return fmt.Errorf("invalid maxInputDepth %d", c.MaxInputDepth)
	}
	return nil
}
