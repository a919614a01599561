package constraint

import (
	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how a constraint State is built and stepped.
//
// Example:
//
//	cfg := constraint.DefaultConfig()
//	cfg.ExactIncomplete = true
//	st, err := constraint.NewFromGrammar(tok, g, vocab, cfg)
type Config struct {
	// Logger receives build summaries and warnings. Nil means no logging.
	Logger *zap.Logger

	// MergeActiveStates merges parser branches with the same top state and
	// top action after every step.
	// Default: true
	MergeActiveStates bool

	// ExactIncomplete admits a vocabulary token that ends inside a grammar
	// token only if its end state can still produce a grammar token the
	// parser accepts. When false every such token is admitted.
	// Default: false
	ExactIncomplete bool

	// MaxBranches caps the number of live (tokenizer state, parser)
	// branches. Extra branches are dropped in canonical order.
	// Default: 1024
	MaxBranches int
}

// DefaultConfig returns the configuration used by Compile.
func DefaultConfig() Config {
	return Config{
		MergeActiveStates: true,
		MaxBranches:       1024,
	}
}

// Validate checks if the configuration is valid.
//
// Valid ranges:
//   - MaxBranches: 1 to 1,000,000
func (c Config) Validate() error {
	if c.MaxBranches < 1 || c.MaxBranches > 1_000_000 {
		return &ConfigError{
			Field:   "MaxBranches",
			Message: "must be between 1 and 1,000,000",
		}
	}
	return nil
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// ConfigError represents an invalid configuration parameter.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "constraint: invalid config: " + e.Field + ": " + e.Message
}

// fileConfig is the TOML layout read by LoadConfig.
type fileConfig struct {
	MergeActiveStates *bool  `toml:"merge_active_states"`
	ExactIncomplete   bool   `toml:"exact_incomplete"`
	MaxBranches       int    `toml:"max_branches"`
	LogLevel          string `toml:"log_level"`
}

// LoadConfig reads a TOML file on top of DefaultConfig. When log_level is
// set, a production zap logger at that level is attached.
//
//	merge_active_states = true
//	exact_incomplete = false
//	max_branches = 256
//	log_level = "info"
func LoadConfig(path string) (Config, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return Config{}, errors.Annotatef(err, "load config %s", path)
	}
	return fc.apply(DefaultConfig())
}

func (fc fileConfig) apply(c Config) (Config, error) {
	if fc.MergeActiveStates != nil {
		c.MergeActiveStates = *fc.MergeActiveStates
	}
	c.ExactIncomplete = fc.ExactIncomplete
	if fc.MaxBranches != 0 {
		c.MaxBranches = fc.MaxBranches
	}
	if fc.LogLevel != "" {
		level, err := zapcore.ParseLevel(fc.LogLevel)
		if err != nil {
			return Config{}, errors.Annotatef(err, "log_level %q", fc.LogLevel)
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err := zc.Build()
		if err != nil {
			return Config{}, errors.Trace(err)
		}
		c.Logger = logger
	}
	if err := c.Validate(); err != nil {
		return Config{}, errors.Trace(err)
	}
	return c, nil
}
