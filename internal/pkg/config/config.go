package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	OutputPretty  = "pretty"
	OutputSummary = "summary"

	DefaultFileName = "zinc.yaml"
)

// Config selects how far the lowering pipeline runs and how its result is
// reported. Values read from the file can be overridden by ZINC_* environment
// variables and then by command line flags.
type Config struct {
	// Until names the last stage to run, empty for the whole pipeline.
	Until string `yaml:"until"`
	// Decapture can be turned off to inspect specialised models that still
	// capture top-level declarations.
	Decapture bool `yaml:"decapture"`
	// Verbosity is the logr V level printed by the command line.
	Verbosity int    `yaml:"verbosity"`
	Output    string `yaml:"output"`
	// Builtins prints the bodyless builtins declared by the passes.
	Builtins bool `yaml:"builtins"`
}

func Default() *Config {
	return &Config{Decapture: true, Output: OutputPretty}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	file, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if until, ok := os.LookupEnv("ZINC_UNTIL"); ok {
		c.Until = until
	}
	if output := os.Getenv("ZINC_OUTPUT"); output != "" {
		c.Output = output
	}
	if v := os.Getenv("ZINC_DECAPTURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "ZINC_DECAPTURE")
		}
		c.Decapture = b
	}
	if v := os.Getenv("ZINC_VERBOSITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "ZINC_VERBOSITY")
		}
		c.Verbosity = n
	}
	return nil
}

// Validate checks the values that do not depend on the pipeline. Stage names
// are checked when the pipeline is built.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputPretty, OutputSummary:
	default:
		return errors.Newf("unknown output mode %q, expected %s or %s", c.Output, OutputPretty, OutputSummary)
	}
	if c.Verbosity < 0 {
		return errors.Newf("verbosity must not be negative, got %d", c.Verbosity)
	}
	return nil
}
