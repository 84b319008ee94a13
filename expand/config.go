package expand

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/mexp/internal"
	"github.com/gnolang/mexp/macro"
)

// Version is the version of mexp checked against the `requires` constraint
// of a configuration file.
var Version = "0.1.0"

const DefaultConfigFile = ".mexp.yaml"

// Config represents the configuration file of a project.
type Config struct {
	Name string `yaml:"name"`
	// Requires is a semver constraint the running mexp version must satisfy.
	Requires string `yaml:"requires,omitempty"`
	// MaxDepth bounds nested macro applications. Zero selects the default
	// depth and a negative value disables the bound.
	MaxDepth    int      `yaml:"max-depth"`
	Extensions  []string `yaml:"extensions"`
	IgnorePaths []string `yaml:"ignore-paths,omitempty"`
	CacheDir    string   `yaml:"cache-dir,omitempty"`
	OutDir      string   `yaml:"out-dir,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Name:       "mexp",
		MaxDepth:   macro.DefaultMaxDepth,
		Extensions: append([]string(nil), internal.DefaultExtensions...),
	}
}

// LoadConfig reads the configuration file at path on top of the defaults.
// A missing or empty file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("error parsing %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid configuration %s: %w", path, err)
	}
	return config, nil
}

// Validate checks that the running version satisfies Requires.
func (c Config) Validate() error {
	if c.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return fmt.Errorf("invalid requires constraint %q: %w", c.Requires, err)
	}
	version, err := semver.NewVersion(Version)
	if err != nil {
		return fmt.Errorf("invalid mexp version %q: %w", Version, err)
	}
	if !constraint.Check(version) {
		return fmt.Errorf("mexp %s does not satisfy %q", version, c.Requires)
	}
	return nil
}

// WriteConfig writes config to path as YAML.
func WriteConfig(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(d)
	return err
}
