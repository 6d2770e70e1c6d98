package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/splice/internal/validate"
)

// Dir is the per-project directory holding config, backups and the journal.
const Dir = ".splice"

type Config struct {
	DataFile      string                    `yaml:"data-file"`
	KeyPattern    string                    `yaml:"key-pattern"`
	Indent        string                    `yaml:"indent"`
	Verify        string                    `yaml:"verify"`
	VerifyTimeout int                       `yaml:"verify-timeout"`
	Backups       int                       `yaml:"backups"`
	Rules         map[string]validate.Rules `yaml:"rules"`
}

// Load reads a YAML config file and returns a validated Config.
func Load(path, projectRoot string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg, projectRoot); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the config file location under projectRoot.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, "config.yaml")
}

// DataPath resolves the data file relative to projectRoot.
func (c *Config) DataPath(projectRoot string) string {
	if filepath.IsAbs(c.DataFile) {
		return c.DataFile
	}
	return filepath.Join(projectRoot, c.DataFile)
}

// RulesFor returns the default rules overlaid with the longest rules entry
// whose name prefixes key.
func (c *Config) RulesFor(key string) validate.Rules {
	rules := c.Rules["default"]
	var prefixes []string
	for name := range c.Rules {
		if name != "default" && strings.HasPrefix(key, name) {
			prefixes = append(prefixes, name)
		}
	}
	if len(prefixes) == 0 {
		return rules
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return rules.Overlay(c.Rules[prefixes[0]])
}
