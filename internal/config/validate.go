package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/jorge-barreto/splice/internal/validate"
)

const (
	DefaultKeyPattern    = `[a-z]+_\d+`
	DefaultIndent        = "  "
	DefaultVerifyTimeout = 5
	DefaultBackups       = 20
)

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config, projectRoot string) error {
	if cfg.DataFile == "" {
		return fmt.Errorf("config: 'data-file' is required")
	}
	dataPath := cfg.DataPath(projectRoot)
	info, err := os.Stat(dataPath)
	if err != nil {
		return fmt.Errorf("config: data file %q not found", dataPath)
	}
	if info.IsDir() {
		return fmt.Errorf("config: data file %q is a directory", dataPath)
	}

	if cfg.KeyPattern == "" {
		cfg.KeyPattern = DefaultKeyPattern
	}
	if _, err := regexp.Compile(cfg.KeyPattern); err != nil {
		return fmt.Errorf("config: invalid key-pattern %q: %w", cfg.KeyPattern, err)
	}

	if cfg.Indent == "" {
		cfg.Indent = DefaultIndent
	}
	if strings.Trim(cfg.Indent, " \t") != "" {
		return fmt.Errorf("config: 'indent' must contain only spaces or tabs")
	}

	if cfg.VerifyTimeout < 0 {
		return fmt.Errorf("config: verify-timeout must be >= 0")
	}
	if cfg.VerifyTimeout == 0 {
		cfg.VerifyTimeout = DefaultVerifyTimeout
	}
	if cfg.Backups < 0 {
		return fmt.Errorf("config: backups must be >= 0")
	}
	if cfg.Backups == 0 {
		cfg.Backups = DefaultBackups
	}

	if cfg.Rules == nil {
		cfg.Rules = make(map[string]validate.Rules)
	}
	def := cfg.Rules["default"]
	if def.SectionPattern == "" {
		def.SectionPattern = validate.DefaultSectionPattern
	}
	cfg.Rules["default"] = def

	for name, r := range cfg.Rules {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config: rules: empty rule name")
		}
		if err := validateRules(r); err != nil {
			return fmt.Errorf("config: rules %q: %w", name, err)
		}
	}
	return nil
}

func validateRules(r validate.Rules) error {
	bounds := []struct {
		name     string
		min, max int
	}{
		{"chars", r.MinChars, r.MaxChars},
		{"sections", r.MinSections, r.MaxSections},
		{"takeaways", r.MinTakeaways, r.MaxTakeaways},
	}
	for _, b := range bounds {
		if b.min < 0 || b.max < 0 {
			return fmt.Errorf("%s bounds must be >= 0", b.name)
		}
		if b.max > 0 && b.min > b.max {
			return fmt.Errorf("min-%s %d exceeds max-%s %d", b.name, b.min, b.name, b.max)
		}
	}
	if r.SectionPattern != "" {
		if _, err := regexp.Compile(r.SectionPattern); err != nil {
			return fmt.Errorf("invalid section-pattern %q: %w", r.SectionPattern, err)
		}
	}
	return nil
}
