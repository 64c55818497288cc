package keywords

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CanonGroup maps one canonical term to its accepted surface forms.
type CanonGroup struct {
	Canonical string   `yaml:"canonical"`
	Aliases   []string `yaml:"aliases"`
}

// Family maps a generic term to the specific terms that satisfy it.
type Family struct {
	Generic     string   `yaml:"generic"`
	SatisfiedBy []string `yaml:"satisfied_by"`
}

type Options struct {
	KeepChars           string   `yaml:"keep_chars"`
	SlashToSpace        bool     `yaml:"slash_to_space"`
	DashToSpace         bool     `yaml:"dash_to_space"`
	SeparatorExceptions []string `yaml:"separator_exceptions"`
}

type Config struct {
	Options  Options      `yaml:"options"`
	Groups   []CanonGroup `yaml:"groups"`
	Families []Family     `yaml:"families"`
}

func DefaultConfig() Config {
	return Config{
		Options: Options{
			KeepChars:           "+#.",
			SlashToSpace:        true,
			DashToSpace:         true,
			SeparatorExceptions: []string{"ci/cd"},
		},
	}
}

// LoadConfig reads the canonicalization file and, if set, the separate
// families file. Missing files fall back to defaults so the matcher
// still works with exact matching only.
func LoadConfig(canonPath, familiesPath string) (Config, error) {
	cfg := DefaultConfig()

	if canonPath != "" {
		if err := loadYAML(canonPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("load canonicalization config: %w", err)
		}
	}
	if familiesPath != "" {
		var fams struct {
			Families []Family `yaml:"families"`
		}
		if err := loadYAML(familiesPath, &fams); err != nil {
			return Config{}, fmt.Errorf("load families config: %w", err)
		}
		cfg.Families = append(cfg.Families, fams.Families...)
	}

	if strings.TrimSpace(cfg.Options.KeepChars) == "" {
		cfg.Options.KeepChars = DefaultConfig().Options.KeepChars
	}
	return cfg, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
