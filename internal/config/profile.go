package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"paramsheet/internal"
)

const DefaultScaleNumerator = 16777216

var DefaultScaleExceptions = []int{6144, 12288}

// Profile tunes the dialect tables without touching code.
type Profile struct {
	Types   map[string]map[string]string `yaml:"types"`
	Columns map[string][]string          `yaml:"columns"`
	Scale   ScaleProfile                 `yaml:"scale"`
}

type ScaleProfile struct {
	Numerator  float64 `yaml:"numerator"`
	Exceptions []int   `yaml:"exceptions"`
}

// TabularFields lists the semantic fields a profile may add column names for.
var TabularFields = []string{"type", "scale", "name", "address", "editable", "description", "unit", "size", "code"}

func DefaultProfile() Profile {
	return Profile{
		Scale: ScaleProfile{
			Numerator:  DefaultScaleNumerator,
			Exceptions: append([]int(nil), DefaultScaleExceptions...),
		},
	}
}

func LoadProfile(path string) (Profile, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	p := DefaultProfile()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := ValidateProfile(p); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	NormalizeProfile(&p)
	return p, nil
}

// ValidateProfile performs declarative checks only. It does not mutate p.
func ValidateProfile(p Profile) error {
	for dialect, tokens := range p.Types {
		if _, ok := internal.ParseDialect(dialect); !ok {
			return fmt.Errorf("types: unknown dialect %q", dialect)
		}
		for token, target := range tokens {
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("types.%s: empty token", dialect)
			}
			if _, ok := internal.ParseCanonicalType(target); !ok {
				return fmt.Errorf("types.%s.%s: %q is not a canonical type", dialect, token, target)
			}
		}
	}

	for field, names := range p.Columns {
		if !knownField(field) {
			return fmt.Errorf("columns: unknown field %q", field)
		}
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("columns.%s: empty column name", field)
			}
		}
	}

	if p.Scale.Numerator < 0 {
		return fmt.Errorf("scale.numerator must not be negative")
	}
	return nil
}

// NormalizeProfile fills zero values left by a partial file.
// It MUST be called only after ValidateProfile().
func NormalizeProfile(p *Profile) {
	if p == nil {
		return
	}
	if p.Scale.Numerator == 0 {
		p.Scale.Numerator = DefaultScaleNumerator
	}
	if p.Scale.Exceptions == nil {
		p.Scale.Exceptions = append([]int(nil), DefaultScaleExceptions...)
	}
}

func knownField(field string) bool {
	for _, f := range TabularFields {
		if f == field {
			return true
		}
	}
	return false
}
