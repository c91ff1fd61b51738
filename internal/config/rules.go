package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/auv-align/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadRules returns the classification rules. With an empty path the
// built-in Dorado tables are used; otherwise the YAML file at path is
// applied on top of them. Keys left out of the file keep their defaults.
func LoadRules(path string) (domain.Rules, error) {
	rules := domain.DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil && !errors.Is(err, io.EOF) {
		return domain.Rules{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := validateRules(rules); err != nil {
		return domain.Rules{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

func validateRules(r domain.Rules) error {
	for _, q := range domain.Quantities {
		if r.References.Name(q) == "" {
			return fmt.Errorf("references.%s is required", q)
		}
	}
	for name, o := range r.TimeAxisOverrides {
		if o.Axis == "" {
			return fmt.Errorf("timeAxisOverrides.%s: axis is required", name)
		}
	}
	return nil
}
