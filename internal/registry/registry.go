package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed resources.yaml
var defaultDefinition []byte

// ErrDefinitionNotFound is returned when an override file does not exist
var ErrDefinitionNotFound = errors.New("registry definition not found")

// MenuItem is one entry of the list-of-values sidebar
type MenuItem struct {
	Path  string `yaml:"path" json:"path"`
	Label string `yaml:"label" json:"label"`
	Icon  string `yaml:"icon" json:"icon"`
}

type definitionFile struct {
	Version   int                        `yaml:"version"`
	Menu      []MenuItem                 `yaml:"menu"`
	Resources map[string]*ResourceConfig `yaml:"resources"`
}

// Registry holds the menu and the resource configs keyed by path. It is
// read-only after loading.
type Registry struct {
	menu      []MenuItem
	resources map[string]*ResourceConfig
}

// Default returns the built-in registry
func Default() (*Registry, error) {
	return Parse(defaultDefinition)
}

// LoadFile reads a registry definition from path; an empty path yields the
// built-in registry
func LoadFile(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, path)
		}
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a YAML registry definition
func Parse(raw []byte) (*Registry, error) {
	var file definitionFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse registry definition: %w", err)
	}
	if file.Version != 1 {
		return nil, fmt.Errorf("unsupported registry version: %d", file.Version)
	}

	r := &Registry{
		menu:      file.Menu,
		resources: make(map[string]*ResourceConfig, len(file.Resources)),
	}
	for path, cfg := range file.Resources {
		if cfg == nil {
			continue
		}
		cfg.Path = path
		r.resources[path] = cfg
	}
	return r, nil
}

// Lookup returns the config for a menu path
func (r *Registry) Lookup(path string) (*ResourceConfig, bool) {
	cfg, ok := r.resources[path]
	return cfg, ok
}

// Menu returns the sidebar entries in display order
func (r *Registry) Menu() []MenuItem {
	return append([]MenuItem{}, r.menu...)
}

// Validate reports every menu path without a config and every malformed
// config, joined
func (r *Registry) Validate() error {
	var errs []error
	for _, item := range r.menu {
		if _, ok := r.resources[item.Path]; !ok {
			errs = append(errs, fmt.Errorf("menu path %q has no resource config", item.Path))
		}
	}
	for path, cfg := range r.resources {
		if err := validateConfig(cfg); err != nil {
			errs = append(errs, fmt.Errorf("resource %q: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

func validateConfig(cfg *ResourceConfig) error {
	var errs []error
	if cfg.GetEndpoint == "" {
		errs = append(errs, errors.New("getEndpoint is required"))
	}
	if cfg.PostEndpoint == "" {
		errs = append(errs, errors.New("postEndpoint is required"))
	}
	if cfg.PutEndpoint == "" {
		errs = append(errs, errors.New("putEndpoint is required"))
	}
	if cfg.DeleteEndpoint == "" {
		errs = append(errs, errors.New("deleteEndpoint is required"))
	}
	if len(cfg.Columns) == 0 {
		errs = append(errs, errors.New("at least one column is required"))
	}
	if cfg.Transform != "" {
		if _, ok := LookupTransform(cfg.Transform); !ok {
			errs = append(errs, fmt.Errorf("unknown transform %q", cfg.Transform))
		}
	}

	seen := make(map[string]bool, len(cfg.FormFields))
	for _, f := range cfg.FormFields {
		if f.Name == "" {
			errs = append(errs, errors.New("form field without a name"))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate form field %q", f.Name))
		}
		seen[f.Name] = true

		if !f.EffectiveType().IsValid() {
			errs = append(errs, fmt.Errorf("field %q: unknown type %q", f.Name, f.Type))
		}
		if f.EffectiveType() == FieldDropdown && len(f.Options) == 0 && f.OptionsEndpoint == "" {
			errs = append(errs, fmt.Errorf("field %q: dropdown needs options or optionsEndpoint", f.Name))
		}
	}
	return errors.Join(errs...)
}
