//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package regconfig seeds the built-in extension catalog from a YAML
// configuration file. The file narrows which built-ins are active and
// overrides their static metadata (validity mask, overridability);
// extension behavior always comes from the compiled-in modules. The
// seed must run during process initialization, before any session is
// created.
package regconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/markkurossi/exthello/internal/builtin"
	"github.com/markkurossi/exthello/internal/catalog"
	"github.com/markkurossi/exthello/internal/extid"
)

// Extension is one extension entry of the configuration file.
type Extension struct {
	Name        string   `yaml:"name"`
	Enabled     *bool    `yaml:"enabled"`
	Validity    []string `yaml:"validity"`
	MayOverride *bool    `yaml:"may_override"`
}

// Config is the catalog seed configuration.
type Config struct {
	Extensions []Extension `yaml:"extensions"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("regconfig: %w", err)
	}

	known := make(map[string]bool)
	for _, d := range builtin.Descriptors() {
		known[d.Name] = true
	}
	for _, e := range cfg.Extensions {
		if !known[e.Name] {
			return nil, fmt.Errorf("regconfig: unknown extension %q", e.Name)
		}
		for _, v := range e.Validity {
			if _, ok := extid.ParseMessage(v); !ok {
				return nil, fmt.Errorf(
					"regconfig: %s: unknown handshake message %q", e.Name, v)
			}
		}
	}
	return cfg, nil
}

// Seed registers the built-in extensions into reg, applying cfg's
// filtering and metadata overrides. A nil cfg registers everything
// with compiled-in defaults.
func Seed(reg *catalog.Registry, cfg *Config) error {
	entries := make(map[string]Extension)
	if cfg != nil {
		for _, e := range cfg.Extensions {
			entries[e.Name] = e
		}
	}

	for _, d := range builtin.Descriptors() {
		e, ok := entries[d.Name]
		if ok {
			if e.Enabled != nil && !*e.Enabled {
				continue
			}
			if len(e.Validity) > 0 {
				var mask extid.MessageSet
				for _, v := range e.Validity {
					m, _ := extid.ParseMessage(v)
					mask |= extid.Set(m)
				}
				d.ValidityMask = mask
			}
			if e.MayOverride != nil {
				d.MayOverride = *e.MayOverride
			}
		}
		if err := reg.RegisterBuiltin(d); err != nil {
			return err
		}
	}
	return nil
}
