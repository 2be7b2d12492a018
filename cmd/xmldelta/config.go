package main

import (
	"fmt"
	"log/slog"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/dannyswat/xmldelta"
)

// Config is the optional YAML configuration of the command.
//
//	namespaces:
//	  patch: p
//	  set: s
//	significant: [id, uid]
//	identify: 'Attr.Space == "" && Attr.Local == "key"'
//	algorithm: myers
//	log:
//	  level: debug
//	  format: json
type Config struct {
	Namespaces struct {
		Patch string `yaml:"patch"`
		Set   string `yaml:"set"`
	} `yaml:"namespaces"`
	// Significant lists the attribute names that identify an element. Ignored when Identify is set.
	Significant []string  `yaml:"significant"`
	Identify    string    `yaml:"identify"`
	Algorithm   string    `yaml:"algorithm"`
	Log         LogConfig `yaml:"log"`
}

// LogConfig selects the level and format of log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig reads the configuration file at path. An empty path returns the zero Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Differ builds the Differ described by c.
func (c Config) Differ(logger *slog.Logger) (*xmldelta.Differ, error) {
	opts := []xmldelta.Option{xmldelta.WithLogger(logger)}

	ns := xmldelta.DefaultNamespaces()
	if c.Namespaces.Patch != "" {
		ns.Patch = c.Namespaces.Patch
	}
	if c.Namespaces.Set != "" {
		ns.Set = c.Namespaces.Set
	}
	if ns.Patch == ns.Set {
		return nil, fmt.Errorf("patch and set namespaces must differ, both are %q", ns.Patch)
	}
	opts = append(opts, xmldelta.WithNamespaces(ns))

	switch {
	case c.Identify != "":
		policy, err := xmldelta.NewExprPolicy(c.Identify)
		if err != nil {
			return nil, err
		}
		opts = append(opts, xmldelta.WithPolicy(policy))
	case len(c.Significant) > 0:
		opts = append(opts, xmldelta.WithPolicy(xmldelta.AttributePolicy{Names: c.Significant}))
	}

	algorithm, err := xmldelta.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return nil, err
	}
	opts = append(opts, xmldelta.WithAlgorithm(algorithm))

	return xmldelta.New(opts...), nil
}
