package main

import (
	"os"

	"gopkg.in/yaml.v2"
)

// fileConfig is the optional YAML configuration loaded via --config.
// Flags, when set, take priority over values loaded here.
type fileConfig struct {
	OutInitStatement string `yaml:"out_init_statement"`
	Verbose          bool   `yaml:"verbose"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
