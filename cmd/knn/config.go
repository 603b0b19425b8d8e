package main

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the knn CLI configuration file.
type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Classifier struct {
		Kind    string `yaml:"kind"`
		K       int    `yaml:"k"`
		Workers int    `yaml:"workers"`
	} `yaml:"classifier"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
	Bench struct {
		Repeat    int     `yaml:"repeat"`
		TestRatio float64 `yaml:"test_ratio"`
		Seed      int64   `yaml:"seed"`
	} `yaml:"bench"`
}

func defaultConfig() *Config {
	config := &Config{}
	config.Database.Path = "knn.sqlite"
	config.Classifier.Kind = "brute"
	config.Classifier.K = 3
	config.Log.Level = "info"
	config.Log.MaxSizeMB = 100
	config.Log.MaxBackups = 3
	config.Log.MaxAgeDays = 28
	config.Bench.Repeat = 10
	return config
}

// loadConfig reads path over the defaults. A missing file is not an error
// unless required is set.
func loadConfig(path string, required bool) (*Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return config, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return config, nil
}
