package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultServerURL      = "http://127.0.0.1:8000"
	DefaultParameter      = "dissolved_oxygen"
	DefaultPalette        = "oxygen"
	DefaultDownsample     = 4
	DefaultAutoplayPeriod = 2.0
)

type Config struct {
	ServerURL      string  `yaml:"server_url"`
	Parameter      string  `yaml:"parameter"`
	Palette        string  `yaml:"palette"`
	Downsample     int     `yaml:"downsample"`
	AutoplayPeriod float64 `yaml:"autoplay_period"`
}

func DefaultConfig() *Config {
	return &Config{
		ServerURL:      DefaultServerURL,
		Parameter:      DefaultParameter,
		Palette:        DefaultPalette,
		Downsample:     DefaultDownsample,
		AutoplayPeriod: DefaultAutoplayPeriod,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) normalize() {
	if c.Downsample < 1 {
		c.Downsample = DefaultDownsample
	}
	if c.AutoplayPeriod <= 0 {
		c.AutoplayPeriod = DefaultAutoplayPeriod
	}
	if c.Parameter == "" {
		c.Parameter = DefaultParameter
	}
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
}
