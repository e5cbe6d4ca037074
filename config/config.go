// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads pckr's runtime configuration: listener binding,
// maintenance-loop timing, identity-store location and logging.
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a pckr agent.
type Config struct {
	Environment string             `yaml:"environment" json:"environment"`
	Surface     *SurfaceConfig     `yaml:"surface" json:"surface"`
	Maintenance *MaintenanceConfig `yaml:"maintenance" json:"maintenance"`
	Identity    *IdentityConfig    `yaml:"identity" json:"identity"`
	Messaging   *MessagingConfig   `yaml:"messaging" json:"messaging"`
	Logging     *LoggingConfig     `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig     `yaml:"metrics" json:"metrics"`
}

// SurfaceConfig controls the listener (§6: bind, then increment port on failure).
type SurfaceConfig struct {
	Host        string        `yaml:"host" json:"host"`
	Port        int           `yaml:"port" json:"port"`
	PortRetries int           `yaml:"port_retries" json:"port_retries"`
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`
}

// MaintenanceConfig bounds the periodic maintenance loop interval (§4.8).
type MaintenanceConfig struct {
	MinInterval time.Duration `yaml:"min_interval" json:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval" json:"max_interval"`
}

// IdentityConfig points at the on-disk identity store root.
type IdentityConfig struct {
	RootDir string `yaml:"root_dir" json:"root_dir"`
}

// MessagingConfig controls chunked message transfer (§4.7).
type MessagingConfig struct {
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// DefaultConfig returns a Config populated with the defaults spec.md calls
// out: a [60s, 120s] maintenance interval, a 10s read timeout, and 4096-byte
// message chunks.
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Surface: &SurfaceConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			PortRetries: 100,
			ReadTimeout: 10 * time.Second,
		},
		Maintenance: &MaintenanceConfig{
			MinInterval: 60 * time.Second,
			MaxInterval: 120 * time.Second,
		},
		Identity: &IdentityConfig{
			RootDir: "~/.pckr",
		},
		Messaging: &MessagingConfig{
			ChunkSize: 4096,
		},
		Logging: &LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: &MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// LoadFromFile loads configuration from a file, accepting YAML or JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile saves configuration to a file, the format picked by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults fills in zero-valued fields of cfg with DefaultConfig's values.
func setDefaults(cfg *Config) {
	d := DefaultConfig()

	if cfg.Environment == "" {
		cfg.Environment = d.Environment
	}
	if cfg.Surface == nil {
		cfg.Surface = d.Surface
	} else {
		if cfg.Surface.Host == "" {
			cfg.Surface.Host = d.Surface.Host
		}
		if cfg.Surface.Port == 0 {
			cfg.Surface.Port = d.Surface.Port
		}
		if cfg.Surface.PortRetries == 0 {
			cfg.Surface.PortRetries = d.Surface.PortRetries
		}
		if cfg.Surface.ReadTimeout == 0 {
			cfg.Surface.ReadTimeout = d.Surface.ReadTimeout
		}
	}
	if cfg.Maintenance == nil {
		cfg.Maintenance = d.Maintenance
	} else {
		if cfg.Maintenance.MinInterval == 0 {
			cfg.Maintenance.MinInterval = d.Maintenance.MinInterval
		}
		if cfg.Maintenance.MaxInterval == 0 {
			cfg.Maintenance.MaxInterval = d.Maintenance.MaxInterval
		}
	}
	if cfg.Identity == nil {
		cfg.Identity = d.Identity
	} else if cfg.Identity.RootDir == "" {
		cfg.Identity.RootDir = d.Identity.RootDir
	}
	if cfg.Messaging == nil {
		cfg.Messaging = d.Messaging
	} else if cfg.Messaging.ChunkSize == 0 {
		cfg.Messaging.ChunkSize = d.Messaging.ChunkSize
	}
	if cfg.Logging == nil {
		cfg.Logging = d.Logging
	} else {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = d.Logging.Level
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = d.Logging.Format
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = d.Logging.Output
		}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = d.Metrics
	} else {
		if cfg.Metrics.Addr == "" {
			cfg.Metrics.Addr = d.Metrics.Addr
		}
		if cfg.Metrics.Path == "" {
			cfg.Metrics.Path = d.Metrics.Path
		}
	}
}

// ValidationIssue describes a single configuration problem.
type ValidationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warning"
}

// ValidateConfiguration checks a Config for obviously invalid values.
func ValidateConfiguration(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Surface != nil && (cfg.Surface.Port < 0 || cfg.Surface.Port > 65535) {
		issues = append(issues, ValidationIssue{
			Field: "surface.port", Message: "port must be between 0 and 65535", Level: "error",
		})
	}
	if cfg.Maintenance != nil {
		if cfg.Maintenance.MinInterval <= 0 || cfg.Maintenance.MaxInterval <= 0 {
			issues = append(issues, ValidationIssue{
				Field: "maintenance", Message: "min_interval and max_interval must be positive", Level: "error",
			})
		} else if cfg.Maintenance.MinInterval > cfg.Maintenance.MaxInterval {
			issues = append(issues, ValidationIssue{
				Field: "maintenance", Message: "min_interval must not exceed max_interval", Level: "error",
			})
		}
	}
	if cfg.Messaging != nil && cfg.Messaging.ChunkSize <= 0 {
		issues = append(issues, ValidationIssue{
			Field: "messaging.chunk_size", Message: "chunk_size must be positive", Level: "error",
		})
	}

	return issues
}
