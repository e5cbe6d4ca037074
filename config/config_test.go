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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8000, cfg.Surface.Port)
	assert.Equal(t, 60*time.Second, cfg.Maintenance.MinInterval)
	assert.Equal(t, 120*time.Second, cfg.Maintenance.MaxInterval)
	assert.Equal(t, 10*time.Second, cfg.Surface.ReadTimeout)
	assert.Equal(t, 4096, cfg.Messaging.ChunkSize)
}

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pckr.yaml")
	content := `environment: staging
surface:
  host: "0.0.0.0"
  port: 9001
maintenance:
  min_interval: 30s
  max_interval: 90s
messaging:
  chunk_size: 2048
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9001, cfg.Surface.Port)
	assert.Equal(t, 30*time.Second, cfg.Maintenance.MinInterval)
	assert.Equal(t, 2048, cfg.Messaging.ChunkSize)
	// setDefaults fills in everything the file left out.
	assert.Equal(t, 100, cfg.Surface.PortRetries)
	assert.NotNil(t, cfg.Logging)
	assert.NotNil(t, cfg.Metrics)
}

func TestLoadFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pckr.json")
	content := `{"environment":"production","surface":{"port":9500}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9500, cfg.Surface.Port)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestSaveToFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "out.yaml")
	cfg := DefaultConfig()
	cfg.Surface.Port = 7777
	require.NoError(t, SaveToFile(cfg, yamlPath))

	reloaded, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 7777, reloaded.Surface.Port)

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, SaveToFile(cfg, jsonPath))
	reloadedJSON, err := LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 7777, reloadedJSON.Surface.Port)
}

func TestSetDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Surface: &SurfaceConfig{Port: 1234},
	}
	setDefaults(cfg)

	assert.Equal(t, 1234, cfg.Surface.Port)
	assert.Equal(t, "0.0.0.0", cfg.Surface.Host, "unset fields still take the default")
	assert.NotNil(t, cfg.Maintenance, "a wholly absent section is filled in entirely")
}

func TestValidateConfiguration(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.Empty(t, ValidateConfiguration(DefaultConfig()))
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Surface.Port = 70000
		issues := ValidateConfiguration(cfg)
		require.Len(t, issues, 1)
		assert.Equal(t, "surface.port", issues[0].Field)
	})

	t.Run("min exceeds max", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Maintenance.MinInterval = 5 * time.Minute
		cfg.Maintenance.MaxInterval = time.Minute
		issues := ValidateConfiguration(cfg)
		require.Len(t, issues, 1)
		assert.Equal(t, "maintenance", issues[0].Field)
	})

	t.Run("zero chunk size", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Messaging.ChunkSize = 0
		issues := ValidateConfiguration(cfg)
		require.Len(t, issues, 1)
		assert.Equal(t, "messaging.chunk_size", issues[0].Field)
	})
}
