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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("PCKR_TEST_HOST", "seek.example.com")
	defer os.Unsetenv("PCKR_TEST_HOST")

	assert.Equal(t, "seek.example.com", SubstituteEnvVars("${PCKR_TEST_HOST}"))
	assert.Equal(t, "fallback", SubstituteEnvVars("${PCKR_TEST_UNSET:fallback}"))
	assert.Equal(t, "", SubstituteEnvVars("${PCKR_TEST_UNSET}"))
	assert.Equal(t, "plain text", SubstituteEnvVars("plain text"))
}

func TestSubstituteEnvVarsInConfig(t *testing.T) {
	os.Setenv("PCKR_TEST_HOST", "10.0.0.5")
	defer os.Unsetenv("PCKR_TEST_HOST")

	cfg := DefaultConfig()
	cfg.Surface.Host = "${PCKR_TEST_HOST}"
	cfg.Logging.Level = "${PCKR_TEST_LEVEL:warn}"

	SubstituteEnvVarsInConfig(cfg)

	assert.Equal(t, "10.0.0.5", cfg.Surface.Host)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestSubstituteEnvVarsInConfigNil(t *testing.T) {
	assert.NotPanics(t, func() {
		SubstituteEnvVarsInConfig(nil)
	})
}

func TestGetEnvironment(t *testing.T) {
	os.Unsetenv("PCKR_ENV")
	os.Unsetenv("ENVIRONMENT")

	assert.Equal(t, "development", GetEnvironment())

	os.Setenv("ENVIRONMENT", "Production")
	defer os.Unsetenv("ENVIRONMENT")
	assert.Equal(t, "production", GetEnvironment())

	os.Setenv("PCKR_ENV", "Staging")
	defer os.Unsetenv("PCKR_ENV")
	assert.Equal(t, "staging", GetEnvironment(), "PCKR_ENV takes priority over ENVIRONMENT")
}

func TestIsProductionAndIsDevelopment(t *testing.T) {
	os.Setenv("PCKR_ENV", "production")
	defer os.Unsetenv("PCKR_ENV")
	assert.True(t, IsProduction())
	assert.False(t, IsDevelopment())

	os.Setenv("PCKR_ENV", "local")
	assert.False(t, IsProduction())
	assert.True(t, IsDevelopment())
}
