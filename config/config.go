// Copyright 2026 The Soli Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads runtime settings from YAML or TOML files with
// environment-variable overrides. Precedence, highest first:
// environment, file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cast"
)

// Runtime modes as spelled in configuration files.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// envPrefix namespaces the override variables, e.g. SOLI_MODE.
const envPrefix = "SOLI_"

var (
	// ErrUnsupportedFormat is returned for files that are neither
	// YAML nor TOML.
	ErrUnsupportedFormat = errors.New("config: unsupported file format")

	// ErrInvalidSettings is returned when loaded settings fail
	// validation.
	ErrInvalidSettings = errors.New("config: invalid settings")
)

// Settings is the full runtime configuration.
type Settings struct {
	Mode      string            `mapstructure:"mode"`
	Server    ServerSettings    `mapstructure:"server"`
	Scheduler SchedulerSettings `mapstructure:"scheduler"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Addr              string        `mapstructure:"addr"`
	H2C               bool          `mapstructure:"h2c"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// SchedulerSettings configures the future worker pool. Workers of
// zero means the scheduler's own default (a multiple of GOMAXPROCS).
type SchedulerSettings struct {
	Workers int `mapstructure:"workers"`
}

// Development reports whether the runtime is in development mode.
func (s Settings) Development() bool {
	return s.Mode == ModeDevelopment
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Mode: ModeDevelopment,
		Server: ServerSettings{
			Addr:              ":8080",
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 2 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
	}
}

// Load reads settings from path, chosen by extension (.yaml, .yml,
// .toml), applies environment overrides, and fills remaining gaps
// from Defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	raw := make(map[string]any)
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Settings{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return Settings{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	var settings Settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &settings,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Settings{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Settings{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return finish(settings)
}

// FromEnv builds settings from environment variables and defaults
// alone, for deployments without a configuration file.
func FromEnv() (Settings, error) {
	return finish(Settings{})
}

// finish layers environment overrides onto settings, fills the rest
// from Defaults, and validates.
func finish(settings Settings) (Settings, error) {
	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := mergo.Merge(&settings, Defaults()); err != nil {
		return Settings{}, err
	}

	if err := validate(settings); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

func applyEnv(s *Settings) error {
	if v, ok := os.LookupEnv(envPrefix + "MODE"); ok {
		s.Mode = v
	}
	if v, ok := os.LookupEnv(envPrefix + "ADDR"); ok {
		s.Server.Addr = v
	}
	if v, ok := os.LookupEnv(envPrefix + "H2C"); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("%w: %sH2C: %v", ErrInvalidSettings, envPrefix, err)
		}
		s.Server.H2C = b
	}
	if v, ok := os.LookupEnv(envPrefix + "WRITE_TIMEOUT"); ok {
		d, err := cast.ToDurationE(v)
		if err != nil {
			return fmt.Errorf("%w: %sWRITE_TIMEOUT: %v", ErrInvalidSettings, envPrefix, err)
		}
		s.Server.WriteTimeout = d
	}
	if v, ok := os.LookupEnv(envPrefix + "WORKERS"); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%w: %sWORKERS: %v", ErrInvalidSettings, envPrefix, err)
		}
		s.Scheduler.Workers = n
	}

	return nil
}

func validate(s Settings) error {
	if s.Mode != ModeDevelopment && s.Mode != ModeProduction {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s.Mode)
	}
	if s.Scheduler.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidSettings, s.Scheduler.Workers)
	}
	if s.Server.WriteTimeout <= 0 {
		return fmt.Errorf("%w: write timeout must be positive, got %v", ErrInvalidSettings, s.Server.WriteTimeout)
	}
	if s.Server.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("%w: read header timeout must be positive, got %v", ErrInvalidSettings, s.Server.ReadHeaderTimeout)
	}

	return nil
}
