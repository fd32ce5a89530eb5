// Package config loads the beatlab application configuration from a TOML
// or YAML file, chosen by extension, and applies BEATLAB_* environment
// overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. BEATLAB_STATUS_ADDR.
const EnvPrefix = "BEATLAB"

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrFieldNotSettable  = errors.New("config field cannot be set")
)

// Config is the application shell configuration.
type Config struct {
	Log    LogConfig    `toml:"log" yaml:"log"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Editor EditorConfig `toml:"editor" yaml:"editor"`
	Status StatusConfig `toml:"status" yaml:"status"`
	Health HealthConfig `toml:"health" yaml:"health"`
}

// LogConfig controls the zerolog backend in the shell.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" env:"LOG_LEVEL"`
}

// StoreConfig selects the pattern library's persistence driver.
type StoreConfig struct {
	Driver string `toml:"driver" yaml:"driver" env:"STORE_DRIVER"`
	Path   string `toml:"path" yaml:"path" env:"STORE_PATH"`
}

// EditorConfig seeds the editor module.
type EditorConfig struct {
	InitialContent string `toml:"initial_content" yaml:"initial_content" env:"EDITOR_CONTENT"`
}

// StatusConfig controls the HTTP status surface.
type StatusConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled" env:"STATUS_ENABLED"`
	Addr    string `toml:"addr" yaml:"addr" env:"STATUS_ADDR"`
}

// HealthConfig controls the periodic health sweep.
type HealthConfig struct {
	Schedule string `toml:"schedule" yaml:"schedule" env:"HEALTH_SCHEDULE"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Store:  StoreConfig{Driver: "memory"},
		Status: StatusConfig{Enabled: true, Addr: ":8090"},
		Health: HealthConfig{Schedule: "@every 30s"},
	}
}

// Load reads the file at path (empty path means defaults only), then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		default:
			return cfg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
		}
	}

	if err := applyEnv(reflect.ValueOf(&cfg).Elem()); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv walks the struct and overrides any field whose `env` tag names
// a set environment variable, converting the string with golobby/cast.
func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag, ok := fieldType.Tag.Lookup("env")
		if !ok {
			continue
		}
		envValue := os.Getenv(EnvPrefix + "_" + strings.ToUpper(envTag))
		if envValue == "" {
			continue
		}

		converted, err := cast.FromType(envValue, field.Type())
		if err != nil {
			return fmt.Errorf("cannot convert %s_%s to %v: %w", EnvPrefix, envTag, field.Type(), err)
		}
		if !field.CanSet() {
			return fmt.Errorf("%w: %s", ErrFieldNotSettable, fieldType.Name)
		}
		field.Set(reflect.ValueOf(converted))
	}
	return nil
}
