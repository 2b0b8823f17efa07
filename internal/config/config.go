package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the optional per-project configuration file.
const FileName = ".lambda-tester.json"

// EnvPrefix prefixes environment overrides, e.g. LAMBDA_TESTER_STRICT.
const EnvPrefix = "LAMBDA_TESTER"

const defaultXRayPort = 2000

// Config holds the project-level tester settings
type Config struct {
	EnvFile              string `mapstructure:"envFile"`
	CheckForResourceLeak bool   `mapstructure:"checkForResourceLeak"`
	Strict               bool   `mapstructure:"strict"`
	// Timeout in seconds; 0 leaves the timeout unenforced.
	Timeout  int `mapstructure:"timeout" validate:"gte=0"`
	XRayPort int `mapstructure:"xrayPort" validate:"gte=0,lte=65535"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
	// Loaded reports whether FileName existed.
	Loaded bool `mapstructure:"-"`
}

// TimeoutDuration returns Timeout as a duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

var validate = validator.New()

// Load reads FileName from dir and applies LAMBDA_TESTER_* overrides. A
// missing file is not an error; Loaded is false and defaults apply.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(abs, FileName))
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("envFile", ".env")
	v.SetDefault("checkForResourceLeak", false)
	v.SetDefault("strict", false)
	v.SetDefault("timeout", 0)
	v.SetDefault("xrayPort", defaultXRayPort)

	loaded := true
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", FileName, err)
		}
		loaded = false
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileName, err)
	}
	config.Dir = abs
	config.Loaded = loaded

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}

	return config, nil
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsInt gets an environment variable as integer with a fallback value
func GetEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// GetEnvAsBool gets an environment variable as boolean with a fallback value
func GetEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
