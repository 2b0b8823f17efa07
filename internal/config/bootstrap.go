package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// NoEnvVar disables loading the .env file when set to a true value.
	NoEnvVar = "LAMBDA_TESTER_NO_ENV"
	// TaskRootVar mirrors the directory Lambda unpacks the function into.
	TaskRootVar = "LAMBDA_TASK_ROOT"
)

// ErrNoTaskRoot is returned when no ancestor directory holds a go.mod.
var ErrNoTaskRoot = errors.New("no go.mod found in any parent directory")

// Bootstrap prepares the process environment for a test run: it loads the
// configured env file without overriding variables already set, and points
// LAMBDA_TASK_ROOT at the project root when unset.
func Bootstrap(config *Config) error {
	if !GetEnvAsBool(NoEnvVar, false) {
		if err := loadEnvFile(config); err != nil {
			return err
		}
	}

	if os.Getenv(TaskRootVar) == "" {
		if root, err := FindTaskRoot(config.Dir); err == nil {
			os.Setenv(TaskRootVar, root)
		}
	}

	return nil
}

func loadEnvFile(config *Config) error {
	path := config.EnvFile
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(config.Dir, path)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// FindTaskRoot walks up from dir to the nearest directory containing go.mod.
func FindTaskRoot(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNoTaskRoot
		}
		current = parent
	}
}
