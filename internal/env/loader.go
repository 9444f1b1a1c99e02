// Package env assembles the environment hook commands run with: the "env"
// sections of the settings files, dotenv files and explicit overrides.
package env

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Loader handles loading environment variables from files
type Loader struct {
	// stat allows for dependency injection in tests
	stat func(path string) (os.FileInfo, error)
}

// NewLoader creates a new Loader with default implementations
func NewLoader() *Loader {
	return &Loader{stat: os.Stat}
}

// LoadEnvFile loads environment variables from a dotenv file into a map.
// Quoting, multiline values, ${VAR} expansion and inline comments follow
// godotenv.
func (l *Loader) LoadEnvFile(path string) (map[string]string, error) {
	if _, err := l.stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("env file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to stat env file: %w", err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file: %w", err)
	}
	return env, nil
}

// LoadEnvFile is a convenience function that creates a loader and loads a file
func LoadEnvFile(path string) (map[string]string, error) {
	return NewLoader().LoadEnvFile(path)
}
