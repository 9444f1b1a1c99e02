package env

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lightfastai/cchooks/internal/settings"
)

// LayeredEnv is the environment added on top of the process environment
// when a hook runs
type LayeredEnv struct {
	Settings  map[string]string // "env" sections, project over user
	Files     map[string]string // dotenv files, later files win
	Overrides map[string]string // KEY=VALUE pairs from the command line
}

// Merge merges all layers into a single environment map
// Priority (lowest to highest): Settings → Files → Overrides
func (e *LayeredEnv) Merge() map[string]string {
	result := make(map[string]string)
	for _, layer := range []map[string]string{e.Settings, e.Files, e.Overrides} {
		for k, v := range layer {
			result[k] = v
		}
	}
	return result
}

// ToSlice converts the merged environment to KEY=value strings sorted by key
func (e *LayeredEnv) ToSlice() []string {
	merged := e.Merge()
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, fmt.Sprintf("%s=%s", k, merged[k]))
	}
	return result
}

// Stats returns statistics about the environment layers
func (e *LayeredEnv) Stats() EnvStats {
	return EnvStats{
		SettingsVars: len(e.Settings),
		FileVars:     len(e.Files),
		OverrideVars: len(e.Overrides),
		TotalVars:    len(e.Merge()),
	}
}

// EnvStats contains statistics about environment layers
type EnvStats struct {
	SettingsVars int `json:"settingsVars"`
	FileVars     int `json:"fileVars"`
	OverrideVars int `json:"overrideVars"`
	TotalVars    int `json:"totalVars"`
}

// ParseOverrides turns KEY=VALUE pairs into a map. The value may be empty
// but the key may not.
func ParseOverrides(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("environment override %q must be KEY=VALUE", p)
		}
		result[key] = value
	}
	return result, nil
}

// LoadLayeredEnv builds the hook environment from three layers:
//  1. the "env" section of every document; docs are in precedence order, so
//     earlier documents override later ones
//  2. each dotenv file in files, in order
//  3. overrides
func LoadLayeredEnv(docs []*settings.Document, files []string, overrides map[string]string) (*LayeredEnv, error) {
	loader := NewLoader()
	env := &LayeredEnv{
		Settings:  make(map[string]string),
		Files:     make(map[string]string),
		Overrides: make(map[string]string),
	}

	for i := len(docs) - 1; i >= 0; i-- {
		docEnv, err := docs[i].Env()
		if err != nil {
			return nil, err
		}
		for k, v := range docEnv {
			env.Settings[k] = v
		}
	}

	for _, path := range files {
		fileEnv, err := loader.LoadEnvFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range fileEnv {
			env.Files[k] = v
		}
	}

	for k, v := range overrides {
		env.Overrides[k] = v
	}
	return env, nil
}
