package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papapumpkin/gasync/internal/gas"
)

// System is the decoded config.json. It is loaded once per invocation and
// never mutated afterwards.
type System struct {
	DefaultProject string `json:"defaultProject" yaml:"defaultProject"`
	ProjectsPath   string `json:"projectsPath" yaml:"projectsPath"`
	SystemPath     string `json:"systemPath" yaml:"systemPath"`
	LogsPath       string `json:"logsPath" yaml:"logsPath"`
}

var requiredSystemKeys = []string{"defaultProject", "projectsPath", "systemPath", "logsPath"}

// DefaultSystem returns the config.json written by gasync init.
func DefaultSystem() System {
	return System{
		DefaultProject: "main",
		ProjectsPath:   "projects",
		SystemPath:     "system",
		LogsPath:       "logs",
	}
}

// LoadSystem decodes config.json at path. A missing file, invalid JSON, or
// any missing, empty or non-string required key fails with a
// *gas.ConfigError listing every problem found.
func LoadSystem(path string) (System, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return System{}, &gas.ConfigError{Path: path, Err: fmt.Errorf("file not found: %w", err)}
		}
		return System{}, &gas.ConfigError{Path: path, Err: err}
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return System{}, &gas.ConfigError{Path: path, Err: fmt.Errorf("parsing JSON: %w", err)}
	}

	values := make(map[string]string, len(requiredSystemKeys))
	var problems []string
	for _, key := range requiredSystemKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			problems = append(problems, "missing required field: "+key)
			continue
		}
		s, ok := v.(string)
		if !ok {
			problems = append(problems, fmt.Sprintf("field %s must be a string", key))
			continue
		}
		if s == "" {
			problems = append(problems, "empty required field: "+key)
			continue
		}
		values[key] = s
	}
	if len(problems) > 0 {
		return System{}, &gas.ConfigError{Path: path, Problems: problems}
	}

	return System{
		DefaultProject: values["defaultProject"],
		ProjectsPath:   values["projectsPath"],
		SystemPath:     values["systemPath"],
		LogsPath:       values["logsPath"],
	}, nil
}

// SaveSystem writes sys to path as 2-space indented JSON.
func SaveSystem(path string, sys System) error {
	return writeJSON(path, sys)
}

// Within returns a copy of sys with relative paths resolved against root.
func (sys System) Within(root string) System {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	sys.ProjectsPath = resolve(sys.ProjectsPath)
	sys.SystemPath = resolve(sys.SystemPath)
	sys.LogsPath = resolve(sys.LogsPath)
	return sys
}

// ProjectDir returns the local directory of the named project.
func (sys System) ProjectDir(name string) string {
	return filepath.Join(sys.ProjectsPath, name)
}

// LocalProjectDir is ProjectDir for user-supplied names. An empty name or
// one that would leave ProjectsPath fails with gas.ErrUnsafeName.
func (sys System) LocalProjectDir(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", &gas.ProjectError{Project: name, Err: gas.ErrUnsafeName}
	}
	return sys.ProjectDir(name), nil
}

// writeJSON fully overwrites path with v encoded as 2-space indented JSON.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
