package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/papapumpkin/gasync/internal/auth"
	"github.com/papapumpkin/gasync/internal/gas"
)

// Report collects validation findings. Errors make the configuration
// unusable; warnings are informational.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether no errors were found.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks config.json, projects.json and key.json under s and the
// directories they point at. It never stops at the first problem.
// When requireKey is false a missing key file is only a warning.
func Validate(s Settings, requireKey bool) Report {
	var r Report

	sys, sysErr := LoadSystem(s.Path(s.ConfigFile))
	if sysErr != nil {
		addConfigError(&r, sysErr)
	}

	projects := validateProjectsFile(&r, s.Path(s.ProjectsFile))
	validateKey(&r, s.Path(s.KeyFile), requireKey)

	if sysErr != nil {
		return r
	}
	sys = sys.Within(s.Root)

	if !dirExists(sys.ProjectsPath) {
		r.errorf("projects path does not exist: %s", sys.ProjectsPath)
	}
	if !dirExists(sys.LogsPath) {
		r.warnf("logs path does not exist: %s", sys.LogsPath)
	}

	if projects == nil {
		return r
	}
	if _, ok := projects.Lookup(sys.DefaultProject); !ok {
		r.errorf("default project %q not found in %s", sys.DefaultProject, s.ProjectsFile)
	}
	for _, name := range projects.Names() {
		p, _ := projects.Lookup(name)
		if strings.TrimSpace(p.Title) == "" {
			r.errorf("project %q missing title", name)
		}
		if strings.TrimSpace(p.ID) == "" {
			r.warnf("project %q has no script ID", name)
		}
	}
	return r
}

func validateProjectsFile(r *Report, path string) *ProjectStore {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.errorf("%s not found", path)
		return nil
	}
	store, err := OpenProjects(path)
	if err != nil {
		addConfigError(r, err)
		return nil
	}
	if store.Len() == 0 {
		r.errorf("no projects defined in %s", path)
	}
	return store
}

func validateKey(r *Report, path string, required bool) {
	_, err := auth.Load(path)
	if err == nil {
		return
	}
	if errors.Is(err, os.ErrNotExist) && !required {
		r.warnf("%s not found; pull and push will fail until it exists", path)
		return
	}
	r.errorf("%v", err)
}

// addConfigError flattens a *gas.ConfigError into one finding per problem.
func addConfigError(r *Report, err error) {
	var ce *gas.ConfigError
	if errors.As(err, &ce) && len(ce.Problems) > 0 {
		for _, p := range ce.Problems {
			r.errorf("%s: %s", ce.Path, p)
		}
		return
	}
	r.errorf("%v", err)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
