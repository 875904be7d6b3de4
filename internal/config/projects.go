package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/papapumpkin/gasync/internal/gas"
)

// ProjectStore is the in-memory view of projects.json. Every mutation is
// written back immediately with a full overwrite; there is no locking.
type ProjectStore struct {
	path     string
	projects map[string]gas.Project
}

// OpenProjects loads projects.json at path. A missing file yields an empty
// store that Save will create; a malformed file fails with *gas.ConfigError.
func OpenProjects(path string) (*ProjectStore, error) {
	s := &ProjectStore{path: path, projects: make(map[string]gas.Project)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, &gas.ConfigError{Path: path, Err: err}
	}

	if err := json.Unmarshal(data, &s.projects); err != nil {
		return nil, &gas.ConfigError{Path: path, Err: fmt.Errorf("parsing JSON: %w", err)}
	}
	if s.projects == nil {
		s.projects = make(map[string]gas.Project)
	}
	for name, p := range s.projects {
		p.Name = name
		s.projects[name] = p
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *ProjectStore) Path() string {
	return s.path
}

// Save overwrites the backing file with the full project map.
func (s *ProjectStore) Save() error {
	return writeJSON(s.path, s.projects)
}

// Add registers a new project and saves. It returns false without writing
// when a project with that name already exists, so retries are no-ops.
func (s *ProjectStore) Add(name, scriptID string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, errors.New("project name is required")
	}
	if _, ok := s.projects[name]; ok {
		return false, nil
	}
	s.projects[name] = gas.Project{
		Name:        name,
		ID:          scriptID,
		Title:       capitalize(name),
		Description: name + " project",
	}
	if err := s.Save(); err != nil {
		delete(s.projects, name)
		return false, err
	}
	return true, nil
}

// UpdateID sets the script ID of an existing project and saves. It returns
// false without writing when the project is unknown.
func (s *ProjectStore) UpdateID(name, scriptID string) (bool, error) {
	p, ok := s.projects[name]
	if !ok {
		return false, nil
	}
	prev := p.ID
	p.ID = scriptID
	s.projects[name] = p
	if err := s.Save(); err != nil {
		p.ID = prev
		s.projects[name] = p
		return false, err
	}
	return true, nil
}

// Lookup returns the named project, if present.
func (s *ProjectStore) Lookup(name string) (gas.Project, bool) {
	p, ok := s.projects[name]
	return p, ok
}

// Resolve returns the project usable for pull and push. An empty name falls
// back to defaultName. Unknown projects and projects without a script ID
// fail with *gas.ProjectError.
func (s *ProjectStore) Resolve(name, defaultName string) (gas.Project, error) {
	if name == "" {
		name = defaultName
	}
	p, ok := s.projects[name]
	if !ok {
		return gas.Project{}, &gas.ProjectError{Project: name, Err: gas.ErrUnknownProject}
	}
	if !p.Configured() {
		return gas.Project{}, &gas.ProjectError{Project: name, Err: gas.ErrMissingScriptID}
	}
	return p, nil
}

// Names returns every project name in sorted order.
func (s *ProjectStore) Names() []string {
	names := make([]string, 0, len(s.projects))
	for name := range s.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of configured projects.
func (s *ProjectStore) Len() int {
	return len(s.projects)
}

// capitalize upper-cases the first rune of name.
func capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
