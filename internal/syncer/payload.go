package syncer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/gas"
	"github.com/papapumpkin/gasync/internal/logging"
)

// skippedDirs are never descended into when collecting project files.
var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// Payload is the file set a push would upload. Paths[i] is the local path
// Files[i] was read from.
type Payload struct {
	Dir   string
	Paths []string
	Files []gas.File
}

// Payload collects the uploadable files of the named project. Files that
// pass gas.IsValidProjectFile but have no remote mapping are skipped with a
// debug entry. Two local files mapping to the same remote name are an error.
func (s *Syncer) Payload(name string) (Payload, error) {
	dir := s.system.ProjectDir(name)
	if !isDir(dir) {
		return Payload{}, &gas.ProjectError{Project: name, Err: fmt.Errorf("%w: %s", gas.ErrMissingProjectDir, dir)}
	}

	candidates, err := walkProject(dir)
	if err != nil {
		return Payload{}, fmt.Errorf("scanning %s: %w", dir, err)
	}

	payload := Payload{Dir: dir}
	origin := make(map[string]string)
	for _, rel := range candidates {
		f, ok := gas.ToGASFile(rel)
		if !ok {
			s.logger.Debug("File skipped", zap.String(logging.DetailsKey, rel))
			continue
		}
		if prev, dup := origin[f.Name]; dup {
			return Payload{}, &gas.ProjectError{
				Project: name,
				Err:     fmt.Errorf("%s and %s both map to script file %q", prev, rel, f.Name),
			}
		}
		origin[f.Name] = rel

		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return Payload{}, fmt.Errorf("reading %s: %w", rel, err)
		}
		f.Source = string(data)
		payload.Paths = append(payload.Paths, rel)
		payload.Files = append(payload.Files, f)
	}

	if len(payload.Files) == 0 {
		return Payload{}, &gas.ProjectError{Project: name, Err: gas.ErrEmptyPayload}
	}
	return payload, nil
}

// Description is the local view of one configured project.
type Description struct {
	Project   gas.Project
	Dir       string
	DirExists bool
	Files     []string
}

// Describe reports the named project's metadata and local candidate files.
// Unlike Resolve it accepts projects without a script ID.
func (s *Syncer) Describe(name string) (Description, error) {
	if name == "" {
		name = s.system.DefaultProject
	}
	p, ok := s.projects.Lookup(name)
	if !ok {
		return Description{}, &gas.ProjectError{Project: name, Err: gas.ErrUnknownProject}
	}

	d := Description{Project: p, Dir: s.system.ProjectDir(name)}
	if !isDir(d.Dir) {
		return d, nil
	}
	d.DirExists = true

	files, err := walkProject(d.Dir)
	if err != nil {
		return d, fmt.Errorf("scanning %s: %w", d.Dir, err)
	}
	d.Files = files
	return d, nil
}

// walkProject returns the slash-separated relative paths of every regular
// file under dir that passes gas.IsValidProjectFile, in lexical order.
func walkProject(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !gas.IsValidProjectFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return out, err
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
