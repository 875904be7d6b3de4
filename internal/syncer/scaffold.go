package syncer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/gas"
	"github.com/papapumpkin/gasync/internal/logging"
)

// ScaffoldOptions names the optional files copied into a new project.
type ScaffoldOptions struct {
	// KeyFile is copied to system/key.json when it exists.
	KeyFile string
	// TemplatesDir holds appsscript.json, copied to system/appsscript.json
	// when it exists.
	TemplatesDir string
}

// ScaffoldResult reports what Create produced.
type ScaffoldResult struct {
	Dir            string
	KeyCopied      bool
	TemplateCopied bool
	Registered     bool
}

// Create makes a new project directory with system/ and files/
// subdirectories, copies the key and manifest template when available, and
// registers the project without a script ID. An existing directory fails
// with gas.ErrProjectExists.
func (s *Syncer) Create(name string, opts ScaffoldOptions) (ScaffoldResult, error) {
	dir, err := s.system.LocalProjectDir(name)
	if err != nil {
		return ScaffoldResult{}, err
	}
	if _, err := os.Stat(dir); err == nil {
		return ScaffoldResult{}, &gas.ProjectError{Project: name, Err: gas.ErrProjectExists}
	}

	for _, sub := range []string{"system", "files"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return ScaffoldResult{}, fmt.Errorf("creating %s: %w", sub, err)
		}
	}

	res := ScaffoldResult{Dir: dir}
	res.KeyCopied, err = s.copyOptional(opts.KeyFile, filepath.Join(dir, "system", "key.json"), "key.json")
	if err != nil {
		return res, err
	}
	template := ""
	if opts.TemplatesDir != "" {
		template = filepath.Join(opts.TemplatesDir, "appsscript.json")
	}
	res.TemplateCopied, err = s.copyOptional(template, filepath.Join(dir, filepath.FromSlash(gas.ManifestPath)), "appsscript.json template")
	if err != nil {
		return res, err
	}

	res.Registered, err = s.projects.Add(name, "")
	if err != nil {
		return res, err
	}
	s.logger.Info("Project created", zap.String(logging.DetailsKey, dir))
	return res, nil
}

// Register adds an existing project directory to the store. It is the
// backing operation of clone.
func (s *Syncer) Register(name, scriptID string) (bool, error) {
	dir, err := s.system.LocalProjectDir(name)
	if err != nil {
		return false, err
	}
	if !isDir(dir) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("creating project directory: %w", err)
		}
	}
	added, err := s.projects.Add(name, scriptID)
	if err != nil {
		return false, err
	}
	if added {
		s.logger.Info("Project added", zap.String(logging.DetailsKey, fmt.Sprintf("Project %s added to configuration", name)))
	}
	return added, nil
}

// SetID assigns a script ID to a registered project.
func (s *Syncer) SetID(name, scriptID string) error {
	ok, err := s.projects.UpdateID(name, scriptID)
	if err != nil {
		return err
	}
	if !ok {
		return &gas.ProjectError{Project: name, Err: gas.ErrUnknownProject}
	}
	s.logger.Info("Project updated", zap.String(logging.DetailsKey, fmt.Sprintf("Project %s ID updated to %s", name, scriptID)))
	return nil
}

// copyOptional copies src to dst when src exists, logging a warning
// otherwise.
func (s *Syncer) copyOptional(src, dst, label string) (bool, error) {
	if src == "" {
		s.logger.Warn("Scaffold file missing", zap.String(logging.DetailsKey, label+" not configured (copy manually if needed)"))
		return false, nil
	}
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Scaffold file missing", zap.String(logging.DetailsKey, label+" not found (copy manually if needed)"))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", label, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, fmt.Errorf("copying %s: %w", label, err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", dst, err)
	}
	return true, nil
}
