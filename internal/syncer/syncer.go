// Package syncer moves Apps Script projects between the remote API and the
// local projects directory: pull, push, diff and project scaffolding.
//
// Every operation resolves and validates the project before touching the
// network, so configuration problems never leave partial side effects.
package syncer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/config"
	"github.com/papapumpkin/gasync/internal/gas"
	"github.com/papapumpkin/gasync/internal/logging"
)

// Remote reads and replaces the content of a script project.
type Remote interface {
	GetContent(ctx context.Context, scriptID string) ([]gas.File, error)
	UpdateContent(ctx context.Context, scriptID string, files []gas.File) error
}

// Syncer runs sync operations for the projects registered in a store.
type Syncer struct {
	remote   Remote
	system   config.System
	projects *config.ProjectStore
	logger   *zap.Logger
}

// New returns a Syncer. sys must already be resolved against the working
// root (see config.System.Within).
func New(remote Remote, sys config.System, projects *config.ProjectStore, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{remote: remote, system: sys, projects: projects, logger: logger}
}

// PullResult describes a completed pull.
type PullResult struct {
	Project gas.Project
	Dir     string
	Written []string
}

// Pull downloads every remote file of the project into its directory.
// Existing files are overwritten and unrelated local files are left alone.
// A failure midway leaves already written files in place.
func (s *Syncer) Pull(ctx context.Context, name string) (PullResult, error) {
	p, err := s.projects.Resolve(name, s.system.DefaultProject)
	if err != nil {
		return PullResult{}, err
	}
	s.logger.Info("Pull started", zap.String(logging.DetailsKey, fmt.Sprintf("Project: %s, ID: %s", p.Name, p.ID)))

	files, err := s.remote.GetContent(ctx, p.ID)
	if err != nil {
		s.logger.Error("Pull failed", zap.String(logging.DetailsKey, p.Name), zap.Error(err))
		return PullResult{}, err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		rel := gas.ToLocalPath(f)
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return PullResult{}, &gas.RemoteError{
				Op:       "getContent",
				ScriptID: p.ID,
				Err:      fmt.Errorf("%w: %q", gas.ErrUnsafeName, f.Name),
			}
		}
		paths[i] = rel
	}

	dir := s.system.ProjectDir(p.Name)
	if err := os.MkdirAll(filepath.Join(dir, "system"), 0o755); err != nil {
		return PullResult{}, fmt.Errorf("creating project directory: %w", err)
	}

	res := PullResult{Project: p, Dir: dir}
	for i, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(paths[i]))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return res, fmt.Errorf("creating directory for %s: %w", paths[i], err)
		}
		if err := os.WriteFile(target, []byte(f.Source), 0o644); err != nil {
			return res, fmt.Errorf("writing %s: %w", paths[i], err)
		}
		res.Written = append(res.Written, paths[i])
		s.logger.Debug("File downloaded", zap.String(logging.DetailsKey, paths[i]))
	}

	s.logger.Info("Pull completed", zap.String(logging.DetailsKey,
		fmt.Sprintf("Project %s pulled successfully (%d files)", p.Name, len(res.Written))))
	return res, nil
}

// PushResult describes a completed push.
type PushResult struct {
	Project gas.Project
	Paths   []string
	Digest  string
}

// Push uploads the project's local files in a single request. It fails
// without any remote call when the project directory is missing or holds
// no uploadable files.
func (s *Syncer) Push(ctx context.Context, name string) (PushResult, error) {
	p, err := s.projects.Resolve(name, s.system.DefaultProject)
	if err != nil {
		return PushResult{}, err
	}
	s.logger.Info("Push started", zap.String(logging.DetailsKey, fmt.Sprintf("Project: %s, ID: %s", p.Name, p.ID)))

	payload, err := s.Payload(p.Name)
	if err != nil {
		return PushResult{}, err
	}

	if err := s.PushPayload(ctx, p, payload); err != nil {
		return PushResult{}, err
	}
	return PushResult{Project: p, Paths: payload.Paths, Digest: gas.Digest(payload.Files)}, nil
}

// PushPayload uploads an already collected payload for p.
func (s *Syncer) PushPayload(ctx context.Context, p gas.Project, payload Payload) error {
	if len(payload.Files) == 0 {
		return &gas.ProjectError{Project: p.Name, Err: gas.ErrEmptyPayload}
	}
	if err := s.remote.UpdateContent(ctx, p.ID, payload.Files); err != nil {
		s.logger.Error("Push failed", zap.String(logging.DetailsKey, p.Name), zap.Error(err))
		return err
	}
	s.logger.Info("Push completed", zap.String(logging.DetailsKey,
		fmt.Sprintf("Project %s pushed successfully (%d files)", p.Name, len(payload.Files))))
	return nil
}

// Resolve returns the project used for pull and push, falling back to the
// default project for an empty name.
func (s *Syncer) Resolve(name string) (gas.Project, error) {
	return s.projects.Resolve(name, s.system.DefaultProject)
}

// ProjectDir returns the local directory of the named project.
func (s *Syncer) ProjectDir(name string) string {
	return s.system.ProjectDir(name)
}
