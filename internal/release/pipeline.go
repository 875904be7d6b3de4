package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/logging"
)

// VCS is the version-control surface the pipeline drives. *git.Runner
// satisfies it.
type VCS interface {
	ChangedFiles(ctx context.Context) ([]string, error)
	Add(ctx context.Context, paths ...string) error
	HasStagedChanges(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error
	TagExists(ctx context.Context, tag string) (bool, error)
	CreateTag(ctx context.Context, tag, message string) error
	HasRemote(ctx context.Context, name string) (bool, error)
	Push(ctx context.Context, remote string, refs ...string) error
	PushTags(ctx context.Context, remote string) error
}

// Remote is the remote pushed to by the final step.
const Remote = "origin"

// Files locates the release manifests. Paths are relative to Dir.
type Files struct {
	Dir       string
	Package   string
	Changelog string
	Readme    string
}

func (f Files) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(f.Dir, rel)
}

func (f Files) managed() []string {
	return []string{f.Package, f.Changelog, f.Readme}
}

// Outcome is the result of a single step.
type Outcome string

const (
	// Done means the step made its change.
	Done Outcome = "done"
	// Skipped means the change was already in place.
	Skipped Outcome = "skipped"
	// Warned means a best-effort step could not complete.
	Warned Outcome = "warned"
	// Failed means a required step failed and the run stopped.
	Failed Outcome = "failed"
)

// StepResult records one step outcome.
type StepResult struct {
	Name    string
	Outcome Outcome
	Detail  string
}

// Result is the outcome of a release run.
type Result struct {
	State State
	Steps []StepResult
}

// Failed returns the failed step, if any.
func (r Result) Failed() (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Outcome == Failed {
			return s, true
		}
	}
	return StepResult{}, false
}

// Pipeline performs a release in a repository.
type Pipeline struct {
	vcs    VCS
	files  Files
	logger *zap.Logger
	now    func() time.Time
}

// NewPipeline returns a pipeline over vcs and files.
func NewPipeline(vcs VCS, files Files, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pipeline{vcs: vcs, files: files, logger: logger, now: time.Now}
}

// Plan reads the manifests and decides the version without changing
// anything. A run interrupted before its tag, whose manifests are still
// uncommitted, is resumed at the version it had written.
func (p *Pipeline) Plan(ctx context.Context, t Type) (State, error) {
	pkg, err := os.ReadFile(p.files.abs(p.files.Package))
	if err != nil {
		return State{}, fmt.Errorf("reading package manifest: %w", err)
	}
	current, err := PackageVersion(pkg)
	if err != nil {
		return State{}, err
	}
	changelog, err := readOptional(p.files.abs(p.files.Changelog))
	if err != nil {
		return State{}, err
	}

	if st, ok, err := p.resume(ctx, current, t, changelog); err != nil || ok {
		return st, err
	}
	return Plan(current, t, changelog)
}

// resume detects a half-finished run: the package manifest is modified in
// the work tree, the changelog has its section, and the tag is missing.
func (p *Pipeline) resume(ctx context.Context, current string, t Type, changelog []byte) (State, bool, error) {
	if !HasSection(changelog, current) {
		return State{}, false, nil
	}
	changed, err := p.vcs.ChangedFiles(ctx)
	if err != nil {
		return State{}, false, fmt.Errorf("checking working tree: %w", err)
	}
	if !slices.Contains(changed, filepath.ToSlash(p.files.Package)) {
		return State{}, false, nil
	}
	st := State{Current: current, Next: current, Type: t, Resumed: true}
	exists, err := p.vcs.TagExists(ctx, st.Tag())
	if err != nil || exists {
		return State{}, false, err
	}
	return st, true, nil
}

// Run executes every step in order. A failing required step aborts the
// rest; completed steps are not rolled back. The returned error is the
// failed step's error.
func (p *Pipeline) Run(ctx context.Context, t Type) (Result, error) {
	st, err := p.Plan(ctx, t)
	if err != nil {
		return Result{}, err
	}
	res := Result{State: st}
	p.logger.Info("Release started",
		zap.String(logging.DetailsKey, fmt.Sprintf("%s -> %s (%s)", st.Current, st.Next, st.Type)),
		zap.Bool("adopted", st.Adopted), zap.Bool("resumed", st.Resumed))

	r := &run{pipeline: p, state: st}
	for _, s := range r.steps() {
		sr, stepErr := r.execute(ctx, s)
		res.Steps = append(res.Steps, sr)
		if sr.Outcome == Failed {
			p.logger.Error("Release step failed", zap.String("step", s.name), zap.Error(stepErr))
			return res, fmt.Errorf("release step %s: %w", s.name, stepErr)
		}
	}

	p.logger.Info("Release completed", zap.String(logging.DetailsKey, "tag "+st.Tag()))
	return res, nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return data, nil
}
