package release

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/logging"
)

// step is one idempotent unit of the pipeline. done reports whether the
// step's change is already in place; apply makes it.
type step struct {
	name     string
	required bool
	done     func(ctx context.Context) (bool, error)
	apply    func(ctx context.Context) (Outcome, string, error)
}

type run struct {
	pipeline *Pipeline
	state    State
}

func (r *run) steps() []step {
	return []step{
		{name: "preflight", required: true, apply: r.preflight},
		{name: "package", required: true, done: r.packageDone, apply: r.writePackage},
		{name: "changelog", required: true, done: r.changelogDone, apply: r.writeChangelog},
		{name: "readme", apply: r.writeReadme},
		{name: "commit", required: true, apply: r.commit},
		{name: "tag", required: true, done: r.tagDone, apply: r.tag},
		{name: "push", apply: r.push},
	}
}

func (r *run) execute(ctx context.Context, s step) (StepResult, error) {
	log := r.pipeline.logger.With(zap.String("step", s.name))
	sr := StepResult{Name: s.name}

	if s.done != nil {
		done, err := s.done(ctx)
		if err != nil {
			return r.fail(log, s, sr, err)
		}
		if done {
			sr.Outcome = Skipped
			sr.Detail = "already applied"
			log.Debug("Release step skipped")
			return sr, nil
		}
	}

	outcome, detail, err := s.apply(ctx)
	if err != nil {
		return r.fail(log, s, sr, err)
	}
	sr.Outcome, sr.Detail = outcome, detail
	if outcome == Warned {
		log.Warn("Release step incomplete", zap.String(logging.DetailsKey, detail))
	} else {
		log.Debug("Release step finished", zap.String("outcome", string(outcome)))
	}
	return sr, nil
}

func (r *run) fail(log *zap.Logger, s step, sr StepResult, err error) (StepResult, error) {
	sr.Detail = err.Error()
	if s.required {
		sr.Outcome = Failed
		return sr, err
	}
	sr.Outcome = Warned
	log.Warn("Release step incomplete", zap.String(logging.DetailsKey, sr.Detail))
	return sr, nil
}

// preflight requires a repository whose only uncommitted changes are the
// release manifests themselves.
func (r *run) preflight(ctx context.Context) (Outcome, string, error) {
	changed, err := r.pipeline.vcs.ChangedFiles(ctx)
	if err != nil {
		return Failed, "", err
	}
	managed := r.pipeline.files.managed()
	var foreign []string
	for _, f := range changed {
		if !slices.Contains(managed, f) {
			foreign = append(foreign, f)
		}
	}
	if len(foreign) > 0 {
		return Failed, "", fmt.Errorf("working directory has uncommitted changes: %s", strings.Join(foreign, ", "))
	}
	return Done, "working directory clean", nil
}

func (r *run) packageDone(_ context.Context) (bool, error) {
	data, err := os.ReadFile(r.pipeline.files.abs(r.pipeline.files.Package))
	if err != nil {
		return false, fmt.Errorf("reading package manifest: %w", err)
	}
	v, err := PackageVersion(data)
	if err != nil {
		return false, err
	}
	return v == r.state.Next, nil
}

func (r *run) writePackage(_ context.Context) (Outcome, string, error) {
	path := r.pipeline.files.abs(r.pipeline.files.Package)
	data, err := os.ReadFile(path)
	if err != nil {
		return Failed, "", fmt.Errorf("reading package manifest: %w", err)
	}
	out, err := SetPackageVersion(data, r.state.Next)
	if err != nil {
		return Failed, "", err
	}
	if v, err := PackageVersion(out); err != nil || v != r.state.Next {
		return Failed, "", fmt.Errorf("package manifest version not updated to %s", r.state.Next)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return Failed, "", fmt.Errorf("writing package manifest: %w", err)
	}
	return Done, "version " + r.state.Next, nil
}

func (r *run) changelogDone(_ context.Context) (bool, error) {
	data, err := readOptional(r.pipeline.files.abs(r.pipeline.files.Changelog))
	if err != nil {
		return false, err
	}
	return HasSection(data, r.state.Next), nil
}

func (r *run) writeChangelog(_ context.Context) (Outcome, string, error) {
	path := r.pipeline.files.abs(r.pipeline.files.Changelog)
	data, err := readOptional(path)
	if err != nil {
		return Failed, "", err
	}
	section := RenderSection(r.state.Next, r.state.Type, r.pipeline.now())
	if err := os.WriteFile(path, InsertSection(data, section), 0o644); err != nil {
		return Failed, "", fmt.Errorf("writing changelog: %w", err)
	}
	return Done, "section " + r.state.Next, nil
}

func (r *run) writeReadme(_ context.Context) (Outcome, string, error) {
	path := r.pipeline.files.abs(r.pipeline.files.Readme)
	data, err := readOptional(path)
	if err != nil {
		return Warned, err.Error(), nil
	}
	if data == nil {
		return Warned, "README not found", nil
	}
	v, ok := BadgeVersion(data)
	if !ok {
		return Warned, "no version badge in README", nil
	}
	if v == r.state.Next {
		return Skipped, "badge already current", nil
	}
	out, _ := SetReadmeBadge(data, r.state.Next)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return Warned, fmt.Sprintf("writing README: %v", err), nil
	}
	return Done, "badge " + r.state.Next, nil
}

func (r *run) commit(ctx context.Context) (Outcome, string, error) {
	vcs := r.pipeline.vcs
	var paths []string
	for _, f := range r.pipeline.files.managed() {
		if _, err := os.Stat(r.pipeline.files.abs(f)); err == nil {
			paths = append(paths, f)
		}
	}
	if err := vcs.Add(ctx, paths...); err != nil {
		return Failed, "", err
	}
	staged, err := vcs.HasStagedChanges(ctx)
	if err != nil {
		return Failed, "", err
	}
	if !staged {
		return Skipped, "nothing to commit", nil
	}
	msg := CommitMessage(r.state.Next)
	if err := vcs.Commit(ctx, msg); err != nil {
		return Failed, "", err
	}
	return Done, msg, nil
}

func (r *run) tagDone(ctx context.Context) (bool, error) {
	return r.pipeline.vcs.TagExists(ctx, r.state.Tag())
}

func (r *run) tag(ctx context.Context) (Outcome, string, error) {
	changelog, err := readOptional(r.pipeline.files.abs(r.pipeline.files.Changelog))
	if err != nil {
		return Failed, "", err
	}
	section, _ := Section(changelog, r.state.Next)
	if err := r.pipeline.vcs.CreateTag(ctx, r.state.Tag(), TagMessage(r.state.Next, section)); err != nil {
		return Failed, "", err
	}
	return Done, r.state.Tag(), nil
}

func (r *run) push(ctx context.Context) (Outcome, string, error) {
	vcs := r.pipeline.vcs
	ok, err := vcs.HasRemote(ctx, Remote)
	if err != nil {
		return Warned, err.Error(), nil
	}
	if !ok {
		return Warned, "no " + Remote + " remote configured", nil
	}
	if err := vcs.Push(ctx, Remote, "HEAD"); err != nil {
		return Warned, err.Error(), nil
	}
	if err := vcs.PushTags(ctx, Remote); err != nil {
		return Warned, err.Error(), nil
	}
	return Done, "pushed to " + Remote, nil
}

// CommitMessage is the message of the version bump commit.
func CommitMessage(version string) string {
	return "chore: bump version to " + version
}
