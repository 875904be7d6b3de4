// Package git wraps the git CLI for the release pipeline and the repository
// housekeeping commands.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNotRepo indicates the working directory is not inside a git repository.
var ErrNotRepo = errors.New("not a git repository")

// Runner executes git commands in Dir.
type Runner struct {
	Dir string
}

// New returns a Runner for dir.
func New(dir string) *Runner {
	return &Runner{Dir: dir}
}

// output executes a git command and returns its raw stdout.
func (r *Runner) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

// run executes a git command and returns its trimmed stdout.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	out, err := r.output(ctx, args...)
	return strings.TrimSpace(out), err
}

// IsRepo reports whether Dir is inside a git work tree.
func (r *Runner) IsRepo(ctx context.Context) bool {
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// RequireRepo returns ErrNotRepo unless Dir is inside a git work tree.
func (r *Runner) RequireRepo(ctx context.Context) error {
	if !r.IsRepo(ctx) {
		return fmt.Errorf("%s: %w", r.Dir, ErrNotRepo)
	}
	return nil
}

// ChangedFiles returns the paths reported by git status, including
// untracked files. Renames report the new path.
func (r *Runner) ChangedFiles(ctx context.Context) ([]string, error) {
	out, err := r.output(ctx, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := line[3:]
		if _, after, ok := strings.Cut(path, " -> "); ok {
			path = after
		}
		files = append(files, strings.Trim(path, `"`))
	}
	return files, nil
}

// Add stages the given paths.
func (r *Runner) Add(ctx context.Context, paths ...string) error {
	_, err := r.run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Runner) HasStagedChanges(ctx context.Context) (bool, error) {
	_, err := r.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, err
}

// Commit records the staged changes with message.
func (r *Runner) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, "commit", "-m", message)
	return err
}

// TagExists reports whether a tag named tag exists locally.
func (r *Runner) TagExists(ctx context.Context, tag string) (bool, error) {
	out, err := r.run(ctx, "tag", "--list", tag)
	if err != nil {
		return false, err
	}
	return out == tag, nil
}

// CreateTag creates an annotated tag at HEAD.
func (r *Runner) CreateTag(ctx context.Context, tag, message string) error {
	_, err := r.run(ctx, "tag", "-a", tag, "-m", message)
	return err
}

// Remotes returns the configured remote names.
func (r *Runner) Remotes(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "remote")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// HasRemote reports whether a remote called name is configured.
func (r *Runner) HasRemote(ctx context.Context, name string) (bool, error) {
	remotes, err := r.Remotes(ctx)
	if err != nil {
		return false, err
	}
	for _, rm := range remotes {
		if rm == name {
			return true, nil
		}
	}
	return false, nil
}

// AddRemote registers a remote.
func (r *Runner) AddRemote(ctx context.Context, name, url string) error {
	_, err := r.run(ctx, "remote", "add", name, url)
	return err
}

// RemoveRemote deletes a remote.
func (r *Runner) RemoveRemote(ctx context.Context, name string) error {
	_, err := r.run(ctx, "remote", "remove", name)
	return err
}

// Fetch downloads refs from remote.
func (r *Runner) Fetch(ctx context.Context, remote string) error {
	_, err := r.run(ctx, "fetch", remote)
	return err
}

// Push pushes the current branch to remote, or refs when given.
func (r *Runner) Push(ctx context.Context, remote string, refs ...string) error {
	_, err := r.run(ctx, append([]string{"push", remote}, refs...)...)
	return err
}

// PushTags pushes every local tag to remote.
func (r *Runner) PushTags(ctx context.Context, remote string) error {
	_, err := r.run(ctx, "push", remote, "--tags")
	return err
}

// Pull merges branch from remote into the current branch.
func (r *Runner) Pull(ctx context.Context, remote, branch string) error {
	_, err := r.run(ctx, "pull", "--no-rebase", remote, branch)
	return err
}

// CurrentBranch returns the checked-out branch name.
func (r *Runner) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// BehindCount returns how many commits ref has that HEAD lacks.
func (r *Runner) BehindCount(ctx context.Context, ref string) (int, error) {
	out, err := r.run(ctx, "rev-list", "--count", "HEAD.."+ref)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parsing rev-list count %q: %w", out, err)
	}
	return n, nil
}

// StashPush stashes local changes with message. It reports false without
// stashing when the work tree is clean.
func (r *Runner) StashPush(ctx context.Context, message string) (bool, error) {
	changed, err := r.ChangedFiles(ctx)
	if err != nil {
		return false, err
	}
	if len(changed) == 0 {
		return false, nil
	}
	if _, err := r.run(ctx, "stash", "push", "--include-untracked", "-m", message); err != nil {
		return false, err
	}
	return true, nil
}

// StashPop restores the most recent stash.
func (r *Runner) StashPop(ctx context.Context) error {
	_, err := r.run(ctx, "stash", "pop")
	return err
}
