package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initTestRepo creates a temporary git repo with an initial commit on main.
func initTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	ctx := context.Background()

	run(ctx, t, dir, "git", "init", "-b", "main")
	run(ctx, t, dir, "git", "config", "user.email", "test@test.com")
	run(ctx, t, dir, "git", "config", "user.name", "Test")
	run(ctx, t, dir, "git", "config", "commit.gpgsign", "false")
	run(ctx, t, dir, "git", "config", "tag.gpgsign", "false")

	writeFile(t, dir, "README.md", "# test\n")
	run(ctx, t, dir, "git", "add", "-A")
	run(ctx, t, dir, "git", "commit", "-m", "initial")
	return dir
}

// run executes a command in the given directory and fails the test on error.
func run(ctx context.Context, t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("%s %v failed: %v\n%s", name, args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if !New(initTestRepo(t)).IsRepo(ctx) {
		t.Error("expected initialized repo to be detected")
	}

	err := New(t.TempDir()).RequireRepo(ctx)
	if !errors.Is(err, ErrNotRepo) {
		t.Errorf("RequireRepo on plain dir = %v, want ErrNotRepo", err)
	}
}

func TestChangedFilesAndCommit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := initTestRepo(t)
	r := New(dir)

	files, err := r.ChangedFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("clean repo reported changes: %v", files)
	}

	writeFile(t, dir, "README.md", "# changed\n")
	writeFile(t, dir, "src/new.js", "x")

	files, err = r.ChangedFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"README.md": true, "src/new.js": true}
	if len(files) != len(want) {
		t.Fatalf("ChangedFiles = %v, want %v", files, want)
	}
	for _, f := range files {
		if !want[f] {
			t.Errorf("unexpected changed file %q", f)
		}
	}

	staged, err := r.HasStagedChanges(ctx)
	if err != nil || staged {
		t.Fatalf("HasStagedChanges before add = %v, %v", staged, err)
	}
	if err := r.Add(ctx, "README.md", "src/new.js"); err != nil {
		t.Fatal(err)
	}
	staged, err = r.HasStagedChanges(ctx)
	if err != nil || !staged {
		t.Fatalf("HasStagedChanges after add = %v, %v", staged, err)
	}
	if err := r.Commit(ctx, "chore: update"); err != nil {
		t.Fatal(err)
	}
	files, _ = r.ChangedFiles(ctx)
	if len(files) != 0 {
		t.Errorf("changes remain after commit: %v", files)
	}
}

func TestTags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := New(initTestRepo(t))

	exists, err := r.TagExists(ctx, "v1.0.0")
	if err != nil || exists {
		t.Fatalf("TagExists before create = %v, %v", exists, err)
	}
	if err := r.CreateTag(ctx, "v1.0.0", "Release v1.0.0"); err != nil {
		t.Fatal(err)
	}
	exists, err = r.TagExists(ctx, "v1.0.0")
	if err != nil || !exists {
		t.Fatalf("TagExists after create = %v, %v", exists, err)
	}
	if err := r.CreateTag(ctx, "v1.0.0", "again"); err == nil {
		t.Error("expected duplicate tag to fail")
	}
}

func TestRemotesPushAndBehind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := initTestRepo(t)
	r := New(dir)

	bare := t.TempDir()
	run(ctx, t, bare, "git", "init", "--bare", "-b", "main")

	has, err := r.HasRemote(ctx, "origin")
	if err != nil || has {
		t.Fatalf("HasRemote before add = %v, %v", has, err)
	}
	if err := r.AddRemote(ctx, "origin", bare); err != nil {
		t.Fatal(err)
	}
	if err := r.Push(ctx, "origin", "main"); err != nil {
		t.Fatal(err)
	}
	if err := r.CreateTag(ctx, "v0.1.0", "tag"); err != nil {
		t.Fatal(err)
	}
	if err := r.PushTags(ctx, "origin"); err != nil {
		t.Fatal(err)
	}

	// A second clone advances the remote so the first falls behind.
	other := filepath.Join(t.TempDir(), "other")
	run(ctx, t, filepath.Dir(other), "git", "clone", bare, other)
	run(ctx, t, other, "git", "config", "user.email", "test@test.com")
	run(ctx, t, other, "git", "config", "user.name", "Test")
	run(ctx, t, other, "git", "config", "commit.gpgsign", "false")
	writeFile(t, other, "later.txt", "later")
	run(ctx, t, other, "git", "add", "-A")
	run(ctx, t, other, "git", "commit", "-m", "later")
	run(ctx, t, other, "git", "push", "origin", "main")

	if err := r.Fetch(ctx, "origin"); err != nil {
		t.Fatal(err)
	}
	behind, err := r.BehindCount(ctx, "origin/main")
	if err != nil {
		t.Fatal(err)
	}
	if behind != 1 {
		t.Errorf("BehindCount = %d, want 1", behind)
	}

	writeFile(t, dir, "README.md", "# local edit\n")
	stashed, err := r.StashPush(ctx, "Auto-stash before update")
	if err != nil || !stashed {
		t.Fatalf("StashPush = %v, %v", stashed, err)
	}
	if err := r.Pull(ctx, "origin", "main"); err != nil {
		t.Fatal(err)
	}
	if err := r.StashPop(ctx); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# local edit\n" {
		t.Errorf("stash not restored, README = %q", data)
	}

	if err := r.RemoveRemote(ctx, "origin"); err != nil {
		t.Fatal(err)
	}
	remotes, err := r.Remotes(ctx)
	if err != nil || len(remotes) != 0 {
		t.Errorf("Remotes after remove = %v, %v", remotes, err)
	}
}

func TestStashPush_CleanTree(t *testing.T) {
	t.Parallel()
	stashed, err := New(initTestRepo(t)).StashPush(context.Background(), "noop")
	if err != nil || stashed {
		t.Errorf("StashPush on clean tree = %v, %v", stashed, err)
	}
}
