package syncer

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/papapumpkin/gasync/internal/gas"
)

// Status classifies one file in a Diff.
type Status string

const (
	// StatusSame means local and remote content are identical.
	StatusSame Status = "same"
	// StatusModified means both sides have the file with different content.
	StatusModified Status = "modified"
	// StatusLocalOnly means a push would add the file remotely.
	StatusLocalOnly Status = "local-only"
	// StatusRemoteOnly means a pull would create the file locally.
	StatusRemoteOnly Status = "remote-only"
)

// FileDiff is the comparison of one project file.
type FileDiff struct {
	Path    string
	Status  Status
	Added   int
	Removed int
	// Lines holds the line diff from remote to local, each line prefixed
	// with "+", "-" or " ". Empty unless Status is StatusModified.
	Lines []string
}

// Diff compares the remote project content with the local files a push
// would upload. Results are sorted by path.
func (s *Syncer) Diff(ctx context.Context, name string) ([]FileDiff, error) {
	p, err := s.projects.Resolve(name, s.system.DefaultProject)
	if err != nil {
		return nil, err
	}

	local := make(map[string]string)
	payload, err := s.Payload(p.Name)
	switch {
	case err == nil:
		for i, f := range payload.Files {
			local[payload.Paths[i]] = f.Source
		}
	case errors.Is(err, gas.ErrMissingProjectDir), errors.Is(err, gas.ErrEmptyPayload):
	default:
		return nil, err
	}

	files, err := s.remote.GetContent(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	remote := make(map[string]string, len(files))
	for _, f := range files {
		remote[gas.ToLocalPath(f)] = f.Source
	}

	return compare(remote, local), nil
}

// compare builds the per-path diff of two path-to-content maps.
func compare(remote, local map[string]string) []FileDiff {
	paths := make(map[string]bool, len(remote)+len(local))
	for p := range remote {
		paths[p] = true
	}
	for p := range local {
		paths[p] = true
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	out := make([]FileDiff, 0, len(sorted))
	for _, path := range sorted {
		r, inRemote := remote[path]
		l, inLocal := local[path]
		switch {
		case !inRemote:
			out = append(out, FileDiff{Path: path, Status: StatusLocalOnly, Added: countLines(l)})
		case !inLocal:
			out = append(out, FileDiff{Path: path, Status: StatusRemoteOnly, Removed: countLines(r)})
		case r == l:
			out = append(out, FileDiff{Path: path, Status: StatusSame})
		default:
			out = append(out, lineDiff(path, r, l))
		}
	}
	return out
}

// lineDiff runs a line-mode diff from remote to local content.
func lineDiff(path, remote, local string) FileDiff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(remote, local)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	fd := FileDiff{Path: path, Status: StatusModified}
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range splitLines(d.Text) {
			fd.Lines = append(fd.Lines, prefix+line)
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				fd.Added++
			case diffmatchpatch.DiffDelete:
				fd.Removed++
			}
		}
	}
	return fd
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLines(text string) int {
	return len(splitLines(text))
}
