// Package release computes the next version of a repository and drives the
// release pipeline: manifest rewrites, changelog section, commit, tag and
// push.
package release

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Type selects how the version is bumped.
type Type string

const (
	// Major bumps M.m.p to (M+1).0.0.
	Major Type = "major"
	// Minor bumps M.m.p to M.(m+1).0.
	Minor Type = "minor"
	// Patch bumps M.m.p to M.m.(p+1).
	Patch Type = "patch"
	// Preview bumps M.m.p to M.m.(p+1)-beta.1.
	Preview Type = "preview"
)

// PreviewTag is the prerelease identifier attached by a preview bump.
const PreviewTag = "beta.1"

// ParseType maps s to a release type. Anything unrecognized is a patch.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Major, Minor, Patch, Preview:
		return t
	default:
		return Patch
	}
}

// ValidType reports whether s names a release type exactly.
func ValidType(s string) bool {
	switch Type(s) {
	case Major, Minor, Patch, Preview:
		return true
	}
	return false
}

// Label returns the changelog heading for the release type.
func (t Type) Label() string {
	switch t {
	case Major:
		return "🚀 Major Release"
	case Minor:
		return "✨ Minor Release"
	case Patch:
		return "🐛 Patch Release"
	case Preview:
		return "🔍 Preview Release"
	default:
		return "📦 Release"
	}
}

// Bump applies the bump rule for t to current. Prerelease and build parts of
// current are discarded before bumping.
func Bump(current string, t Type) (string, error) {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", current, err)
	}
	next := bump(cur, t)
	if !next.GreaterThan(cur) {
		return "", fmt.Errorf("bumped version %s is not greater than %s", next, cur)
	}
	return next.String(), nil
}

func bump(cur *semver.Version, t Type) *semver.Version {
	switch t {
	case Major:
		return semver.New(cur.Major()+1, 0, 0, "", "")
	case Minor:
		return semver.New(cur.Major(), cur.Minor()+1, 0, "", "")
	case Preview:
		return semver.New(cur.Major(), cur.Minor(), cur.Patch()+1, PreviewTag, "")
	default:
		return semver.New(cur.Major(), cur.Minor(), cur.Patch()+1, "", "")
	}
}

// State is the version decision for one release run. Next is strictly
// greater than Current unless the run resumes an interrupted release.
type State struct {
	Current string
	Next    string
	Type    Type
	// Adopted is set when Next was taken from the changelog instead of the
	// bump rule.
	Adopted bool
	// Resumed is set when the manifests already carry Next.
	Resumed bool
}

// Tag returns the git tag for Next.
func (s State) Tag() string {
	return "v" + s.Next
}

// Plan decides the next version. When the changelog already records a
// version strictly greater than current, that version is adopted as is.
// Lower, equal or malformed changelog versions are ignored.
func Plan(current string, t Type, changelog []byte) (State, error) {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return State{}, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	st := State{Current: cur.String(), Type: t}

	if highest, ok := HighestVersion(changelog); ok && highest.GreaterThan(cur) {
		st.Next = highest.String()
		st.Adopted = true
		return st, nil
	}

	st.Next = bump(cur, t).String()
	return st, nil
}
