package release

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Type
	}{
		{"major", Major},
		{"minor", Minor},
		{"patch", Patch},
		{"preview", Preview},
		{" Minor ", Minor},
		{"", Patch},
		{"hotfix", Patch},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseType(tt.in), "input %q", tt.in)
	}
	assert.True(t, ValidType("preview"))
	assert.False(t, ValidType("hotfix"))
}

func TestBump(t *testing.T) {
	t.Parallel()
	tests := []struct {
		current string
		typ     Type
		want    string
	}{
		{"1.2.3", Major, "2.0.0"},
		{"1.2.3", Minor, "1.3.0"},
		{"1.2.3", Patch, "1.2.4"},
		{"1.2.3", Preview, "1.2.4-beta.1"},
		{"1.9.9", Minor, "1.10.0"},
		{"1.2.4-beta.1", Patch, "1.2.5"},
		{"v0.0.9", Patch, "0.0.10"},
	}
	for _, tt := range tests {
		got, err := Bump(tt.current, tt.typ)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.current, tt.typ)
	}
}

func TestBump_InvalidVersion(t *testing.T) {
	t.Parallel()
	_, err := Bump("not-a-version", Patch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid version "not-a-version"`)
}

func TestBump_AlwaysGreater(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		major := rapid.Uint64Range(0, 500).Draw(t, "major")
		minor := rapid.Uint64Range(0, 500).Draw(t, "minor")
		patch := rapid.Uint64Range(0, 500).Draw(t, "patch")
		typ := rapid.SampledFrom([]Type{Major, Minor, Patch, Preview}).Draw(t, "type")

		cur := semver.New(major, minor, patch, "", "")
		next, err := Bump(cur.String(), typ)
		if err != nil {
			t.Fatalf("bump %s %s: %v", cur, typ, err)
		}
		if !semver.MustParse(next).GreaterThan(cur) {
			t.Fatalf("%s is not greater than %s", next, cur)
		}
	})
}

func TestPlan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		current   string
		typ       Type
		changelog string
		want      string
		adopted   bool
	}{
		{
			name:    "no changelog",
			current: "1.2.3", typ: Minor,
			want: "1.3.0",
		},
		{
			name:      "changelog ahead is adopted",
			current:   "1.9.9",
			typ:       Patch,
			changelog: "# Changelog\n\n## [2.0.0] - 2025-01-01\n\n- big\n\n## [1.9.9] - 2024-12-01\n",
			want:      "2.0.0",
			adopted:   true,
		},
		{
			name:      "changelog equal is ignored",
			current:   "1.2.3",
			typ:       Patch,
			changelog: "# Changelog\n\n## [1.2.3] - 2025-01-01\n",
			want:      "1.2.4",
		},
		{
			name:      "changelog behind is ignored",
			current:   "1.2.3",
			typ:       Major,
			changelog: "# Changelog\n\n## [0.9.0] - 2024-01-01\n",
			want:      "2.0.0",
		},
		{
			name:      "malformed changelog version is ignored",
			current:   "1.2.3",
			typ:       Patch,
			changelog: "# Changelog\n\n## [9.x] - someday\n## Unreleased\n",
			want:      "1.2.4",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st, err := Plan(tt.current, tt.typ, []byte(tt.changelog))
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Next)
			assert.Equal(t, tt.adopted, st.Adopted)
			assert.Equal(t, "v"+tt.want, st.Tag())
		})
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "🚀 Major Release", Major.Label())
	assert.Equal(t, "🔍 Preview Release", Preview.Label())
}
