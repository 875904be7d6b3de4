package release

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleChangelog = `# Changelog

All notable changes.

## [1.1.0] - 2025-01-02

### Added
- thing

## [1.0.0] - 2025-01-01

- init
`

func TestVersions(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"1.1.0", "1.0.0"}, Versions([]byte(sampleChangelog)))
	assert.Empty(t, Versions(nil))

	v, ok := HighestVersion([]byte("# C\n\n## 0.1.0\n\n## [v0.3.0]\n\n## [0.2.0] - x\n"))
	require.True(t, ok)
	assert.Equal(t, "0.3.0", v.String())
}

func TestSection(t *testing.T) {
	t.Parallel()
	got, ok := Section([]byte(sampleChangelog), "1.1.0")
	require.True(t, ok)
	assert.Equal(t, "## [1.1.0] - 2025-01-02\n\n### Added\n- thing\n\n", got)

	got, ok = Section([]byte(sampleChangelog), "1.0.0")
	require.True(t, ok)
	assert.Equal(t, "## [1.0.0] - 2025-01-01\n\n- init\n", got)

	assert.True(t, HasSection([]byte(sampleChangelog), "v1.0.0"))
	assert.False(t, HasSection([]byte(sampleChangelog), "2.0.0"))
}

func TestInsertSection(t *testing.T) {
	t.Parallel()
	date := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	section := RenderSection("1.2.0", Minor, date)

	out := InsertSection([]byte(sampleChangelog), section)

	assert.True(t, strings.HasPrefix(string(out), "# Changelog\n\n## [1.2.0] - 2025-03-07\n\n### ✨ Minor Release\n"))
	assert.Contains(t, string(out), "---\n\nAll notable changes.")
	assert.Equal(t, []string{"1.2.0", "1.1.0", "1.0.0"}, Versions(out))
}

func TestInsertSection_CreatesTitle(t *testing.T) {
	t.Parallel()
	out := InsertSection(nil, "## [0.1.0] - 2025-03-07\n")
	assert.Equal(t, "# Changelog\n\n## [0.1.0] - 2025-03-07\n", string(out))

	out = InsertSection([]byte("## [0.1.0] - 2025-01-01\n"), "## [0.2.0] - 2025-03-07\n")
	assert.Equal(t, "# Changelog\n\n## [0.2.0] - 2025-03-07\n\n## [0.1.0] - 2025-01-01\n", string(out))
}

func TestInsertSection_SetextTitle(t *testing.T) {
	t.Parallel()
	out := InsertSection([]byte("Changelog\n=========\n\n## [0.1.0]\n"), "## [0.2.0]\n")
	assert.Equal(t, "Changelog\n=========\n\n## [0.2.0]\n\n## [0.1.0]\n", string(out))
}

func TestTagMessage(t *testing.T) {
	t.Parallel()
	section := RenderSection("1.2.0", Minor, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC))

	msg := TagMessage("1.2.0", section)
	assert.Equal(t, "Release v1.2.0\n\n"+
		"- Minor Release\n"+
		"- Automated release v1.2.0\n"+
		"- Changed\n"+
		"- Version bumped to 1.2.0", msg)
}

func TestTagMessage_Truncated(t *testing.T) {
	t.Parallel()
	section := "## [1.0.0]\n" + strings.Repeat("* a long line of notes\n", 60)

	msg := TagMessage("1.0.0", section)
	assert.Len(t, []rune(msg), MaxTagMessage)
	assert.True(t, strings.HasSuffix(msg, "..."))
}
