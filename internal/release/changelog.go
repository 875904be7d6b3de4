package release

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MaxTagMessage is the rune limit of a tag message, ellipsis included.
const MaxTagMessage = 500

const defaultChangelogTitle = "# Changelog"

var headingVersion = regexp.MustCompile(`^\[?v?(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?)\]?`)

// heading is a markdown heading located in the source.
type heading struct {
	level int
	text  string
	start int // offset of the first byte of the heading line
	end   int // offset just past the heading, underline included
}

// headings lists every heading of src in document order.
func headings(src []byte) []heading {
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var out []heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		first, last := lines.At(0), lines.At(lines.Len()-1)

		var b strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}

		stop := last.Stop
		if stop > 0 && src[stop-1] == '\n' {
			stop--
		}
		start := lineStart(src, first.Start)
		end := lineEnd(src, stop)
		if !bytes.HasPrefix(bytes.TrimLeft(src[start:], " "), []byte("#")) {
			// setext heading: the underline belongs to it
			if next := lineEnd(src, end); isSetextUnderline(src[end:next]) {
				end = next
			}
		}
		out = append(out, heading{
			level: h.Level,
			text:  strings.TrimSpace(b.String()),
			start: start,
			end:   end,
		})
		return ast.WalkSkipChildren, nil
	})
	return out
}

// Versions returns the version of every level-2 heading that starts with a
// semantic version, such as "## [1.2.3] - 2025-01-31", in document order.
func Versions(src []byte) []string {
	var out []string
	for _, h := range headings(src) {
		if h.level != 2 {
			continue
		}
		if m := headingVersion.FindStringSubmatch(h.text); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

// HighestVersion returns the greatest well-formed version recorded in the
// changelog. Malformed entries are skipped.
func HighestVersion(src []byte) (*semver.Version, bool) {
	var best *semver.Version
	for _, v := range Versions(src) {
		parsed, err := semver.StrictNewVersion(v)
		if err != nil {
			continue
		}
		if best == nil || parsed.GreaterThan(best) {
			best = parsed
		}
	}
	return best, best != nil
}

// HasSection reports whether the changelog has a section for version.
func HasSection(src []byte, version string) bool {
	_, ok := Section(src, version)
	return ok
}

// Section returns the raw markdown of the section for version, from its
// heading up to the next heading of level 2 or above.
func Section(src []byte, version string) (string, bool) {
	want, err := semver.NewVersion(version)
	if err != nil {
		return "", false
	}
	hs := headings(src)
	for i, h := range hs {
		if h.level != 2 {
			continue
		}
		m := headingVersion.FindStringSubmatch(h.text)
		if m == nil {
			continue
		}
		got, err := semver.NewVersion(m[1])
		if err != nil || !got.Equal(want) {
			continue
		}
		end := len(src)
		for _, next := range hs[i+1:] {
			if next.level <= 2 {
				end = next.start
				break
			}
		}
		return string(src[h.start:end]), true
	}
	return "", false
}

// RenderSection returns a dated changelog section for version.
func RenderSection(version string, t Type, date time.Time) string {
	return fmt.Sprintf("## [%s] - %s\n\n### %s\n- Automated release v%s\n\n### Changed\n- Version bumped to %s\n\n---\n",
		version, date.Format("2006-01-02"), t.Label(), version, version)
}

// InsertSection places section directly after the changelog's level-1 title.
// A title is created when the document has none.
func InsertSection(src []byte, section string) []byte {
	section = strings.TrimRight(section, "\n") + "\n"

	for _, h := range headings(src) {
		if h.level != 1 {
			continue
		}
		var b bytes.Buffer
		b.Write(src[:h.end])
		if h.end == 0 || src[h.end-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
		b.WriteString(section)
		if rest := bytes.TrimLeft(src[h.end:], "\n"); len(rest) > 0 {
			b.WriteByte('\n')
			b.Write(rest)
		}
		return b.Bytes()
	}

	var b bytes.Buffer
	b.WriteString(defaultChangelogTitle + "\n\n" + section)
	if rest := bytes.TrimLeft(src, "\n"); len(rest) > 0 {
		b.WriteByte('\n')
		b.Write(rest)
	}
	return b.Bytes()
}

// TagMessage derives an annotated tag message from a changelog section:
// the version heading and rules are dropped, header markers and leading
// symbols are stripped, and every remaining line becomes a "- " bullet.
// The result is cut to MaxTagMessage runes with a trailing "...".
func TagMessage(version, section string) string {
	lines := []string{"Release v" + version}
	body := strings.Split(section, "\n")
	if len(body) > 0 && strings.HasPrefix(strings.TrimSpace(body[0]), "## ") {
		body = body[1:]
	}

	var bullets []string
	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isRule(trimmed) {
			continue
		}
		trimmed = strings.TrimLeft(trimmed, "#")
		trimmed = strings.TrimLeftFunc(trimmed, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if trimmed == "" {
			continue
		}
		bullets = append(bullets, "- "+trimmed)
	}
	if len(bullets) > 0 {
		lines = append(lines, "", strings.Join(bullets, "\n"))
	}

	msg := strings.Join(lines, "\n")
	if r := []rune(msg); len(r) > MaxTagMessage {
		msg = string(r[:MaxTagMessage-3]) + "..."
	}
	return msg
}

func lineStart(src []byte, off int) int {
	if i := bytes.LastIndexByte(src[:off], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// lineEnd returns the offset just past the newline ending the line that
// contains off, or len(src).
func lineEnd(src []byte, off int) int {
	if off >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[off:], '\n'); i >= 0 {
		return off + i + 1
	}
	return len(src)
}

func isSetextUnderline(line []byte) bool {
	t := bytes.TrimSpace(line)
	return len(t) > 0 && (len(bytes.Trim(t, "=")) == 0 || len(bytes.Trim(t, "-")) == 0)
}

func isRule(line string) bool {
	t := strings.ReplaceAll(line, " ", "")
	if len(t) < 3 {
		return false
	}
	for _, c := range []string{"-", "*", "_"} {
		if strings.Trim(t, c) == "" {
			return true
		}
	}
	return false
}
