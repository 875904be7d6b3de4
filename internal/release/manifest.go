package release

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoVersion indicates a package manifest without a usable version field.
var ErrNoVersion = errors.New("package manifest has no version field")

var readmeBadge = regexp.MustCompile(`(badge/version-)((?:[0-9A-Za-z.+_]|--)+)(-)`)

// PackageVersion returns the version field of a package.json document.
func PackageVersion(data []byte) (string, error) {
	var manifest struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("parsing package manifest: %w", err)
	}
	if strings.TrimSpace(manifest.Version) == "" {
		return "", ErrNoVersion
	}
	return manifest.Version, nil
}

// SetPackageVersion rewrites the top-level version member of a package.json
// document in place, leaving the rest of the formatting intact. Nested
// "version" keys such as volta.version are never touched.
func SetPackageVersion(data []byte, version string) ([]byte, error) {
	start, end, err := topLevelVersion(data)
	if err != nil {
		return nil, err
	}
	quoted, err := json.Marshal(version)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+len(quoted))
	out = append(out, data[:start]...)
	out = append(out, quoted...)
	out = append(out, data[end:]...)
	return out, nil
}

// topLevelVersion returns the byte range of the quoted value of the
// top-level "version" member. With duplicate keys the last one wins, as it
// does for json.Unmarshal.
func topLevelVersion(data []byte) (int, int, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return 0, 0, fmt.Errorf("parsing package manifest: %w", err)
	}
	if tok != json.Delim('{') {
		return 0, 0, ErrNoVersion
	}

	start, end := -1, -1
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return 0, 0, fmt.Errorf("parsing package manifest: %w", err)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return 0, 0, fmt.Errorf("parsing package manifest: %w", err)
		}
		if key != "version" {
			continue
		}
		if len(raw) == 0 || raw[0] != '"' {
			start, end = -1, -1
			continue
		}
		e := int(dec.InputOffset())
		s := e - len(raw)
		if s < 0 || !bytes.Equal(data[s:e], raw) {
			return 0, 0, errors.New("parsing package manifest: cannot locate version value")
		}
		start, end = s, e
	}
	if start < 0 {
		return 0, 0, ErrNoVersion
	}
	return start, end, nil
}

// SetReadmeBadge replaces the version in a shields.io style badge
// ("badge/version-1.2.3-blue"). Dashes are escaped as "--" the way shields
// expects. It reports false when the README has no badge or already shows
// version.
func SetReadmeBadge(data []byte, version string) ([]byte, bool) {
	loc := readmeBadge.FindSubmatchIndex(data)
	if loc == nil {
		return data, false
	}
	escaped := strings.ReplaceAll(version, "-", "--")
	if string(data[loc[4]:loc[5]]) == escaped {
		return data, false
	}
	out := make([]byte, 0, len(data)+len(escaped))
	out = append(out, data[:loc[4]]...)
	out = append(out, escaped...)
	out = append(out, data[loc[5]:]...)
	return out, true
}

// BadgeVersion returns the unescaped version shown by the README badge.
func BadgeVersion(data []byte) (string, bool) {
	m := readmeBadge.FindSubmatch(data)
	if m == nil {
		return "", false
	}
	return strings.ReplaceAll(string(m[2]), "--", "-"), true
}
