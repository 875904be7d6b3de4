// Package gas holds the Apps Script domain model shared by every gasync
// component: project records, remote script files, the mapping between
// remote files and on-disk paths, and the error taxonomy callers branch on.
package gas

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// FileType is the Apps Script file type reported by the remote API.
type FileType string

const (
	// ServerJS is a server-side Apps Script source file.
	ServerJS FileType = "SERVER_JS"
	// HTML is an HtmlService template file.
	HTML FileType = "HTML"
	// JSON is the project manifest.
	JSON FileType = "JSON"
)

// File is the wire representation of one remote script file.
// Name is the Apps Script identifier without extension.
type File struct {
	Name   string   `json:"name"`
	Type   FileType `json:"type"`
	Source string   `json:"source"`
}

// Project is one entry of projects.json. Name is the key the project is
// stored under and is not serialized.
type Project struct {
	Name        string `json:"-"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Configured reports whether the project has a script ID assigned.
func (p Project) Configured() bool {
	return p.ID != ""
}

// Digest returns a stable content hash for a file set, independent of the
// order the files were collected in.
func Digest(files []File) string {
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha256.New()
	for _, f := range sorted {
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write([]byte(f.Type))
		h.Write([]byte{0})
		h.Write([]byte(f.Source))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
