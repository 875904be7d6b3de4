package gas

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	// CodeName is the conventional entry-point script.
	CodeName = "Code"
	// ManifestName is the remote name of the project manifest.
	ManifestName = "appsscript"
	// ManifestPath is where the manifest lives inside a project directory.
	ManifestPath = "system/appsscript.json"
)

var validExtensions = map[string]bool{
	".js":   true,
	".html": true,
	".json": true,
	".css":  true,
}

// ExtensionForType returns the local file extension (without dot) for a
// remote file type. Unknown types map to "js".
func ExtensionForType(t FileType) string {
	switch t {
	case HTML:
		return "html"
	case JSON:
		return "json"
	default:
		return "js"
	}
}

// ToLocalPath maps a remote file to its slash-separated path relative to the
// project directory.
func ToLocalPath(f File) string {
	switch f.Name {
	case CodeName:
		return "Code.js"
	case ManifestName:
		return ManifestPath
	}
	return f.Name + "." + ExtensionForType(f.Type)
}

// ToGASFile maps a project-relative path to the remote file name and type it
// would be uploaded as. The returned File has an empty Source. It reports
// false for every path whose mapping would not survive ToLocalPath unchanged:
// unsupported extensions, stylesheets, JSON files other than the manifest,
// the reserved names in non-canonical places, and paths that are not clean
// or leave the project directory.
func ToGASFile(relPath string) (File, bool) {
	p := filepath.ToSlash(relPath)
	if p == "" || path.Clean(p) != p || path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return File{}, false
	}
	if p == ManifestPath {
		return File{Name: ManifestName, Type: JSON}, true
	}

	ext := path.Ext(p)
	name := strings.TrimSuffix(p, ext)
	if name == "" || strings.HasSuffix(name, "/") {
		return File{}, false
	}

	switch name {
	case ManifestName:
		return File{}, false
	case CodeName:
		if ext != ".js" {
			return File{}, false
		}
		return File{Name: CodeName, Type: ServerJS}, true
	}

	switch ext {
	case ".js":
		return File{Name: name, Type: ServerJS}, true
	case ".html":
		return File{Name: name, Type: HTML}, true
	default:
		return File{}, false
	}
}

// IsValidProjectFile reports whether a file name is a candidate for upload.
// Candidates that ToGASFile rejects are skipped later without error.
func IsValidProjectFile(fileName string) bool {
	base := path.Base(filepath.ToSlash(fileName))
	ext := path.Ext(base)
	if validExtensions[ext] {
		return true
	}
	name := strings.TrimSuffix(base, ext)
	return name == CodeName || name == ManifestName
}
