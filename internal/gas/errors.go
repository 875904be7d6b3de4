package gas

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel reasons carried inside ProjectError and RemoteError.
var (
	// ErrUnknownProject indicates the project name is not in projects.json.
	ErrUnknownProject = errors.New("project not found in configuration")
	// ErrMissingScriptID indicates the project has no Apps Script ID.
	ErrMissingScriptID = errors.New("project has no Google Apps Script ID configured")
	// ErrMissingProjectDir indicates the project directory does not exist.
	ErrMissingProjectDir = errors.New("project directory not found")
	// ErrEmptyPayload indicates a push found nothing to upload.
	ErrEmptyPayload = errors.New("no valid files found to upload")
	// ErrProjectExists indicates a project directory is already present.
	ErrProjectExists = errors.New("project already exists")
	// ErrNoFiles indicates the remote response carried no file list.
	ErrNoFiles = errors.New("no files found in project")
	// ErrUnsafeName indicates a remote file name resolves outside the project directory.
	ErrUnsafeName = errors.New("file name escapes project directory")
)

// ConfigError reports missing or malformed local configuration. Problems
// lists every invalid field found, not just the first.
type ConfigError struct {
	Path     string
	Problems []string
	Err      error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	if len(e.Problems) > 0 {
		b.WriteString(": " + strings.Join(e.Problems, "; "))
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// AuthenticationError reports missing or invalid credential material. It is
// always raised before any network call.
type AuthenticationError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("authentication: %v", e.Err)
	}
	return fmt.Sprintf("authentication: %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ProjectError reports an unusable project: unknown name, missing script ID,
// missing directory or an empty push payload.
type ProjectError struct {
	Project string
	Err     error
}

// Error implements the error interface.
func (e *ProjectError) Error() string {
	return fmt.Sprintf("project %q: %v", e.Project, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProjectError) Unwrap() error {
	return e.Err
}

// RemoteError reports a rejected API call or a malformed response.
type RemoteError struct {
	Op       string
	ScriptID string
	Err      error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.ScriptID == "" {
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.ScriptID, e.Err)
}

// Unwrap returns the underlying error.
func (e *RemoteError) Unwrap() error {
	return e.Err
}
