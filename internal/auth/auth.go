// Package auth loads and checks the Google service-account key used to
// call the Apps Script API. Every failure is a *gas.AuthenticationError and
// happens before any network traffic.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/papapumpkin/gasync/internal/gas"
)

// ScriptScope grants read and write access to Apps Script projects.
const ScriptScope = "https://www.googleapis.com/auth/script.projects"

// Credentials is the subset of a service-account key gasync inspects.
type Credentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`

	source string
	raw    []byte
}

// Load reads and validates the key file at path.
func Load(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &gas.AuthenticationError{Path: path, Err: fmt.Errorf("key file not found: %w", err)}
		}
		return nil, &gas.AuthenticationError{Path: path, Err: err}
	}
	return Parse(data, path)
}

// Parse validates key material. source names the origin in errors. The
// fields type, project_id and private_key_id are required and reported
// together; a private_key, when present, must be an RSA key in PEM form.
func Parse(data []byte, source string) (*Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &gas.AuthenticationError{Path: source, Err: fmt.Errorf("parsing JSON: %w", err)}
	}

	var missing []string
	if c.Type == "" {
		missing = append(missing, "type")
	}
	if c.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if c.PrivateKeyID == "" {
		missing = append(missing, "private_key_id")
	}
	if len(missing) > 0 {
		return nil, &gas.AuthenticationError{
			Path: source,
			Err:  fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")),
		}
	}

	if c.PrivateKey != "" {
		if _, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.PrivateKey)); err != nil {
			return nil, &gas.AuthenticationError{Path: source, Err: fmt.Errorf("invalid private_key: %w", err)}
		}
	}

	c.source = source
	c.raw = data
	return &c, nil
}

// TokenSource returns an oauth2 token source scoped to ScriptScope. Tokens
// are fetched lazily by the returned source, not here.
func (c *Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.PrivateKey == "" || c.ClientEmail == "" {
		return nil, &gas.AuthenticationError{
			Path: c.source,
			Err:  errors.New("service account key needs private_key and client_email to sign tokens"),
		}
	}
	cfg, err := google.JWTConfigFromJSON(c.raw, ScriptScope)
	if err != nil {
		return nil, &gas.AuthenticationError{Path: c.source, Err: err}
	}
	return cfg.TokenSource(ctx), nil
}
