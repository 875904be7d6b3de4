package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/gasync/internal/gas"
)

func testKeyPEM(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func writeKey(t *testing.T, fields map[string]string) string {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	t.Parallel()
	path := writeKey(t, map[string]string{
		"type":           "service_account",
		"project_id":     "demo",
		"private_key_id": "abc123",
		"private_key":    testKeyPEM(t),
		"client_email":   "bot@demo.iam.gserviceaccount.com",
	})

	creds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", creds.ProjectID)

	ts, err := creds.TokenSource(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ts)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "key.json"))

	var ae *gas.AuthenticationError
	require.True(t, errors.As(err, &ae))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{"not json", `{"type":`, "parsing JSON"},
		{"all required missing", `{}`, "missing required fields: type, project_id, private_key_id"},
		{"one missing", `{"type":"service_account","project_id":"p"}`, "missing required fields: private_key_id"},
		{"bad pem", `{"type":"service_account","project_id":"p","private_key_id":"k","private_key":"nope"}`, "invalid private_key"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.data), "key.json")
			var ae *gas.AuthenticationError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, "key.json", ae.Path)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestTokenSource_RequiresSigningMaterial(t *testing.T) {
	t.Parallel()
	creds, err := Parse([]byte(`{"type":"service_account","project_id":"p","private_key_id":"k"}`), "key.json")
	require.NoError(t, err)

	_, err = creds.TokenSource(context.Background())
	var ae *gas.AuthenticationError
	require.True(t, errors.As(err, &ae))
}
