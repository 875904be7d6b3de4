package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/papapumpkin/gasync/internal/gas"
)

type fakeAPI struct {
	requests atomic.Int32
	content  string
	status   int

	mu       sync.Mutex
	received []map[string]string
}

func (f *fakeAPI) files() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if r.URL.Path != "/v1/projects/abc/content" {
		http.NotFound(w, r)
		return
	}
	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
		return
	}
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.content))
	case http.MethodPut:
		var body struct {
			Files []map[string]string `json:"files"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.received = body.Files
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"scriptId":"abc"}`))
	default:
		http.Error(w, "method", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *ScriptClient {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return New(Options{Endpoint: srv.URL, HTTPClient: srv.Client()})
}

func TestGetContent(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{content: `{"scriptId":"abc","files":[
		{"name":"Code","type":"SERVER_JS","source":"function a() {}"},
		{"name":"appsscript","type":"JSON","source":"{}"},
		{"name":"Sidebar","type":"HTML","source":"<p>hi</p>"}]}`}
	c := newTestClient(t, api)

	files, err := c.GetContent(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []gas.File{
		{Name: "Code", Type: gas.ServerJS, Source: "function a() {}"},
		{Name: "appsscript", Type: gas.JSON, Source: "{}"},
		{Name: "Sidebar", Type: gas.HTML, Source: "<p>hi</p>"},
	}, files)
}

func TestGetContent_NoFileList(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, &fakeAPI{content: `{"scriptId":"abc"}`})

	_, err := c.GetContent(context.Background(), "abc")
	var re *gas.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "getContent", re.Op)
	assert.ErrorIs(t, err, gas.ErrNoFiles)
}

func TestGetContent_APIError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, &fakeAPI{status: http.StatusForbidden})

	_, err := c.GetContent(context.Background(), "abc")
	var re *gas.RemoteError
	require.True(t, errors.As(err, &re))

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Code)
}

func TestUpdateContent_SendsFullSet(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	c := newTestClient(t, api)

	err := c.UpdateContent(context.Background(), "abc", []gas.File{
		{Name: "Code", Type: gas.ServerJS, Source: "x"},
		{Name: "Page", Type: gas.HTML, Source: "<b>"},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.requests.Load())
	received := api.files()
	require.Len(t, received, 2)
	assert.Equal(t, "Page", received[1]["name"])
	assert.Equal(t, "HTML", received[1]["type"])
}

func TestUpdateContent_EmptyPayloadSendsNothing(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	c := newTestClient(t, api)

	err := c.UpdateContent(context.Background(), "abc", nil)
	assert.ErrorIs(t, err, gas.ErrEmptyPayload)
	assert.Equal(t, int32(0), api.requests.Load())
}

func TestMissingKey_FailsBeforeAnyRequest(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{content: `{"files":[]}`}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c := New(Options{Endpoint: srv.URL, KeyFile: filepath.Join(t.TempDir(), "key.json")})

	_, err := c.GetContent(context.Background(), "abc")
	var ae *gas.AuthenticationError
	require.True(t, errors.As(err, &ae))

	err = c.UpdateContent(context.Background(), "abc", []gas.File{{Name: "Code", Type: gas.ServerJS}})
	require.True(t, errors.As(err, &ae))

	assert.Equal(t, int32(0), api.requests.Load())
}
