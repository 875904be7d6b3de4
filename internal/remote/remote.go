// Package remote talks to the Apps Script REST API. It only moves file
// lists; mapping them to and from disk is the syncer package's job.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/script/v1"

	"github.com/papapumpkin/gasync/internal/auth"
	"github.com/papapumpkin/gasync/internal/gas"
)

// Options configures a ScriptClient.
type Options struct {
	// KeyFile is the service-account key used to sign requests.
	KeyFile string
	// Endpoint overrides the API base URL.
	Endpoint string
	// Timeout bounds each API call. Zero means no per-call limit.
	Timeout time.Duration
	// HTTPClient, when set, must already authenticate its requests; the key
	// file is then never read.
	HTTPClient *http.Client
	// Logger receives per-call debug entries. Defaults to a no-op logger.
	Logger *zap.Logger
}

// ScriptClient reads and replaces Apps Script project content. It
// authenticates lazily on the first call, so a bad key surfaces as a
// *gas.AuthenticationError before any request is sent.
type ScriptClient struct {
	opts   Options
	logger *zap.Logger

	mu  sync.Mutex
	svc *script.Service
}

// New returns a client configured by opts. No I/O happens until the first
// call.
func New(opts Options) *ScriptClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptClient{opts: opts, logger: logger.Named("remote")}
}

// GetContent returns every file of the script project.
func (c *ScriptClient) GetContent(ctx context.Context, scriptID string) ([]gas.File, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.logger.Debug("getContent", zap.String("script_id", scriptID))
	content, err := svc.Projects.GetContent(scriptID).Context(ctx).Do()
	if err != nil {
		return nil, &gas.RemoteError{Op: "getContent", ScriptID: scriptID, Err: err}
	}
	if content.Files == nil {
		return nil, &gas.RemoteError{Op: "getContent", ScriptID: scriptID, Err: gas.ErrNoFiles}
	}

	files := make([]gas.File, 0, len(content.Files))
	for _, f := range content.Files {
		if f == nil {
			continue
		}
		files = append(files, gas.File{Name: f.Name, Type: gas.FileType(f.Type), Source: f.Source})
	}
	return files, nil
}

// UpdateContent replaces the whole project with files in one request.
func (c *ScriptClient) UpdateContent(ctx context.Context, scriptID string, files []gas.File) error {
	if len(files) == 0 {
		return &gas.RemoteError{Op: "updateContent", ScriptID: scriptID, Err: gas.ErrEmptyPayload}
	}
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body := &script.Content{ScriptId: scriptID, Files: make([]*script.File, 0, len(files))}
	for _, f := range files {
		body.Files = append(body.Files, &script.File{Name: f.Name, Type: string(f.Type), Source: f.Source})
	}

	c.logger.Debug("updateContent", zap.String("script_id", scriptID), zap.Int("files", len(files)))
	if _, err := svc.Projects.UpdateContent(scriptID, body).Context(ctx).Do(); err != nil {
		return &gas.RemoteError{Op: "updateContent", ScriptID: scriptID, Err: err}
	}
	return nil
}

// service builds the API service on first use and caches it.
func (c *ScriptClient) service(ctx context.Context) (*script.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc != nil {
		return c.svc, nil
	}

	var clientOpts []option.ClientOption
	if c.opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(c.opts.HTTPClient))
	} else {
		creds, err := auth.Load(c.opts.KeyFile)
		if err != nil {
			return nil, err
		}
		ts, err := creds.TokenSource(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}
	if c.opts.Endpoint != "" {
		endpoint := c.opts.Endpoint
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}

	svc, err := script.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, &gas.RemoteError{Op: "connect", Err: fmt.Errorf("creating script service: %w", err)}
	}
	c.svc = svc
	return svc, nil
}

func (c *ScriptClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opts.Timeout)
}
