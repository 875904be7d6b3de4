package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/gas"
	"github.com/papapumpkin/gasync/internal/logging"
	"github.com/papapumpkin/gasync/internal/syncer"
)

// DefaultDedupWindow is how long a pushed digest suppresses identical
// pushes.
const DefaultDedupWindow = 10 * time.Minute

// Pusher builds and uploads push payloads. *syncer.Syncer satisfies it.
type Pusher interface {
	Resolve(name string) (gas.Project, error)
	Payload(name string) (syncer.Payload, error)
	PushPayload(ctx context.Context, p gas.Project, payload syncer.Payload) error
}

// AutoPusher pushes a project on demand, skipping uploads whose content is
// identical to the last successful push inside the dedup window.
type AutoPusher struct {
	// Notify, when set, is called by Handle after every attempt that was
	// not cancelled.
	Notify func(pushed bool, err error)

	pusher  Pusher
	project string
	last    *cache.Cache
	logger  *zap.Logger
}

// NewAutoPusher returns an AutoPusher for project. A window of zero uses
// DefaultDedupWindow.
func NewAutoPusher(p Pusher, project string, window time.Duration, logger *zap.Logger) *AutoPusher {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &AutoPusher{
		pusher:  p,
		project: project,
		last:    cache.New(window, 2*window),
		logger:  logger,
	}
}

// Push uploads the project unless nothing changed since the last push. It
// reports whether an upload happened.
func (a *AutoPusher) Push(ctx context.Context) (bool, error) {
	p, err := a.pusher.Resolve(a.project)
	if err != nil {
		return false, err
	}
	payload, err := a.pusher.Payload(p.Name)
	if err != nil {
		return false, err
	}

	digest := gas.Digest(payload.Files)
	if prev, ok := a.last.Get(p.Name); ok && prev.(string) == digest {
		a.logger.Debug("Push skipped, content unchanged", zap.String("project", p.Name))
		return false, nil
	}

	if err := a.pusher.PushPayload(ctx, p, payload); err != nil {
		return false, err
	}
	a.last.SetDefault(p.Name, digest)
	return true, nil
}

// Handle is a Watcher callback pushing after each burst. Failures are
// logged and watching continues.
func (a *AutoPusher) Handle(ctx context.Context, changed []string) {
	pushed, err := a.Push(ctx)
	if errors.Is(err, context.Canceled) {
		return
	}
	if a.Notify != nil {
		defer a.Notify(pushed, err)
	}
	switch {
	case err != nil:
		a.logger.Error("Auto-push failed", zap.String("project", a.project), zap.Error(err))
	case pushed:
		a.logger.Info("Auto-push completed",
			zap.String(logging.DetailsKey, fmt.Sprintf("%d changed files", len(changed))),
			zap.String("project", a.project))
	}
}
