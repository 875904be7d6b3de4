package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/papapumpkin/gasync/internal/gas"
	"github.com/papapumpkin/gasync/internal/syncer"
)

type fakePusher struct {
	source  string
	pushes  int
	pushErr error
}

func (f *fakePusher) Resolve(name string) (gas.Project, error) {
	if name == "" {
		name = "leads"
	}
	return gas.Project{Name: name, ID: "script-" + name}, nil
}

func (f *fakePusher) Payload(string) (syncer.Payload, error) {
	return syncer.Payload{
		Paths: []string{"Code.js"},
		Files: []gas.File{{Name: "Code", Type: gas.ServerJS, Source: f.source}},
	}, nil
}

func (f *fakePusher) PushPayload(context.Context, gas.Project, syncer.Payload) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes++
	return nil
}

func TestAutoPusher_SkipsUnchangedContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := &fakePusher{source: "v1"}
	a := NewAutoPusher(p, "", time.Minute, nil)

	pushed, err := a.Push(ctx)
	require.NoError(t, err)
	assert.True(t, pushed)

	pushed, err = a.Push(ctx)
	require.NoError(t, err)
	assert.False(t, pushed)

	p.source = "v2"
	pushed, err = a.Push(ctx)
	require.NoError(t, err)
	assert.True(t, pushed)

	// Reverting to earlier content still uploads; only the last push counts.
	p.source = "v1"
	pushed, err = a.Push(ctx)
	require.NoError(t, err)
	assert.True(t, pushed)
	assert.Equal(t, 3, p.pushes)
}

func TestAutoPusher_FailedPushIsRetried(t *testing.T) {
	t.Parallel()
	p := &fakePusher{source: "v1", pushErr: errors.New("quota")}
	a := NewAutoPusher(p, "leads", time.Minute, nil)

	_, err := a.Push(context.Background())
	require.Error(t, err)

	p.pushErr = nil
	pushed, err := a.Push(context.Background())
	require.NoError(t, err)
	assert.True(t, pushed)
}

func TestAutoPusher_HandleLogs(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.InfoLevel)
	p := &fakePusher{source: "v1", pushErr: errors.New("quota")}
	a := NewAutoPusher(p, "leads", time.Minute, zap.New(core))

	a.Handle(context.Background(), []string{"Code.js"})
	require.Equal(t, 1, logs.FilterMessage("Auto-push failed").Len())

	p.pushErr = nil
	a.Handle(context.Background(), []string{"Code.js"})
	require.Equal(t, 1, logs.FilterMessage("Auto-push completed").Len())
}

func TestAutoPusher_HandleNotifies(t *testing.T) {
	t.Parallel()
	p := &fakePusher{source: "v1"}
	a := NewAutoPusher(p, "leads", time.Minute, nil)

	var got []bool
	a.Notify = func(pushed bool, err error) {
		assert.NoError(t, err)
		got = append(got, pushed)
	}
	a.Handle(context.Background(), nil)
	a.Handle(context.Background(), nil)
	assert.Equal(t, []bool{true, false}, got)
}
