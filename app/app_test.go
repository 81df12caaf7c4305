package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabonline/liveserver/liveserver"
	"github.com/kochabonline/liveserver/log"
	"github.com/kochabonline/liveserver/store/db"
)

func newLiveServer() *liveserver.LiveServer {
	return liveserver.New("127.0.0.1:0",
		liveserver.WithHandler(http.NotFoundHandler()),
		liveserver.WithLogger(log.Nop()),
		liveserver.WithRegistry(db.NewRegistry()),
	)
}

func TestNew(t *testing.T) {
	app := New(WithServer(newLiveServer(), nil), WithCleanup("nil", nil, 0))

	info := app.Info()
	assert.Equal(t, 1, info.ServerCount)
	assert.Equal(t, 0, info.CleanupCount)
	assert.False(t, info.Started)
}

func TestStartStop(t *testing.T) {
	s := newLiveServer()
	var cleaned atomic.Bool
	app := New(
		WithServer(s),
		WithShutdownTimeout(5*time.Second),
		WithCleanup("flag", func(ctx context.Context) error {
			cleaned.Store(true)
			return nil
		}, time.Second),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	require.Eventually(t, s.Running, 5*time.Second, 10*time.Millisecond)
	app.Stop()

	require.NoError(t, <-errCh)
	assert.False(t, s.Running())
	assert.True(t, cleaned.Load())
	assert.ErrorIs(t, app.Start(), ErrAlreadyStarted)
}

func TestStartServerError(t *testing.T) {
	bad := liveserver.New("nope", liveserver.WithLogger(log.Nop()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := New(WithServer(bad), WithContext(ctx)).Start()
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCleanupPanic(t *testing.T) {
	app := New()
	err := app.executeCleanupFunc(CleanupFunc{
		Name:    "panics",
		Fn:      func(context.Context) error { panic("boom") },
		Timeout: time.Second,
	})
	assert.ErrorIs(t, err, ErrCleanupPanic)
}

func TestStartReturnsWhenServerStops(t *testing.T) {
	s := newLiveServer()
	app := New(WithServer(s), WithSignals(syscall.SIGUSR1))

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	require.Eventually(t, s.Running, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application kept running after its only server stopped")
	}
}
