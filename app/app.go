// Package app hosts one or more live servers until the process is told to
// stop, then shuts them down and runs cleanup functions.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kochabonline/liveserver/log"
	"github.com/kochabonline/liveserver/transport"
)

const (
	DefaultShutdownTimeout = 30 * time.Second
	DefaultCleanupTimeout  = 10 * time.Second
)

var DefaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT}

var (
	ErrAlreadyStarted = errors.New("application already started")
	ErrCleanupPanic   = errors.New("cleanup function panicked")
)

type Option func(*Application)

// Application runs servers side by side; the first one to fail stops the rest.
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	shutdownTimeout time.Duration
	cleanupTimeout  time.Duration
	signals         []os.Signal

	mu         sync.RWMutex
	servers    []transport.Server
	cleanupFns []CleanupFunc
	started    bool
}

// CleanupFunc runs after every server has stopped, bounded by Timeout.
type CleanupFunc struct {
	Name    string
	Fn      func(context.Context) error
	Timeout time.Duration
}

func New(opts ...Option) *Application {
	app := &Application{
		shutdownTimeout: DefaultShutdownTimeout,
		cleanupTimeout:  DefaultCleanupTimeout,
		signals:         append([]os.Signal(nil), DefaultSignals...),
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// WithContext makes ctx the parent of the application; cancelling it stops
// every server.
func WithContext(ctx context.Context) Option {
	return func(app *Application) {
		if ctx != nil {
			app.ctx, app.cancel = context.WithCancel(ctx)
		}
	}
}

// WithShutdownTimeout bounds each server's graceful shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.shutdownTimeout = timeout
		}
	}
}

// WithSignals replaces DefaultSignals.
func WithSignals(signals ...os.Signal) Option {
	return func(app *Application) {
		if len(signals) > 0 {
			app.signals = append([]os.Signal(nil), signals...)
		}
	}
}

// WithServer adds servers; nils are skipped.
func WithServer(servers ...transport.Server) Option {
	return func(app *Application) {
		for _, server := range servers {
			if server != nil {
				app.servers = append(app.servers, server)
			}
		}
	}
}

// WithCleanup registers fn to run on shutdown. A zero timeout means
// DefaultCleanupTimeout.
func WithCleanup(name string, fn func(context.Context) error, timeout time.Duration) Option {
	return func(app *Application) {
		if fn == nil {
			log.Warn().Str("name", name).Msg("nil cleanup function ignored")
			return
		}
		if timeout == 0 {
			timeout = app.cleanupTimeout
		}
		app.cleanupFns = append(app.cleanupFns, CleanupFunc{Name: name, Fn: fn, Timeout: timeout})
	}
}

// Start runs every server and blocks until a signal arrives, Stop is called,
// the parent context ends or a server fails. Cleanup functions run before it
// returns. A server returning http.ErrServerClosed has stopped normally.
func (app *Application) Start() error {
	servers, err := app.markStarted()
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(app.ctx)
	for _, server := range servers {
		app.serve(ctx, eg, server)
	}
	eg.Go(func() error {
		app.watchSignals(ctx)
		return nil
	})

	log.Debug().Int("servers", len(servers)).Msg("application started")
	err = eg.Wait()
	app.executeCleanup()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (app *Application) markStarted() ([]transport.Server, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.started {
		return nil, ErrAlreadyStarted
	}
	app.started = true
	return append([]transport.Server(nil), app.servers...), nil
}

// serve runs server and shuts it down once ctx is done. A server that stops
// on its own stops the application too.
func (app *Application) serve(ctx context.Context, eg *errgroup.Group, server transport.Server) {
	eg.Go(func() error {
		defer app.cancel()
		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

func (app *Application) watchSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, app.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		app.cancel()
	case <-ctx.Done():
	}
}

// Stop asks Start to shut everything down and return.
func (app *Application) Stop() {
	app.cancel()
}

func (app *Application) executeCleanup() {
	app.mu.RLock()
	cleanupFns := append([]CleanupFunc(nil), app.cleanupFns...)
	app.mu.RUnlock()

	var eg errgroup.Group
	for _, cleanup := range cleanupFns {
		eg.Go(func() error {
			return app.executeCleanupFunc(cleanup)
		})
	}

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("cleanup failed")
	}
}

func (app *Application) executeCleanupFunc(cleanup CleanupFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), cleanup.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("cleanup", cleanup.Name).Msg("cleanup function panicked")
				done <- ErrCleanupPanic
			}
		}()
		done <- cleanup.Fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn().Err(err).Str("cleanup", cleanup.Name).Msg("cleanup function failed")
		}
		return err
	case <-ctx.Done():
		log.Warn().Str("cleanup", cleanup.Name).Msg("cleanup function timed out")
		return ctx.Err()
	}
}

// Info is a snapshot of the application state.
func (app *Application) Info() ApplicationInfo {
	app.mu.RLock()
	defer app.mu.RUnlock()

	return ApplicationInfo{
		Started:      app.started,
		ServerCount:  len(app.servers),
		CleanupCount: len(app.cleanupFns),
	}
}

type ApplicationInfo struct {
	Started      bool `json:"started"`
	ServerCount  int  `json:"server_count"`
	CleanupCount int  `json:"cleanup_count"`
}
