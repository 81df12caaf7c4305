package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/xid"

	kerrors "github.com/kochabonline/liveserver/errors"
	"github.com/kochabonline/liveserver/log"
	"github.com/kochabonline/liveserver/transport"
)

var (
	_ transport.Thread     = (*Thread)(nil)
	_ transport.Terminator = (*Thread)(nil)
)

const defaultHost = "localhost"

// Thread serves one gin engine on its own goroutine.
type Thread struct {
	id              string
	cfg             transport.ThreadConfig
	handler         http.Handler
	log             *log.Logger
	shutdownTimeout time.Duration

	mu     sync.RWMutex
	server *http.Server
	host   string
	port   int
	err    error

	startOnce sync.Once
	started   atomic.Bool
	ready     chan struct{}
	done      chan struct{}
}

func newThread(cfg transport.ThreadConfig, handler http.Handler, l *log.Logger, shutdownTimeout time.Duration) *Thread {
	id := xid.New().String()
	return &Thread{
		id:              id,
		cfg:             cfg,
		handler:         handler,
		log:             &log.Logger{Logger: l.With().Str("thread", id).Logger()},
		shutdownTimeout: shutdownTimeout,
		ready:           make(chan struct{}),
		done:            make(chan struct{}),
	}
}

func (t *Thread) ID() string {
	return t.id
}

// Start launches the serving goroutine. Later calls do nothing.
func (t *Thread) Start() {
	t.startOnce.Do(func() {
		t.started.Store(true)
		go t.run()
	})
}

func (t *Thread) run() {
	defer close(t.done)

	ln, err := t.listen()
	if err != nil {
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		t.log.Error().Err(err).Ints("ports", t.cfg.Ports).Msg("live server thread failed to start")
		close(t.ready)
		return
	}

	host := t.cfg.Host
	if host == "" {
		host = defaultHost
	}
	server := &http.Server{Handler: t.handler}

	t.mu.Lock()
	t.server = server
	t.host = host
	t.port = ln.Addr().(*net.TCPAddr).Port
	t.mu.Unlock()

	t.log.Info().Str("addr", ln.Addr().String()).Msg("live server thread listening")
	close(t.ready)

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.log.Error().Err(err).Msg("live server thread stopped serving")
	}
	t.log.Debug().Msg("live server thread exited")
}

// listen binds the first free candidate port. Ports already in use are
// skipped; any other failure is final.
func (t *Thread) listen() (net.Listener, error) {
	if err := t.cfg.Overrides.Validate(); err != nil {
		return nil, err
	}

	var lastErr error
	for _, port := range t.cfg.Ports {
		addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, err
		}
		t.log.Debug().Str("addr", addr).Msg("port in use, trying next candidate")
		lastErr = err
	}
	return nil, kerrors.ServiceUnavailable("no free port among %d candidates on %q", len(t.cfg.Ports), t.cfg.Host).
		WithCause(lastErr)
}

func (t *Thread) Ready() <-chan struct{} {
	return t.ready
}

func (t *Thread) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

func (t *Thread) Host() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.host
}

func (t *Thread) Port() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.port
}

// Alive reports whether the goroutine has been started and not yet exited.
func (t *Thread) Alive() bool {
	if !t.started.Load() {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Terminate gracefully shuts the server down, falling back to closing it
// when ctx expires.
func (t *Thread) Terminate(ctx context.Context) error {
	t.mu.RLock()
	server := t.server
	t.mu.RUnlock()
	if server == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok && t.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.shutdownTimeout)
		defer cancel()
	}

	if err := server.Shutdown(ctx); err != nil {
		t.log.Warn().Err(err).Msg("graceful shutdown interrupted, closing")
		_ = server.Close()
		return err
	}
	return nil
}

// Join waits for the goroutine to exit; it returns at once if Start was
// never called.
func (t *Thread) Join() {
	if !t.started.Load() {
		return
	}
	<-t.done
}
