// Package liveserver runs an application on a real port for the duration of
// a test. A LiveServer parses an address specification such as
// "localhost:8081-8179", starts a server goroutine on the first free
// candidate port, blocks until it is listening and exposes its URL.
//
// In-memory SQLite databases registered in the connection registry are
// marked shareable and handed to the server goroutine, so requests see the
// data the test wrote. That is the only state shared between the two.
//
// Neither Start nor Stop has a timeout: a server goroutine that never
// becomes ready, or never exits, blocks the caller.
package liveserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/kochabonline/liveserver/errors"
	"github.com/kochabonline/liveserver/log"
	"github.com/kochabonline/liveserver/store/db"
	"github.com/kochabonline/liveserver/transport"
	transporthttp "github.com/kochabonline/liveserver/transport/http"
)

var _ transport.Server = (*LiveServer)(nil)

var (
	// ErrNotSupported means no backend able to serve was configured.
	ErrNotSupported = errors.NotImplemented("live server not supported").WithReason(errors.ReasonNotSupported)
	// ErrStartup wraps the error raised by the server goroutine while binding.
	ErrStartup = errors.Internal("live server failed to start").WithReason(errors.ReasonStartupFailed)
	// ErrNotRunning is the panic value of URL, String and Join when the
	// server is not running.
	ErrNotRunning = errors.New(errors.UnknownCode, "live server is not running").WithReason(errors.ReasonNotRunning)
	// ErrAlreadyStarted is returned by Start while a server goroutine is alive.
	ErrAlreadyStarted = errors.Conflict("live server already started").WithReason(errors.ReasonAlreadyStarted)
)

type LiveServer struct {
	addr     string
	backend  transport.Backend
	registry *db.Registry
	static   *transport.Static
	log      *log.Logger

	handler     http.Handler
	backendOpts []transporthttp.Option

	mu     sync.RWMutex
	thread transport.Thread
}

type Option func(*LiveServer)

// WithHandler serves handler through the gin backend. WithBackend wins
// when both are given.
func WithHandler(handler http.Handler, opts ...transporthttp.Option) Option {
	return func(s *LiveServer) {
		s.handler = handler
		s.backendOpts = opts
	}
}

func WithBackend(backend transport.Backend) Option {
	return func(s *LiveServer) {
		s.backend = backend
	}
}

// WithRegistry replaces db.Connections as the source of shared connections.
func WithRegistry(registry *db.Registry) Option {
	return func(s *LiveServer) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithStatic serves static assets, if the backend supports it.
func WithStatic(static transport.Static) Option {
	return func(s *LiveServer) {
		if static.Root == "" {
			return
		}
		if static.URL == "" {
			static.URL = "/static/"
		}
		s.static = &static
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *LiveServer) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns an inert server for addr; nothing is parsed or bound until Start.
func New(addr string, opts ...Option) *LiveServer {
	s := &LiveServer{
		addr:     addr,
		registry: db.Connections,
		log:      log.DefaultLogger,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.backend == nil && s.handler != nil {
		opts := append([]transporthttp.Option{transporthttp.WithLogger(s.log)}, s.backendOpts...)
		s.backend = transporthttp.NewBackend(s.handler, opts...)
	}

	return s
}

// Addr returns the address specification the server was created with.
func (s *LiveServer) Addr() string {
	return s.addr
}

// Start binds and launches the server goroutine and blocks until it is
// listening. An invalid address or static URL is reported before anything
// is started; a failure inside the goroutine is returned wrapped in
// ErrStartup.
func (s *LiveServer) Start() error {
	host, ports, err := transport.ParseAddr(s.addr)
	if err != nil {
		return err
	}

	if s.static != nil {
		if err := s.static.Validate(); err != nil {
			return err
		}
	}

	if s.backend == nil {
		return ErrNotSupported.WithMetadata(map[string]string{"missing": "backend"})
	}
	caps := s.backend.Capabilities()
	if !caps.Has(transport.CapabilityServe) {
		return ErrNotSupported.WithMetadata(map[string]string{"capabilities": caps.String()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.thread != nil && s.thread.Alive() {
		return ErrAlreadyStarted
	}

	cfg := transport.ThreadConfig{
		Host:      host,
		Ports:     ports,
		Overrides: s.shareConnections(),
	}
	if s.static != nil {
		if caps.Has(transport.CapabilityStatic) {
			cfg.Static = s.static
		} else {
			s.log.Warn().Str("capabilities", caps.String()).Msg("backend cannot serve static files, ignoring")
		}
	}

	thread, err := s.backend.NewThread(cfg)
	if err != nil {
		return ErrStartup.WithCause(err)
	}

	thread.Start()
	<-thread.Ready()
	s.thread = thread

	if err := thread.Err(); err != nil {
		thread.Join()
		return ErrStartup.WithCause(err)
	}

	s.log.Info().Str("url", s.url(thread)).Msg("live server started")
	return nil
}

// shareConnections marks every in-memory database as shareable and returns
// them keyed by alias. Flipping the flag here is the one sanctioned exception
// to connections being owned by a single goroutine.
func (s *LiveServer) shareConnections() db.Overrides {
	overrides := db.Overrides{}
	for _, conn := range s.registry.All() {
		if !db.IsInMemory(conn) {
			continue
		}
		conn.SetAllowThreadSharing(true)
		overrides[conn.Alias()] = conn
	}
	return overrides
}

// Stop terminates the server goroutine, when the backend supports it, and
// waits for it to exit. Stopping a server that is not running is a no-op.
func (s *LiveServer) Stop() error {
	return s.Shutdown(context.Background())
}

// Shutdown is Stop with a context bounding graceful termination.
func (s *LiveServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.thread == nil {
		return nil
	}

	var err error
	if t, ok := s.thread.(transport.Terminator); ok && s.backend.Capabilities().Has(transport.CapabilityTerminate) {
		err = t.Terminate(ctx)
	}
	s.thread.Join()

	s.log.Info().Str("addr", s.addr).Msg("live server stopped")
	return err
}

// Run starts the server and blocks until it has been stopped.
func (s *LiveServer) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	s.mu.RLock()
	thread := s.thread
	s.mu.RUnlock()
	thread.Join()
	return http.ErrServerClosed
}

// Running reports whether the server goroutine is alive.
func (s *LiveServer) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thread != nil && s.thread.Alive()
}

// URL returns http://host:port of the running server. Calling it when the
// server is not running is a programming error and panics with ErrNotRunning.
func (s *LiveServer) URL() string {
	s.mu.RLock()
	thread := s.thread
	s.mu.RUnlock()

	if thread == nil || !thread.Alive() {
		panic(ErrNotRunning.WithMetadata(map[string]string{"addr": s.addr}))
	}
	return s.url(thread)
}

func (s *LiveServer) url(thread transport.Thread) string {
	return "http://" + net.JoinHostPort(thread.Host(), strconv.Itoa(thread.Port()))
}

// String is URL.
func (s *LiveServer) String() string {
	return s.URL()
}

// Join appends path to the URL.
func (s *LiveServer) Join(path string) string {
	return s.URL() + path
}

// GoString describes the server without ever panicking.
func (s *LiveServer) GoString() string {
	s.mu.RLock()
	thread := s.thread
	s.mu.RUnlock()

	if thread == nil || !thread.Alive() {
		return "<LiveServer (not running)>"
	}
	return "<LiveServer listening at " + s.url(thread) + ">"
}
