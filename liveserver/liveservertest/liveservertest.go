// Package liveservertest provides the live server as a test fixture.
package liveservertest

import (
	"errors"
	"net/http"
	"testing"

	"github.com/kochabonline/liveserver/liveserver"
)

// New starts a live server serving handler and stops it when the test ends.
// The address comes from LIVESERVER_ADDR, defaulting to
// liveserver.DefaultAddr. The test is skipped when the server cannot be
// supported, e.g. a nil handler and no backend among opts.
func New(tb testing.TB, handler http.Handler, opts ...liveserver.Option) *liveserver.LiveServer {
	tb.Helper()

	cfg, err := liveserver.LoadConfig()
	if err != nil {
		tb.Fatalf("live server config: %v", err)
	}

	s := liveserver.NewFromConfig(cfg, handler, opts...)
	if err := s.Start(); err != nil {
		if errors.Is(err, liveserver.ErrNotSupported) {
			tb.Skipf("live server tests not supported: %v", err)
		}
		tb.Fatalf("start live server: %v", err)
	}

	tb.Cleanup(func() {
		if err := s.Stop(); err != nil {
			tb.Errorf("stop live server: %v", err)
		}
	})
	return s
}
