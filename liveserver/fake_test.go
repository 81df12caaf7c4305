package liveserver

import (
	"context"
	"time"

	"github.com/kochabonline/liveserver/transport"
)

const (
	testTimeout = 5 * time.Second
	testTick    = 10 * time.Millisecond
)

// fakeBackend records the thread configuration it was asked for and hands
// out fakeThreads that "bind" the first candidate port.
type fakeBackend struct {
	caps    transport.Capability
	err     error
	created int
	cfg     transport.ThreadConfig
	thread  *fakeThread
}

func (b *fakeBackend) Capabilities() transport.Capability {
	return b.caps
}

func (b *fakeBackend) NewThread(cfg transport.ThreadConfig) (transport.Thread, error) {
	b.created++
	b.cfg = cfg
	b.thread = &fakeThread{cfg: cfg, err: b.err, ready: make(chan struct{}), done: make(chan struct{})}
	return b.thread, nil
}

type fakeThread struct {
	cfg        transport.ThreadConfig
	err        error
	ready      chan struct{}
	done       chan struct{}
	started    bool
	terminated bool
	joined     bool
}

func (t *fakeThread) Start() {
	t.started = true
	if t.err != nil {
		close(t.done)
	}
	close(t.ready)
}

func (t *fakeThread) Ready() <-chan struct{} { return t.ready }
func (t *fakeThread) Err() error             { return t.err }
func (t *fakeThread) Host() string           { return t.cfg.Host }
func (t *fakeThread) Port() int              { return t.cfg.Ports[0] }

func (t *fakeThread) Alive() bool {
	if !t.started {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *fakeThread) Terminate(context.Context) error {
	t.terminated = true
	return nil
}

// Join stands in for the goroutine exiting.
func (t *fakeThread) Join() {
	t.joined = true
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}
