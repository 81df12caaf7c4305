package db

import (
	"io"
	"sort"
	"sync"

	"github.com/kochabonline/liveserver/errors"
)

// Connections is the process-wide registry consulted by the live server.
var Connections = NewRegistry()

// Registry holds connections by alias in registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Add registers conn under its alias.
func (r *Registry) Add(conn Conn) error {
	if conn == nil {
		return errors.BadRequest("connection cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	alias := conn.Alias()
	if _, ok := r.conns[alias]; ok {
		return errors.BadRequest("connection %q already registered", alias)
	}
	r.conns[alias] = conn
	r.order = append(r.order, alias)
	return nil
}

// Get returns the connection registered under alias.
func (r *Registry) Get(alias string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[alias]
	return conn, ok
}

// All returns every registered connection in registration order.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Conn, 0, len(r.order))
	for _, alias := range r.order {
		all = append(all, r.conns[alias])
	}
	return all
}

// Remove unregisters alias without closing it.
func (r *Registry) Remove(alias string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[alias]; !ok {
		return
	}
	delete(r.conns, alias)
	for i, a := range r.order {
		if a == alias {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Close closes every connection that supports it and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for _, alias := range r.order {
		if c, ok := r.conns[alias].(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	r.order = nil
	r.conns = make(map[string]Conn)
	return first
}

// Overrides maps aliases to connections handed to another goroutine.
type Overrides map[string]Conn

// Aliases returns the aliases in sorted order.
func (o Overrides) Aliases() []string {
	aliases := make([]string, 0, len(o))
	for alias := range o {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Get returns the override for alias, refusing connections that were not
// marked shareable.
func (o Overrides) Get(alias string) (Conn, error) {
	conn, ok := o[alias]
	if !ok {
		return nil, errors.NotFound("no connection override for %q", alias)
	}
	if !conn.AllowThreadSharing() {
		return nil, ErrThreadSharing.WithMetadata(map[string]string{"alias": alias})
	}
	return conn, nil
}

// Validate fails on the first (by alias) connection not marked shareable.
func (o Overrides) Validate() error {
	for _, alias := range o.Aliases() {
		if _, err := o.Get(alias); err != nil {
			return err
		}
	}
	return nil
}
