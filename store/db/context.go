package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/kochabonline/liveserver/errors"
)

type overridesKey struct{}

func NewContext(ctx context.Context, overrides Overrides) context.Context {
	return context.WithValue(ctx, overridesKey{}, overrides)
}

func FromContext(ctx context.Context) (Overrides, bool) {
	o, ok := ctx.Value(overridesKey{}).(Overrides)
	return o, ok
}

// Lookup returns the shared connection registered under alias in ctx.
func Lookup(ctx context.Context, alias string) (Conn, error) {
	o, ok := FromContext(ctx)
	if !ok {
		return nil, errors.NotFound("no connection overrides in context")
	}
	return o.Get(alias)
}

// Gorm is Lookup for gorm-backed connections, bound to ctx.
func Gorm(ctx context.Context, alias string) (*gorm.DB, error) {
	conn, err := Lookup(ctx, alias)
	if err != nil {
		return nil, err
	}
	c, ok := conn.(*Connection)
	if !ok || c.client == nil {
		return nil, errors.NotImplemented("connection %q is not backed by gorm", alias)
	}
	return c.client.WithContext(ctx), nil
}
