package db

import (
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kochabonline/liveserver/errors"
)

// ErrThreadSharing is returned when a connection is used outside the
// goroutine that owns it without having been marked shareable.
var ErrThreadSharing = errors.Internal("connection is not shareable across goroutines").
	WithReason(errors.ReasonThreadSharing)

// Conn is the view of a database connection the live server needs: what it
// points at, under which alias it is registered, and whether it may be handed
// to another goroutine.
type Conn interface {
	Alias() string
	Vendor() Driver
	Name() string
	AllowThreadSharing() bool
	SetAllowThreadSharing(allow bool)
}

var _ Conn = (*Connection)(nil)

// Connection is a gorm-backed Conn.
type Connection struct {
	alias  string
	driver Driver
	target string
	pool   Pool
	client *gorm.DB
	shared atomic.Bool
}

type Option func(*Connection)

// WithPool overrides the pool settings derived from the driver config.
// In-memory SQLite ignores it.
func WithPool(pool Pool) Option {
	return func(c *Connection) {
		if c.driver == DriverSQLite && isMemoryTarget(c.target) {
			return
		}
		c.pool = pool
	}
}

// Open connects alias using c and applies the pool settings of its driver.
func Open(alias string, c *Config, opts ...Option) (*Connection, error) {
	if c == nil {
		c = &Config{}
	}
	if err := c.init(); err != nil {
		return nil, err
	}

	dc, err := c.driverConfig()
	if err != nil {
		return nil, err
	}

	conn := dc.CloneConn()
	conn.alias = alias
	conn.driver = c.Driver
	conn.target = dc.Target()

	for _, opt := range opts {
		opt(conn)
	}

	client, err := gorm.Open(dialector(c.Driver, dc.Dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.LogLevel(dc.Level())),
	})
	if err != nil {
		return nil, errors.Internal("open database %q", alias).WithCause(err)
	}
	conn.client = client

	sqlDB, err := client.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(conn.pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(conn.pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(conn.pool.ConnMaxLifetime)

	return conn, nil
}

func dialector(driver Driver, dsn string) gorm.Dialector {
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn)
	case DriverPostgreSQL:
		return postgres.Open(dsn)
	default:
		return sqlite.Open(dsn)
	}
}

func (c *Connection) Alias() string {
	return c.alias
}

func (c *Connection) Vendor() Driver {
	return c.driver
}

func (c *Connection) Name() string {
	return c.target
}

func (c *Connection) AllowThreadSharing() bool {
	return c.shared.Load()
}

// SetAllowThreadSharing flips the cross-goroutine sharing flag. The live
// server sets it on in-memory databases so its serving goroutine can use the
// same database as the test; nothing else should.
func (c *Connection) SetAllowThreadSharing(allow bool) {
	c.shared.Store(allow)
}

// Client returns the underlying gorm handle.
func (c *Connection) Client() *gorm.DB {
	return c.client
}

func (c *Connection) Close() error {
	if c.client == nil {
		return nil
	}

	sqlDB, err := c.client.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// IsInMemory reports whether conn is a file-less SQLite database, the only
// kind whose state cannot be reached by opening a second connection.
func IsInMemory(conn Conn) bool {
	return conn.Vendor() == DriverSQLite && isMemoryTarget(conn.Name())
}
