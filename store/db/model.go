package db

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"

	"github.com/kochabonline/liveserver/core/reflect"
)

// Driver names a database vendor.
type Driver string

const (
	DriverMySQL      Driver = "mysql"
	DriverPostgreSQL Driver = "postgres"
	DriverSQLite     Driver = "sqlite"
)

// MemoryTarget is the SQLite target of a private, file-less database.
const MemoryTarget = ":memory:"

// Config selects a driver and carries the settings of each supported one;
// only the section matching Driver is used.
type Config struct {
	Driver   Driver         `json:"driver" mapstructure:"driver" default:"sqlite"`
	Mysql    MysqlConfig    `json:"mysql" mapstructure:"mysql"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
}

func (c *Config) init() error {
	return reflect.SetDefaultTag(c)
}

func (c *Config) driverConfig() (DriverConfig, error) {
	switch c.Driver {
	case DriverMySQL:
		return &c.Mysql, nil
	case DriverPostgreSQL:
		return &c.Postgres, nil
	case DriverSQLite:
		return &c.SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", c.Driver)
	}
}

// DriverConfig is implemented by the per-driver sections of Config.
type DriverConfig interface {
	Dsn() string
	// Target names the database the DSN points at, e.g. a schema or a file.
	Target() string
	Level() int
	CloneConn() *Connection
}

// Pool holds database/sql pool limits.
type Pool struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func logLevel(level string) int {
	switch strings.ToLower(level) {
	case "error":
		return 2
	case "warn":
		return 3
	case "info":
		return 4
	default:
		return 1
	}
}

type MysqlConfig struct {
	Host            string `json:"host" mapstructure:"host" default:"localhost"`
	Port            int    `json:"port" mapstructure:"port" default:"3306"`
	User            string `json:"user" mapstructure:"user" default:"root"`
	Password        string `json:"password" mapstructure:"password"`
	Database        string `json:"database" mapstructure:"database"`
	Charset         string `json:"charset" mapstructure:"charset" default:"utf8mb4"`
	ParseTime       bool   `json:"parseTime" mapstructure:"parse_time" default:"true"`
	Loc             string `json:"loc" mapstructure:"loc" default:"Local"`
	Timeout         int    `json:"timeout" mapstructure:"timeout" default:"10"`
	MaxIdleConns    int    `json:"maxIdleConns" mapstructure:"max_idle_conns" default:"10"`
	MaxOpenConns    int    `json:"maxOpenConns" mapstructure:"max_open_conns" default:"100"`
	ConnMaxLifetime int    `json:"connMaxLifetime" mapstructure:"conn_max_lifetime" default:"3600"`
	LogLevel        string `json:"logLevel" mapstructure:"log_level" default:"silent"`
}

func (c *MysqlConfig) Dsn() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	cfg.DBName = c.Database
	cfg.ParseTime = c.ParseTime
	cfg.Timeout = time.Duration(c.Timeout) * time.Second
	if loc, err := time.LoadLocation(c.Loc); err == nil {
		cfg.Loc = loc
	}
	cfg.Params = map[string]string{"charset": c.Charset}
	return cfg.FormatDSN()
}

func (c *MysqlConfig) Target() string {
	return c.Database
}

func (c *MysqlConfig) Level() int {
	return logLevel(c.LogLevel)
}

func (c *MysqlConfig) CloneConn() *Connection {
	return &Connection{pool: Pool{
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: time.Duration(c.ConnMaxLifetime) * time.Second,
	}}
}

type PostgresConfig struct {
	Host            string `json:"host" mapstructure:"host" default:"localhost"`
	Port            int    `json:"port" mapstructure:"port" default:"5432"`
	User            string `json:"user" mapstructure:"user" default:"postgres"`
	Password        string `json:"password" mapstructure:"password"`
	Database        string `json:"database" mapstructure:"database"`
	SSLMode         string `json:"sslmode" mapstructure:"sslmode" default:"disable"`
	ConnectTimeout  int    `json:"connectTimeout" mapstructure:"connect_timeout" default:"10"`
	MaxIdleConns    int    `json:"maxIdleConns" mapstructure:"max_idle_conns" default:"10"`
	MaxOpenConns    int    `json:"maxOpenConns" mapstructure:"max_open_conns" default:"100"`
	ConnMaxLifetime int    `json:"connMaxLifetime" mapstructure:"conn_max_lifetime" default:"3600"`
	LogLevel        string `json:"logLevel" mapstructure:"log_level" default:"silent"`
}

func (c *PostgresConfig) Dsn() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
		c.ConnectTimeout,
	)
}

func (c *PostgresConfig) Target() string {
	return c.Database
}

func (c *PostgresConfig) Level() int {
	return logLevel(c.LogLevel)
}

func (c *PostgresConfig) CloneConn() *Connection {
	return &Connection{pool: Pool{
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: time.Duration(c.ConnMaxLifetime) * time.Second,
	}}
}

// SQLiteConfig defaults to a private in-memory database.
type SQLiteConfig struct {
	FilePath        string `json:"filePath" mapstructure:"file_path" default:":memory:"`
	BusyTimeout     int    `json:"busyTimeout" mapstructure:"busy_timeout" default:"5000"`
	SyncMode        string `json:"syncMode" mapstructure:"sync_mode" default:"normal"`
	ForeignKeys     bool   `json:"foreignKeys" mapstructure:"foreign_keys" default:"true"`
	MaxIdleConns    int    `json:"maxIdleConns" mapstructure:"max_idle_conns" default:"10"`
	MaxOpenConns    int    `json:"maxOpenConns" mapstructure:"max_open_conns" default:"100"`
	ConnMaxLifetime int    `json:"connMaxLifetime" mapstructure:"conn_max_lifetime" default:"3600"`
	LogLevel        string `json:"logLevel" mapstructure:"log_level" default:"silent"`
}

func (c *SQLiteConfig) inMemory() bool {
	return isMemoryTarget(c.FilePath)
}

func (c *SQLiteConfig) Dsn() string {
	foreignKeys := 0
	if c.ForeignKeys {
		foreignKeys = 1
	}
	pragmas := fmt.Sprintf("_pragma=busy_timeout(%d)&_pragma=foreign_keys(%d)", c.BusyTimeout, foreignKeys)
	if c.inMemory() {
		if c.FilePath == MemoryTarget {
			return "file::memory:?" + pragmas
		}
		sep := "?"
		if strings.Contains(c.FilePath, "?") {
			sep = "&"
		}
		return c.FilePath + sep + pragmas
	}
	return fmt.Sprintf("file:%s?%s&_pragma=synchronous(%s)", c.FilePath, pragmas, c.SyncMode)
}

func (c *SQLiteConfig) Target() string {
	return c.FilePath
}

func (c *SQLiteConfig) Level() int {
	return logLevel(c.LogLevel)
}

// CloneConn pins in-memory databases to a single physical connection: every
// new SQLite connection to ":memory:" would otherwise open an empty database.
func (c *SQLiteConfig) CloneConn() *Connection {
	if c.inMemory() {
		return &Connection{pool: Pool{MaxIdleConns: 1, MaxOpenConns: 1}}
	}
	return &Connection{pool: Pool{
		MaxIdleConns:    c.MaxIdleConns,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: time.Duration(c.ConnMaxLifetime) * time.Second,
	}}
}

func isMemoryTarget(target string) bool {
	return target == MemoryTarget ||
		strings.HasPrefix(target, "file::memory:") ||
		strings.Contains(target, "mode=memory")
}
