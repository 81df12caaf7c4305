package db

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openMemory(t *testing.T, alias string) *Connection {
	t.Helper()
	conn, err := Open(alias, &Config{Driver: DriverSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpenMemorySharedAcrossGoroutines(t *testing.T) {
	conn := openMemory(t, "default")
	require.NoError(t, conn.Client().AutoMigrate(&item{}))

	assert.Equal(t, "default", conn.Alias())
	assert.Equal(t, DriverSQLite, conn.Vendor())
	assert.Equal(t, MemoryTarget, conn.Name())
	assert.True(t, IsInMemory(conn))
	assert.False(t, conn.AllowThreadSharing())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, conn.Client().Create(&item{Name: "from goroutine"}).Error)
		}()
	}
	wg.Wait()

	var count int64
	require.NoError(t, conn.Client().Model(&item{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestOpenFileIsNotInMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := Open("file", &Config{Driver: DriverSQLite, SQLite: SQLiteConfig{FilePath: path}})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, path, conn.Name())
	assert.False(t, IsInMemory(conn))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("x", &Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestIsMemoryTarget(t *testing.T) {
	assert.True(t, isMemoryTarget(":memory:"))
	assert.True(t, isMemoryTarget("file::memory:?cache=shared"))
	assert.True(t, isMemoryTarget("file:testdb?mode=memory&cache=shared"))
	assert.False(t, isMemoryTarget("./data.db"))
	assert.False(t, isMemoryTarget(""))
}

func TestDsn(t *testing.T) {
	m := &MysqlConfig{User: "root", Password: "secret", Host: "db", Port: 3306, Database: "app", Charset: "utf8mb4", Loc: "UTC", Timeout: 10, ParseTime: true}
	dsn := m.Dsn()
	assert.True(t, strings.HasPrefix(dsn, "root:secret@tcp(db:3306)/app?"), dsn)
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "parseTime=true")

	p := &PostgresConfig{Host: "db", Port: 5432, User: "postgres", Database: "app", SSLMode: "disable", ConnectTimeout: 5}
	assert.Equal(t, "host=db port=5432 user=postgres password= dbname=app sslmode=disable connect_timeout=5", p.Dsn())

	s := &SQLiteConfig{FilePath: MemoryTarget, BusyTimeout: 5000, ForeignKeys: true}
	assert.Equal(t, "file::memory:?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", s.Dsn())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := openMemory(t, "default")
	b := openMemory(t, "other")

	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))
	assert.Error(t, r.Add(a))
	assert.Error(t, r.Add(nil))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "default", all[0].Alias())
	assert.Equal(t, "other", all[1].Alias())

	got, ok := r.Get("other")
	assert.True(t, ok)
	assert.Same(t, b, got)

	r.Remove("default")
	assert.Len(t, r.All(), 1)

	require.NoError(t, r.Close())
	assert.Empty(t, r.All())
}

func TestOverrides(t *testing.T) {
	conn := openMemory(t, "default")
	o := Overrides{"default": conn}

	_, err := o.Get("default")
	assert.ErrorIs(t, err, ErrThreadSharing)
	assert.ErrorIs(t, o.Validate(), ErrThreadSharing)

	conn.SetAllowThreadSharing(true)
	got, err := o.Get("default")
	require.NoError(t, err)
	assert.Same(t, conn, got)
	assert.NoError(t, o.Validate())

	_, err = o.Get("missing")
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	conn := openMemory(t, "default")
	conn.SetAllowThreadSharing(true)
	require.NoError(t, conn.Client().AutoMigrate(&item{}))

	ctx := NewContext(context.Background(), Overrides{"default": conn})
	got, err := Lookup(ctx, "default")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	g, err := Gorm(ctx, "default")
	require.NoError(t, err)
	assert.NoError(t, g.Create(&item{Name: "ctx"}).Error)

	_, err = Lookup(context.Background(), "default")
	assert.Error(t, err)
}
