package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		name  string
		spec  string
		host  string
		ports []int
	}{
		{"single port", "host:8000", "host", []int{8000}},
		{"range and port", "127.0.0.1:8000-8002,9000", "127.0.0.1", []int{8000, 8001, 8002, 9000}},
		{"segment order kept", "localhost:9000,8000-8001", "localhost", []int{9000, 8000, 8001}},
		{"duplicates kept", "localhost:8000,8000-8001", "localhost", []int{8000, 8000, 8001}},
		{"single element range", "localhost:8000-8000", "localhost", []int{8000}},
		{"reversed range in list", "localhost:8010-8000,8080", "localhost", []int{8080}},
		{"ephemeral port", "localhost:0", "localhost", []int{0}},
		{"empty host", ":8081", "", []int{8081}},
		{"whitespace", "localhost: 8000 - 8001", "localhost", []int{8000, 8001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, ports, err := ParseAddr(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.ports, ports)
		})
	}
}

func TestParseAddrInvalid(t *testing.T) {
	specs := []string{
		"",
		"localhost",
		"localhost:",
		"localhost:abc",
		"localhost:8000-abc",
		"localhost:8000-8001-8002",
		"localhost:8000,,8001",
		"localhost:8000:8001",
		"::1:8000",
		"localhost:70000",
		"localhost:-1",
		"localhost:9000-8000",
	}

	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			host, ports, err := ParseAddr(spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAddress)
			assert.Contains(t, err.Error(), `invalid address ("`)
			assert.Contains(t, err.Error(), spec)
			assert.Empty(t, host)
			assert.Nil(t, ports)
		})
	}
}

func TestStaticValidate(t *testing.T) {
	assert.NoError(t, Static{URL: "/static/", Root: "/srv"}.Validate())
	assert.NoError(t, Static{URL: "/", Root: ""}.Validate(), "disabled static is not checked")

	for _, url := range []string{"/", "//", "", "static/"} {
		err := Static{URL: url, Root: "/srv"}.Validate()
		assert.ErrorIs(t, err, ErrInvalidStatic, url)
	}
}

func TestCapability(t *testing.T) {
	c := CapabilityServe | CapabilityTerminate
	assert.True(t, c.Has(CapabilityServe))
	assert.False(t, c.Has(CapabilityStatic))
	assert.False(t, c.Has(CapabilityServe|CapabilityStatic))
	assert.Equal(t, "serve|terminate", c.String())
	assert.Equal(t, "none", Capability(0).String())
}
