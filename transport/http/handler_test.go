package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// mockGinRegister records whether it was registered.
type mockGinRegister struct {
	RegisterCalled bool
	TestPath       string
}

func newMockGinRegister(testPath string) *mockGinRegister {
	return &mockGinRegister{TestPath: testPath}
}

func (m *mockGinRegister) Register(r gin.IRouter) {
	m.RegisterCalled = true
	r.GET(m.TestPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})
}

func TestGinHandler_Add(t *testing.T) {
	tests := []struct {
		name          string
		handlers      []GinRegister
		expectedCount int
	}{
		{"single", []GinRegister{newMockGinRegister("/a")}, 1},
		{"several", []GinRegister{newMockGinRegister("/a"), newMockGinRegister("/b"), newMockGinRegister("/c")}, 3},
		{"empty", []GinRegister{}, 0},
		{"nil filtered", []GinRegister{newMockGinRegister("/a"), nil, newMockGinRegister("/b")}, 2},
		{"all nil", []GinRegister{nil, nil}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler()
			handler.Add(tt.handlers...)

			assert.Equal(t, tt.expectedCount, handler.Count())
		})
	}
}

func TestGinHandler_Register(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("routes reachable", func(t *testing.T) {
		handler := NewHandler()
		m := newMockGinRegister("/test")
		handler.Add(m, GinRegisterFunc(func(r gin.IRouter) {
			r.GET("/func", func(c *gin.Context) { c.String(http.StatusOK, "func") })
		}))

		router := gin.New()
		handler.Register(router.Group("/api"))
		assert.True(t, m.RegisterCalled)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/func", nil))
		assert.Equal(t, "func", w.Body.String())
	})

	t.Run("nil router", func(t *testing.T) {
		handler := NewHandler()
		m := newMockGinRegister("/test")
		handler.Add(m)

		assert.NotPanics(t, func() { handler.Register(nil) })
		assert.False(t, m.RegisterCalled)
	})
}

func TestGinHandler_Clear(t *testing.T) {
	handler := NewHandler()
	handler.Add(newMockGinRegister("/a"), newMockGinRegister("/b"))
	assert.Equal(t, 2, handler.Count())

	handler.Clear()
	assert.Equal(t, 0, handler.Count())
	handler.Clear()
	assert.Equal(t, 0, handler.Count())
}
