package http

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// GinRegister adds routes to a gin router.
type GinRegister interface {
	Register(r gin.IRouter)
}

// GinRegisterFunc adapts a function to GinRegister.
type GinRegisterFunc func(r gin.IRouter)

func (f GinRegisterFunc) Register(r gin.IRouter) {
	f(r)
}

// GinHandler is an ordered pool of route registrations.
type GinHandler struct {
	pool []GinRegister
	mu   sync.RWMutex
}

func NewHandler() *GinHandler {
	return &GinHandler{
		pool: make([]GinRegister, 0),
	}
}

// Register applies every registration to r in insertion order.
func (h *GinHandler) Register(r gin.IRouter) {
	if r == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, handler := range h.pool {
		handler.Register(r)
	}
}

// Add appends handlers, ignoring nils.
func (h *GinHandler) Add(handlers ...GinRegister) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, handler := range handlers {
		if handler != nil {
			h.pool = append(h.pool, handler)
		}
	}
}

func (h *GinHandler) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.pool)
}

func (h *GinHandler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pool = h.pool[:0]
}
