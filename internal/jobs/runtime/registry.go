package runtime

import (
	"fmt"
	"sync"

	"github.com/paperclip-video/paperclip-backend/internal/domain/jobs"
)

type Handler interface {
	Stage() jobs.Stage
	Run(ctx *Context) error
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[jobs.Stage]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[jobs.Stage]Handler)}
}

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("nil handler")
	}
	s := h.Stage()
	if s == "" {
		return fmt.Errorf("handler Stage() is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[s]; exists {
		return fmt.Errorf("handler already registered for stage=%s", s)
	}
	r.handlers[s] = h
	return nil
}

func (r *Registry) Get(stage jobs.Stage) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[stage]
	return h, ok
}
