// internal/websocket/router.go
package websocket

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Handler executes one RPC method. Params arrive as raw JSON values in
// call order; the handler decodes the ones it needs.
type Handler func(params []json.RawMessage) (any, error)

// Router maps method names to handlers. Methods are registered
// explicitly so the RPC surface is visible in one place.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Register binds a method name. Registering the same name twice panics;
// that is a wiring bug, not a runtime condition.
func (r *Router) Register(method string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[method]; exists {
		panic(fmt.Sprintf("duplicate RPC method: %s", method))
	}
	r.handlers[method] = h
}

// Call dispatches a request to its handler.
func (r *Router) Call(method string, params []json.RawMessage) (any, error) {
	r.mu.RLock()
	h, ok := r.handlers[method]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("method not found: %s", method)
	}
	return h(params)
}

// Methods returns the registered method names, sorted.
func (r *Router) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DecodeParam unmarshals the i-th positional parameter into dst.
func DecodeParam(params []json.RawMessage, i int, dst any) error {
	if i >= len(params) {
		return fmt.Errorf("missing param %d", i)
	}
	if err := json.Unmarshal(params[i], dst); err != nil {
		return fmt.Errorf("param %d: %w", i, err)
	}
	return nil
}
