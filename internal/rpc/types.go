package rpc

import (
	"context"
	"encoding/json"
	"sort"
)

// Request is the JSON-RPC envelope:
// {"method": "name", "params": [{...}]}.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// HandlerFunc handles one RPC method. It returns the result object or
// an Error.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, *Error)

// MethodRegistry maps method names to handlers.
type MethodRegistry struct {
	methods map[string]HandlerFunc
}

// NewMethodRegistry creates an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string]HandlerFunc)}
}

// Register adds a method handler.
func (r *MethodRegistry) Register(name string, handler HandlerFunc) {
	r.methods[name] = handler
}

// Get returns the handler for a method.
func (r *MethodRegistry) Get(name string) (HandlerFunc, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

// List returns the registered method names, sorted.
func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}
