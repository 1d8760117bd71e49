// Package rpc serves the JSON-RPC API over HTTP and streams events
// over WebSocket.
package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/openxm/marketd/internal/core/ledger/service"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// Server handles JSON-RPC requests against the ledger service.
type Server struct {
	registry *MethodRegistry
	service  *service.Service
	timeout  time.Duration
}

// NewServer creates an RPC server and registers all methods.
func NewServer(svc *service.Service, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &Server{
		registry: NewMethodRegistry(),
		service:  svc,
		timeout:  timeout,
	}
	s.registerMethods()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPost:
		s.handlePost(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGet answers simple queries like ?command=server_info.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	result, rpcErr := s.execute(ctx, method, nil)
	s.writeResponse(w, result, rpcErr)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeResponse(w, nil, ErrInternal(err))
		return
	}
	defer r.Body.Close()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeResponse(w, nil, ErrInvalidParams("invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeResponse(w, nil, ErrInvalidParams("missing method field"))
		return
	}

	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	result, rpcErr := s.execute(ctx, request.Method, params)
	s.writeResponse(w, result, rpcErr)
}

func (s *Server) execute(ctx context.Context, method string, params json.RawMessage) (any, *Error) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, ErrMethodNotFound(method)
	}
	return handler(ctx, params)
}

// writeResponse writes the result envelope. Errors are carried inside
// the result object with status "error".
func (s *Server) writeResponse(w http.ResponseWriter, result any, rpcErr *Error) {
	response := make(map[string]any)

	if rpcErr != nil {
		response["result"] = map[string]any{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
	} else {
		resultMap := toMap(result)
		resultMap["status"] = "success"
		response["result"] = resultMap
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("failed to marshal rpc response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// toMap flattens a result into a JSON object.
func toMap(result any) map[string]any {
	if m, ok := result.(map[string]any); ok {
		return m
	}
	data, err := json.Marshal(result)
	if err != nil {
		return map[string]any{"data": result}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"data": result}
	}
	return m
}

// unmarshalParams decodes the params object, tolerating absence.
func unmarshalParams[T any](params json.RawMessage) (*T, *Error) {
	var v T
	if len(params) == 0 {
		return &v, nil
	}
	dec := json.NewDecoder(strings.NewReader(string(params)))
	if err := dec.Decode(&v); err != nil {
		return nil, ErrInvalidParams("invalid params: " + err.Error())
	}
	return &v, nil
}
