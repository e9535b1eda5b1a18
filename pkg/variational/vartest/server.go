// Package vartest provides a scripted in-process stand-in for the Variational
// REST API, used by tests across the module.
package vartest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Response is one scripted reply.
type Response struct {
	Status int
	Header map[string]string
	Body   any
}

// Result wraps v in the {"result": ...} envelope.
func Result(v any) Response {
	return Response{Status: http.StatusOK, Body: map[string]any{"result": v}}
}

// PageResult wraps v in a paginated envelope. A nil next marks the last page.
func PageResult(v any, next map[string]any) Response {
	return Response{Status: http.StatusOK, Body: map[string]any{
		"result":     v,
		"pagination": map[string]any{"next_page": next},
	}}
}

// Error returns the API error envelope with the given HTTP status.
func Error(status, code int, message string) Response {
	return Response{Status: status, Body: map[string]any{
		"error": map[string]any{"code": code, "message": message},
	}}
}

// RateLimited returns a 429 announcing a reset in resetMs milliseconds. A
// negative resetMs omits the header.
func RateLimited(resetMs int) Response {
	resp := Error(http.StatusTooManyRequests, 429, "rate limited")
	if resetMs >= 0 {
		resp.Header = map[string]string{"X-Rate-Limit-Resets-In-Ms": strconv.Itoa(resetMs)}
	}
	return resp
}

// Request is what the server observed for one call.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// Server replays queued responses per "METHOD /path". When a queue drains,
// its last response keeps being served.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	queues   map[string][]Response
	requests []Request
	// ReceivedAtMs is echoed in x-request-received-ms when positive.
	ReceivedAtMs int64
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{queues: make(map[string][]Response)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// URL of the API root, suitable for WithBaseURL.
func (s *Server) BaseURL() string { return s.Server.URL + "/v1" }

// Enqueue scripts responses for method and path (relative to /v1).
func (s *Server) Enqueue(method, path string, responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := routeKey(method, path)
	s.queues[key] = append(s.queues[key], responses...)
}

// Requests returns every request observed so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls counts requests for method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if routeKey(r.Method, r.Path) == routeKey(method, path) {
			n++
		}
	}
	return n
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + "/" + strings.TrimPrefix(path, "/")
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/v1")
	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   path,
		Query:  query,
		Header: r.Header.Clone(),
		Body:   body,
	})
	key := routeKey(r.Method, path)
	queue := s.queues[key]
	var resp Response
	switch len(queue) {
	case 0:
		resp = Error(http.StatusNotFound, 404, "no scripted response for "+key)
	case 1:
		resp = queue[0]
	default:
		resp = queue[0]
		s.queues[key] = queue[1:]
	}
	receivedAt := s.ReceivedAtMs
	s.mu.Unlock()

	for k, v := range resp.Header {
		w.Header().Set(k, v)
	}
	if receivedAt > 0 {
		w.Header().Set("X-Request-Received-Ms", strconv.FormatInt(receivedAt, 10))
	}
	w.Header().Set("Content-Type", "application/json")
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	switch b := resp.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, b)
	default:
		_ = json.NewEncoder(w).Encode(b)
	}
}
