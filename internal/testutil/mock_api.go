// Package testutil provides testing utilities for the API resource client.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is a request received by the mock.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// MockAPI is an in-memory REST collection speaking the paginated envelope
// format {"data":{"total":N,"data":[...]}} for reads and {"data":{...}} for
// single records.
type MockAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	resource  string
	records   map[string]map[string]any
	nextID    int
	overrides map[string]MockResponse
	requests  []RecordedRequest
}

// NewMockAPI creates a mock serving the collection at /{resource}.
func NewMockAPI(resource string) *MockAPI {
	m := &MockAPI{
		resource:  resource,
		records:   make(map[string]map[string]any),
		nextID:    1,
		overrides: make(map[string]MockResponse),
	}

	r := chi.NewRouter()
	r.Use(m.record)
	r.Get("/"+resource, m.list)
	r.Post("/"+resource, m.create)
	r.Get("/"+resource+"/{id}", m.show)
	r.Patch("/"+resource+"/{id}", m.update)
	r.Put("/"+resource+"/{id}", m.update)
	r.Delete("/"+resource+"/{id}", m.destroy)

	m.server = httptest.NewServer(r)
	return m
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Seed adds records with sequential ids and returns them.
func (m *MockAPI) Seed(records ...map[string]any) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, m.insertLocked(rec))
	}
	return out
}

// SetResponse overrides every response for path, regardless of method.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[path] = resp
}

// ClearResponse removes an override.
func (m *MockAPI) ClearResponse(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, path)
}

// Requests returns a copy of every request received.
func (m *MockAPI) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests with the given method.
func (m *MockAPI) RequestCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded requests.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

func (m *MockAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		resp, overridden := m.overrides[r.URL.Path]
		m.mu.Unlock()

		if overridden {
			if resp.Delay > 0 {
				time.Sleep(resp.Delay)
			}
			for key, value := range resp.Headers {
				w.Header().Set(key, value)
			}
			w.WriteHeader(resp.StatusCode)
			io.WriteString(w, resp.Body)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (m *MockAPI) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if id := q.Get("id"); id != "" {
		rec, ok := m.records[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Record not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": rec})
		return
	}

	ids := m.sortedIDsLocked()
	page, perPage := atoiDefault(q.Get("page"), 1), atoiDefault(q.Get("per_page"), len(ids))
	start := (page - 1) * perPage
	items := []map[string]any{}
	for i := start; i >= 0 && i < len(ids) && i < start+perPage; i++ {
		items = append(items, m.records[ids[i]])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"current_page": page,
			"per_page":     perPage,
			"total":        len(ids),
			"data":         items,
		},
	})
}

func (m *MockAPI) show(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Record not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

func (m *MockAPI) create(w http.ResponseWriter, r *http.Request) {
	attrs, ok := decodeAttrs(w, r)
	if !ok {
		return
	}

	m.mu.Lock()
	rec := m.insertLocked(attrs)
	m.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"data": rec})
}

func (m *MockAPI) update(w http.ResponseWriter, r *http.Request) {
	attrs, ok := decodeAttrs(w, r)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.records[chi.URLParam(r, "id")]
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Record not found"})
		return
	}
	for k, v := range attrs {
		if k != "id" {
			rec[k] = v
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rec})
}

func (m *MockAPI) destroy(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := chi.URLParam(r, "id")
	if _, ok := m.records[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Record not found"})
		return
	}
	delete(m.records, id)
	w.WriteHeader(http.StatusNoContent)
}

func (m *MockAPI) insertLocked(attrs map[string]any) map[string]any {
	rec := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		rec[k] = v
	}
	id := m.nextID
	m.nextID++
	rec["id"] = id
	m.records[strconv.Itoa(id)] = rec
	return rec
}

func (m *MockAPI) sortedIDsLocked() []string {
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return atoiDefault(ids[i], 0) < atoiDefault(ids[j], 0)
	})
	return ids
}

func decodeAttrs(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	attrs := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil && err != io.EOF {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": fmt.Sprintf("Invalid JSON: %v", err)})
		return nil, false
	}
	return attrs, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
