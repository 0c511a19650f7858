package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/api-resources-client/pkg/client"
	"github.com/Sternrassler/api-resources-client/pkg/metrics"
	"github.com/Sternrassler/api-resources-client/pkg/notify"
)

// maxBodyBytes bounds proxied write payloads.
const maxBodyBytes = 1 << 20

// forwardedHeaders are copied from the incoming request onto the API call.
var forwardedHeaders = []string{"Authorization", "Accept-Language"}

// Server exposes the API client as a caching JSON proxy.
type Server struct {
	Router *chi.Mux
	Client *client.Client
	Sess   *scs.SessionManager
	Flash  *notify.SessionFlash
	TTL    time.Duration
}

// ServerOptions configures New.
type ServerOptions struct {
	Client *client.Client
	Sess   *scs.SessionManager
	Flash  *notify.SessionFlash
	TTL    time.Duration
	Logger zerolog.Logger
}

// New builds the router.
//
//	GET    /health         liveness
//	GET    /metrics        Prometheus metrics
//	GET    /notifications  pending failure notifications of the session
//	GET    /api/*          cached read, "Cache-Control: no-cache" forces a refresh
//	POST   /api/*          write, marks the session for refresh
//	PATCH  /api/*
//	PUT    /api/*
//	DELETE /api/*
func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	}))
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, Client: opts.Client, Sess: opts.Sess, Flash: opts.Flash, TTL: opts.TTL}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(sr chi.Router) {
		sr.Use(s.Sess.LoadAndSave)
		sr.Get("/notifications", s.handleNotifications)
		sr.Get("/api/*", s.handleFetch)
		sr.Post("/api/*", s.handleWrite(http.MethodPost))
		sr.Patch("/api/*", s.handleWrite(http.MethodPatch))
		sr.Put("/api/*", s.handleWrite(http.MethodPut))
		sr.Delete("/api/*", s.handleWrite(http.MethodDelete))
	})

	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notes := s.Flash.Flush(r.Context())
	if notes == nil {
		notes = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	pagination := s.Client.Pagination()
	opts := client.FetchOptions{
		Params:       client.Params{},
		CacheTTL:     s.TTL,
		ForceRefresh: strings.Contains(r.Header.Get("Cache-Control"), "no-cache"),
		Headers:      forwarded(r),
	}

	for key, values := range r.URL.Query() {
		switch {
		case key == pagination.Page:
			opts.Page, _ = strconv.Atoi(values[0])
		case key == pagination.PerPage:
			opts.PerPage, _ = strconv.Atoi(values[0])
		case len(values) == 1:
			opts.Params[key] = values[0]
		default:
			opts.Params[key] = client.Repeated(values)
		}
	}

	body := s.Client.Fetch(r.Context(), endpoint(r), opts)
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleWrite(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data any
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "could not read request body"})
			return
		}
		if len(raw) > 0 {
			if !json.Valid(raw) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "request body must be JSON"})
				return
			}
			data = json.RawMessage(raw)
		}

		opts := []client.WriteOption{client.WithHeaders(forwarded(r))}
		target := endpoint(r)
		ctx := r.Context()

		var body client.Body
		switch method {
		case http.MethodPost:
			body = s.Client.Post(ctx, target, data, opts...)
		case http.MethodPatch:
			body = s.Client.Patch(ctx, target, data, opts...)
		case http.MethodPut:
			body = s.Client.Put(ctx, target, data, opts...)
		case http.MethodDelete:
			if data != nil {
				opts = append(opts, client.WithData(data))
			}
			body = s.Client.Delete(ctx, target, opts...)
		}

		writeJSON(w, http.StatusOK, body)
	}
}

func endpoint(r *http.Request) string {
	return "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
}

func forwarded(r *http.Request) map[string]string {
	out := map[string]string{}
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
