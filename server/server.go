// Package server exposes zenwriter documents over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"zenwriter/composer"
	"zenwriter/config"
	"zenwriter/generator"
	"zenwriter/storage"
)

type Server struct {
	agent  *generator.Agent
	docs   *registry
	editor config.EditorConfig
	log    *zap.Logger
}

func New(agent *generator.Agent, backend storage.Backend, editor config.EditorConfig, log *zap.Logger) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	if backend == nil {
		return nil, errors.New("storage backend required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		agent:  agent,
		editor: editor,
		log:    log.With(zap.String("module", "server")),
	}
	s.docs = newRegistry(backend, editor.IdleTimeout(), janitorInterval(editor.IdleTimeout()), s.openDocument, s.log)
	return s, nil
}

func (s *Server) openDocument(ctx context.Context, id string, store composer.Store) (*composer.Controller, error) {
	return composer.Open(ctx, store, s.editor.SaveWindow(),
		composer.WithGenerator(s.agent),
		composer.WithRewriter(s.agent),
		composer.WithContextChars(s.editor.ContextChars),
		composer.WithLogger(s.log.With(zap.String("document", id))),
	)
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents", s.handleDocumentCreate)
	mux.HandleFunc("GET /api/documents/{id}", s.handleDocumentGet)
	mux.HandleFunc("PUT /api/documents/{id}/text", s.handleTextPut)
	mux.HandleFunc("DELETE /api/documents/{id}/text", s.handleTextClear)
	mux.HandleFunc("PUT /api/documents/{id}/selection", s.handleSelectionPut)
	mux.HandleFunc("POST /api/documents/{id}/continue", s.handleContinue)
	mux.HandleFunc("POST /api/documents/{id}/improve", s.handleImprove)
	mux.HandleFunc("POST /api/documents/{id}/abort", s.handleAbort)
	mux.HandleFunc("POST /api/documents/{id}/alternatives", s.handleAlternatives)
	mux.HandleFunc("GET /api/documents/{id}/preview", s.handlePreview)
	mux.HandleFunc("GET /api/documents/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	return s.logMiddleware(mux)
}

// Close flushes and closes every open document.
func (s *Server) Close() {
	s.docs.close()
}

// aiContext detaches an AI operation from the request that started it; the
// session outlives the 202 response. The timeout is released when sess ends.
func (s *Server) aiContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(r.Context())
	if d := s.editor.RequestTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// --- Helpers ---

func newDocumentID() string {
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResp struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResp{Error: err.Error()})
}

// statusFor maps composer errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, composer.ErrSessionActive):
		return http.StatusConflict
	case errors.Is(err, composer.ErrNoSelection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, composer.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, composer.ErrClosed):
		return http.StatusGone
	case errors.Is(err, composer.ErrPersistenceFailed):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps server-sent events working through the middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)),
		)
	})
}
