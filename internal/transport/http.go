package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Options wires the HTTP surface of the server.
type Options struct {
	// MCP serves the streamable MCP endpoint.
	MCP http.Handler
	// Auth, when set, guards the MCP endpoint.
	Auth func(http.Handler) http.Handler
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
	// Health reports readiness; nil always reports healthy.
	Health func(ctx context.Context) error
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewServer creates an HTTP router with middleware.
func NewServer(opts Options) http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog(opts.Logger))

	mcpHandler := opts.MCP
	if opts.Auth != nil {
		mcpHandler = opts.Auth(mcpHandler)
	}
	r.Handle("/mcp", mcpHandler)
	r.PathPrefix("/mcp/").Handler(mcpHandler)

	r.HandleFunc("/health", healthHandler(opts.Health)).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Mcp-Session-Id", "Mcp-Protocol-Version", "Last-Event-ID"}),
		handlers.ExposedHeaders([]string{"Mcp-Session-Id"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{opts.Logger}),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(cors(r))
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				http.Error(w, "unhealthy: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps streamed MCP responses flowing through the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func accessLog(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"session_id", r.Header.Get("Mcp-Session-Id"),
				"duration", time.Since(start),
			)
		})
	}
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	if l.logger != nil {
		l.logger.Error("http handler panic", "panic", v)
	}
}
