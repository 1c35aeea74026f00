package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowsketch/flowsketch/internal/diagram"
	"github.com/flowsketch/flowsketch/internal/engine"
)

// Engine is what the HTTP layer needs from the diagram engine.
type Engine interface {
	Create(ctx context.Context, req engine.CreateRequest) (*diagram.Diagram, error)
	Get(ctx context.Context, id uuid.UUID) (*diagram.Diagram, error)
	List(ctx context.Context) ([]diagram.ListItem, error)
	Update(ctx context.Context, id uuid.UUID, req engine.UpdateRequest) (*diagram.Diagram, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Validate(ctx context.Context, id uuid.UUID, model string) (*diagram.Diagram, error)
	GetVersion(ctx context.Context, diagramID, messageID uuid.UUID) (*diagram.Version, error)
	ApplyVersion(ctx context.Context, diagramID, messageID uuid.UUID) (*diagram.Diagram, error)
}

// Transcriber relays audio to the speech-to-text service.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, contentType string) (json.RawMessage, error)
}

// ServerConfig contains configuration for creating the HTTP server.
type ServerConfig struct {
	Logger      *slog.Logger
	Engine      Engine        // Required
	Transcriber Transcriber   // Optional: nil disables POST /speech
	Pool        *pgxpool.Pool // Optional: nil disables pool ping in /ready
	CORSOrigins []string      // Allowed origins for CORS
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int           // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dh := &diagramHandler{engine: cfg.Engine, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /diagram", dh.create)
	mux.HandleFunc("GET /diagrams", dh.list)
	mux.HandleFunc("GET /diagram/{id}", dh.get)
	mux.HandleFunc("PUT /diagram/{id}", dh.update)
	mux.HandleFunc("DELETE /diagram/{id}", dh.delete)
	mux.HandleFunc("GET /diagram/{id}/validate", dh.validate)
	mux.HandleFunc("GET /diagram/{id}/version/{messageID}", dh.getVersion)
	mux.HandleFunc("GET /diagram/{id}/apply-message/{messageID}", dh.applyVersion)

	// Speech relay is optional: deployments without a transcription
	// service simply do not get the route.
	if cfg.Transcriber != nil {
		sh := &speechHandler{transcriber: cfg.Transcriber, logger: logger}
		mux.HandleFunc("POST /speech", sh.transcribe)
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack, outermost first:
	//   Recovery, Logging, CORS, RateLimit, Routes.
	// CORS sits before RateLimit so preflight OPTIONS gets its headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes stay outside the middleware stack so monitoring is
	// never rate limited.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
