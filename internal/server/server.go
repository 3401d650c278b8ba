// Package server exposes the chatbot over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/kompas/internal/chatbot"
	"github.com/ziadkadry99/kompas/internal/conversation"
)

// Assistant is the subset of *chatbot.Chatbot the server drives.
type Assistant interface {
	IndexCorpus(ctx context.Context) (chatbot.IndexResult, error)
	Chat(ctx context.Context, message string) (string, error)
	History() []conversation.Turn
	SetHistory(turns []conversation.Turn) error
	ResetHistory()
	Stats() chatbot.Stats
}

// Config holds server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	// UploadDir receives files posted to /upload. It is the watched directory.
	UploadDir          string
	MaxUploadBytes     int64
	AllowedUploadTypes []string
	// RequestTimeout bounds every non-WebSocket request. Zero means 5 minutes.
	RequestTimeout time.Duration
}

// Server is the kompas HTTP API.
type Server struct {
	cfg        Config
	bot        Assistant
	logger     *slog.Logger
	router     chi.Router
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New creates a server for bot. A nil logger uses slog.Default().
func New(cfg Config, bot Assistant, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	s := &Server{
		cfg:    cfg,
		bot:    bot,
		logger: logger,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Get("/healthz", s.handleHealth)
		r.Post("/index-documents", s.handleIndex)
		r.Post("/chat", s.handleChat)
		r.Get("/get-chat-history", s.handleGetHistory)
		r.Post("/set-chat-history", s.handleSetHistory)
		r.Post("/reset-chat-history", s.handleResetHistory)
		r.Post("/upload", s.handleUpload)
	})

	// Long-lived connections live outside the request timeout.
	r.Get("/ws/chat", s.handleWebSocket)

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("kompas server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
