// Package server exposes the interview service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Subhodip-Mishra/Deephireai-1/internal/interview"
)

const shutdownTimeout = 10 * time.Second

// InterviewService is the part of the interview service the handlers use.
type InterviewService interface {
	UploadResume(ctx context.Context, filename string, data []byte) (*interview.Upload, error)
	StartInterview(ctx context.Context, resumeID string) (*interview.Session, error)
	GenerateQuestions(ctx context.Context, resumeID string) (string, error)
	ChatTurn(ctx context.Context, resumeID, threadID, question string) (*interview.Turn, error)
	VoiceTurn(ctx context.Context, resumeID, threadID string, audio []byte, mimeType string) (*interview.Turn, error)
	Summary(ctx context.Context, resumeID string) (*interview.Summary, error)
}

// AudioResolver maps audio clip ids to local file paths.
type AudioResolver interface {
	Path(id string) (string, error)
}

type Config struct {
	Addr           string `mapstructure:"addr"`
	FrontendOrigin string `mapstructure:"frontend-origin"`
}

type Server struct {
	cfg     Config
	service InterviewService
	audio   AudioResolver
	logger  *zap.Logger
	router  chi.Router
}

func New(cfg Config, service InterviewService, audio AudioResolver, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, service: service, audio: audio, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	if s.cfg.FrontendOrigin != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{s.cfg.FrontendOrigin},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Post("/interview/{resume_id}", s.handleStartInterview)
	r.Post("/generate-questions/{resume_id}", s.handleGenerateQuestions)
	r.Post("/chat/{resume_id}", s.handleChat)
	r.Post("/voice-chat/{resume_id}", s.handleVoiceChat)
	r.Get("/audio/{audio_id}", s.handleAudio)
	r.Get("/summary/{resume_id}", s.handleSummary)

	return r
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
