package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Subhodip-Mishra/Deephireai-1/internal/decision"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/interview"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/resume"
	"github.com/Subhodip-Mishra/Deephireai-1/internal/store"
)

const maxUploadSize = 32 << 20

// answerMIMETypes are the accepted candidate answer uploads.
var answerMIMETypes = map[string]string{
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
}

type turnResponse struct {
	Question string             `json:"question"`
	Answer   string             `json:"answer"`
	AudioURL string             `json:"audio_url"`
	Decision *decision.Decision `json:"decision"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	up, err := s.service.UploadResume(r.Context(), header.Filename, data)
	if err != nil {
		if errors.Is(err, resume.ErrUnsupportedFormat) || errors.Is(err, resume.ErrEmptyResume) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serviceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"message":    "Resume uploaded and processed successfully.",
		"resume_id":  up.ResumeID,
		"page_count": up.PageCount,
		"chunks":     up.Chunks,
	})
}

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	resumeID, ok := s.resumeID(w, r)
	if !ok {
		return
	}

	session, err := s.service.StartInterview(r.Context(), resumeID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"resume_context":  session.ResumeContext,
		"message":         "Interview session started",
		"initial_message": session.InitialMessage,
		"audio_url":       "/audio/" + session.AudioID,
	})
}

func (s *Server) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	resumeID, ok := s.resumeID(w, r)
	if !ok {
		return
	}

	questions, err := s.service.GenerateQuestions(r.Context(), resumeID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]string{"questions": questions})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	resumeID, ok := s.resumeID(w, r)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
		ThreadID string `json:"thread_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.ThreadID) == "" {
		s.respondError(w, http.StatusBadRequest, "question and thread_id are required")
		return
	}

	turn, err := s.service.ChatTurn(r.Context(), resumeID, req.ThreadID, req.Question)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.respondTurn(w, turn)
}

func (s *Server) handleVoiceChat(w http.ResponseWriter, r *http.Request) {
	resumeID, ok := s.resumeID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	threadID := r.FormValue("thread_id")
	if strings.TrimSpace(threadID) == "" {
		s.respondError(w, http.StatusBadRequest, "thread_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	mimeType, ok := answerMIMETypes[strings.ToLower(filepath.Ext(header.Filename))]
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Only WAV, FLAC, OGG, or MP3 allowed. Received: "+header.Filename)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	turn, err := s.service.VoiceTurn(r.Context(), resumeID, threadID, data, mimeType)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.respondTurn(w, turn)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	path, err := s.audio.Path(chi.URLParam(r, "audio_id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "Audio file not found")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	resumeID, ok := s.resumeID(w, r)
	if !ok {
		return
	}

	summary, err := s.service.Summary(r.Context(), resumeID)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, summary)
}

// resumeID extracts and validates the resume_id path parameter. Ids must be
// UUIDs; anything else is rejected before touching storage.
func (s *Server) resumeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "resume_id")
	if _, err := uuid.Parse(id); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid resume_id format. Must be a valid UUID.")
		return "", false
	}
	return id, true
}

func (s *Server) respondTurn(w http.ResponseWriter, turn *interview.Turn) {
	s.respond(w, http.StatusOK, turnResponse{
		Question: turn.Question,
		Answer:   turn.Answer,
		AudioURL: "/audio/" + turn.AudioID,
		Decision: turn.Decision,
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respond(w, status, map[string]string{"detail": detail})
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Resume ID not found")
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, "Internal server error")
}
