package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"scribe/internal/api"
	"scribe/internal/logging"
	"scribe/internal/services"
	"scribe/internal/transcribe"
)

const (
	requestIDHeader   = "X-Request-ID"
	fieldFile         = "file"
	fieldModel        = "model"
	maxModelNameBytes = 1 << 10
)

// Handler returns the HTTP handler with CORS and request correlation applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/transcribe", s.handleTranscribe)
	mux.HandleFunc("/healthz", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         3600,
	})
	return c.Handler(s.withRequestID(mux))
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

type upload struct {
	audio []byte
	model string
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	logger := logging.WithContext(r.Context(), s.logger)
	logger.Info("transcription request received", logging.String("remote", r.RemoteAddr))

	limit := s.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	up, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			logger.Warn("upload rejected", logging.String("check", "upload size"), logging.Error(err))
			s.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds %s limit", logging.FormatBytes(limit)))
		case errors.Is(err, http.ErrNotMultipart):
			logger.Warn("upload rejected", logging.String("check", "content type"), logging.Error(err))
			s.writeError(w, http.StatusBadRequest, "Expected multipart/form-data request")
		default:
			logger.Warn("upload rejected", logging.String("check", "multipart"), logging.Error(err))
			s.writeError(w, http.StatusBadRequest, "Malformed multipart request")
		}
		return
	}
	logger.Info("upload received",
		logging.Bytes("audio_size", int64(len(up.audio))),
		logging.String("requested_model", up.model),
	)

	segments, err := s.pipeline.Transcribe(r.Context(), up.audio, up.model)
	if err != nil {
		if r.Context().Err() != nil {
			logger.Info("client went away before transcription finished", logging.Error(err))
			return
		}
		var perr *transcribe.Error
		status := http.StatusInternalServerError
		if errors.As(err, &perr) {
			status = perr.StatusCode()
		}
		s.writeError(w, status, transcribe.PublicMessage(err))
		return
	}

	logger.Info("transcription request completed", logging.Int("segments", len(segments)))
	s.writeJSON(w, http.StatusOK, api.FromSegments(segments))
}

// readUpload collects the "file" and "model" parts. Unknown parts are skipped.
func readUpload(r *http.Request) (upload, error) {
	var up upload
	mr, err := r.MultipartReader()
	if err != nil {
		return up, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return up, nil
		}
		if err != nil {
			return up, err
		}
		err = readPart(part, &up)
		_ = part.Close()
		if err != nil {
			return up, err
		}
	}
}

func readPart(part *multipart.Part, up *upload) error {
	switch part.FormName() {
	case fieldFile:
		data, err := io.ReadAll(part)
		if err != nil {
			return err
		}
		up.audio = append(up.audio, data...)
	case fieldModel:
		data, err := io.ReadAll(io.LimitReader(part, maxModelNameBytes))
		if err != nil {
			return err
		}
		up.model = strings.TrimSpace(string(data))
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	models, err := s.pipeline.Models()
	if err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("list models failed", logging.Error(err))
	}
	payload := api.NewHealthResponse(s.now(), s.checkDeps(), s.pipeline.DefaultModel(), models)
	status := http.StatusOK
	if payload.Status != api.HealthOK {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, payload)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
