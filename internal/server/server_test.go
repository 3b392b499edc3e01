package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"scribe/internal/api"
	"scribe/internal/config"
	"scribe/internal/engine"
	"scribe/internal/logging"
	"scribe/internal/testsupport"
)

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	srv, err := New(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func multipartRequest(t *testing.T, audio []byte, model string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if model != "" {
		if err := mw.WriteField(fieldModel, model); err != nil {
			t.Fatalf("write model field: %v", err)
		}
	}
	if audio != nil {
		part, err := mw.CreateFormFile(fieldFile, "audio.wav")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(audio); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error payload %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestTranscribeEndToEndDefaultModel(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithModels("ggml-base.bin"),
		testsupport.WithEngine(testsupport.EngineStub{Stdout: testsupport.SampleVTT}),
	)
	srv := newTestServer(t, cfg)

	w := serve(srv, multipartRequest(t, testsupport.MonoWAV(t), ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var resp api.TranscribeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []api.Segment{
		{Start: "00:00:00.000", End: "00:00:02.000", Text: "Hello world"},
		{Start: "00:00:02.000", End: "00:00:04.000", Text: "Second line"},
	}
	if !slices.Equal(resp.Segments, want) {
		t.Fatalf("segments = %#v", resp.Segments)
	}

	args := testsupport.EngineArgs(t, cfg.Engine.Binary)
	if !slices.Equal(args, engine.Args(filepath.Join(cfg.Paths.ModelsDir, "ggml-base.bin"), "pt")) {
		t.Fatalf("engine args = %q", args)
	}
	if _, err := uuid.Parse(w.Header().Get(requestIDHeader)); err != nil {
		t.Fatalf("expected generated request id, got %q", w.Header().Get(requestIDHeader))
	}
}

func TestTranscribeEmptyEngineOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithModels("ggml-base.bin"),
		testsupport.WithEngine(testsupport.EngineStub{}),
	)
	w := serve(newTestServer(t, cfg), multipartRequest(t, testsupport.MonoWAV(t), ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"transcription_segments":[]}` {
		t.Fatalf("body = %s", got)
	}
}

func TestTranscribeModelPart(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithModels("ggml-base.bin", "ggml-small.bin"),
		testsupport.WithEngine(testsupport.EngineStub{Stdout: testsupport.SampleVTT}),
	)
	w := serve(newTestServer(t, cfg), multipartRequest(t, testsupport.MonoWAV(t), "ggml-small.bin"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	args := testsupport.EngineArgs(t, cfg.Engine.Binary)
	if args[1] != filepath.Join(cfg.Paths.ModelsDir, "ggml-small.bin") {
		t.Fatalf("model arg = %q", args[1])
	}
}

func TestTranscribeErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		stub    testsupport.EngineStub
		audio   func(t *testing.T) []byte
		model   string
		status  int
		message string
	}{
		{
			name:    "missing file part",
			audio:   func(*testing.T) []byte { return nil },
			status:  http.StatusBadRequest,
			message: "No WAV file provided",
		},
		{
			name:    "garbage upload",
			audio:   func(*testing.T) []byte { return []byte("hello") },
			status:  http.StatusBadRequest,
			message: "Invalid WAV format",
		},
		{
			name:    "stereo upload",
			audio:   func(t *testing.T) []byte { return testsupport.WAV(t, 2, 16000, 16) },
			status:  http.StatusBadRequest,
			message: "WAV must be mono, 16-bit, 16000 Hz",
		},
		{
			name:    "unknown model",
			audio:   testsupport.MonoWAV,
			model:   "ggml-huge.bin",
			status:  http.StatusInternalServerError,
			message: "Model file ggml-huge.bin not found",
		},
		{
			name:    "engine failure",
			stub:    testsupport.EngineStub{Stderr: "failed to initialize whisper context", ExitCode: 1},
			audio:   testsupport.MonoWAV,
			status:  http.StatusInternalServerError,
			message: "Transcription failed: failed to initialize whisper context",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t,
				testsupport.WithModels("ggml-base.bin"),
				testsupport.WithEngine(tt.stub),
			)
			w := serve(newTestServer(t, cfg), multipartRequest(t, tt.audio(t), tt.model))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if msg := decodeError(t, w); !strings.HasPrefix(msg, tt.message) {
				t.Fatalf("error = %q, want prefix %q", msg, tt.message)
			}
			if tt.status == http.StatusBadRequest {
				if calls := testsupport.EngineCalls(t, cfg.Engine.Binary); calls != 0 {
					t.Fatalf("engine ran %d times for rejected upload", calls)
				}
			}
		})
	}
}

func TestTranscribeRejectsNonMultipart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	req := httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(newTestServer(t, cfg), req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Expected multipart/form-data request" {
		t.Fatalf("error = %q", msg)
	}
}

func TestTranscribeRejectsOversizedUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithEngine(testsupport.EngineStub{}))
	cfg.Server.MaxUploadMiB = 1

	w := serve(newTestServer(t, cfg), multipartRequest(t, make([]byte, 2<<20), ""))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if msg := decodeError(t, w); msg != "Upload exceeds 1.00 MB limit" {
		t.Fatalf("error = %q", msg)
	}
	if calls := testsupport.EngineCalls(t, cfg.Engine.Binary); calls != 0 {
		t.Fatalf("engine ran for oversized upload")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, testsupport.NewConfig(t))
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/transcribe", nil),
		httptest.NewRequest(http.MethodPost, "/healthz", nil),
	} {
		w := serve(srv, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: status = %d", req.Method, req.URL.Path, w.Code)
		}
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, testsupport.NewConfig(t))

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	if got := serve(srv, req).Header().Get(requestIDHeader); got != id {
		t.Fatalf("request id = %q, want %q", got, id)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "not a uuid\r\n")
	got := serve(srv, req).Header().Get(requestIDHeader)
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("invalid request id should be replaced, got %q", got)
	}
}

func TestCORSAllowList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.AllowedOrigins = []string{"http://localhost:8080"}
	srv := newTestServer(t, cfg)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/transcribe", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		return serve(srv, req)
	}

	allowed := preflight("http://localhost:8080")
	if got := allowed.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8080" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := allowed.Header().Get("Access-Control-Max-Age"); got != "3600" {
		t.Fatalf("max age = %q", got)
	}

	denied := preflight("https://evil.example")
	if got := denied.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin for denied origin: %q", got)
	}
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		cfg := testsupport.NewConfig(t,
			testsupport.WithModels("ggml-base.bin"),
			testsupport.WithEngine(testsupport.EngineStub{}),
		)
		srv := newTestServer(t, cfg)
		srv.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

		w := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var resp api.HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != api.HealthOK || resp.DefaultModel != "ggml-base.bin" {
			t.Fatalf("unexpected health payload: %#v", resp)
		}
		if !slices.Equal(resp.Models, []string{"ggml-base.bin"}) {
			t.Fatalf("models = %q", resp.Models)
		}
		if resp.Time != "2026-01-02T03:04:05.000Z" {
			t.Fatalf("time = %q", resp.Time)
		}
	})

	t.Run("degraded without engine", func(t *testing.T) {
		cfg := testsupport.NewConfig(t, testsupport.WithModels("ggml-base.bin"))
		w := serve(newTestServer(t, cfg), httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", w.Code)
		}
		var resp api.HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Status != api.HealthDegraded {
			t.Fatalf("status = %q", resp.Status)
		}
	})
}

func TestRunServesAndShutsDown(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithModels("ggml-base.bin"),
		testsupport.WithEngine(testsupport.EngineStub{}),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	srv := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	second := newTestServer(t, cfg)
	if err := second.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
