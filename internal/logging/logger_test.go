package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
	logger.Info("file message")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "scribe.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "file message") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath, logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "debug",
		Outputs: []string{logPath, logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerHoistsComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "component.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "engine").Info("spawned", logging.String("binary", "whisper cli"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO engine: spawned") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, `binary="whisper cli"`) {
		t.Fatalf("expected quoted attribute, got %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no color codes in file output, got %q", line)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:  "json",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["msg"] != "json message" || entry["level"] != "info" || entry["k"] != "v" {
		t.Fatalf("unexpected json entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")
	logger, err := logging.New(logging.Options{Format: "console", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-xyz")
	ctx = services.WithModel(ctx, "ggml-base.bin")
	logging.WithContext(ctx, logger).Info("contextual log")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{"INFO [req-xyz]: contextual log", "model=ggml-base.bin"} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestConsoleLoggerPrefixesRequestAndRendersSizes(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "prefix.log")
	logger, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-1")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "api-server"))
	logger.Info("upload received", logging.Bytes("audio_size", 2048))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, `INFO api-server [req-1]: upload received audio_size="2.00 KB"`) {
		t.Fatalf("unexpected console line %q", line)
	}
	if strings.Contains(line, "correlation_id=") || strings.Contains(line, "component=") {
		t.Fatalf("expected prefix fields to be lifted, got %q", line)
	}
}

func TestJSONLoggerRendersRequestFieldsAndSizes(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fields.json")
	logger, err := logging.New(logging.Options{Format: "json", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRequestID(context.Background(), "req-2")
	ctx = services.WithModel(ctx, "ggml-base.bin")
	logging.WithContext(ctx, logger).Info("transcription started", logging.Bytes("audio_size", 5<<20))
	logger.Info("blank request", logging.String(logging.FieldCorrelationID, " "))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %q", content)
	}

	var first struct {
		CorrelationID string `json:"correlation_id"`
		Model         string `json:"model"`
		AudioSize     struct {
			Bytes int64  `json:"bytes"`
			Human string `json:"human"`
		} `json:"audio_size"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if first.CorrelationID != "req-2" || first.Model != "ggml-base.bin" {
		t.Fatalf("unexpected request fields: %+v", first)
	}
	if first.AudioSize.Bytes != 5<<20 || first.AudioSize.Human != "5.00 MB" {
		t.Fatalf("unexpected size rendering: %+v", first.AudioSize)
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if _, ok := second[logging.FieldCorrelationID]; ok {
		t.Fatalf("expected blank correlation id to be dropped, got %v", second)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:             "512 bytes",
		2048:            "2.00 KB",
		5 * 1024 * 1024: "5.00 MB",
		3 << 30:         "3.00 GB",
		1 << 20:         "1.00 MB",
		1023:            "1023 bytes",
	}
	for n, want := range cases {
		if got := logging.FormatBytes(n); got != want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
