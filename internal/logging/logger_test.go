package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestWithContextAddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	t.Cleanup(func() { log.Logger = previous })
	SetGlobalLogger(New(Config{Level: "debug", Format: "json", Output: &buf}))

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), "user-9")
	WithContext(ctx).Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" || entry["user_id"] != "user-9" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")

	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestNewWritesRotatingFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "musicatlas.log")

	logger := New(Config{Level: "info", Output: &buf, File: path})
	logger.Info().Msg("persisted")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "persisted") || !strings.Contains(buf.String(), "persisted") {
		t.Fatalf("expected line in both outputs, file=%q stdout=%q", data, buf.String())
	}
}
