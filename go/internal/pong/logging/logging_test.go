package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcdev12/pong/go/internal/pong/config"
	"github.com/rs/zerolog"
)

func TestWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	w, closer := Writer(config.LoggingConfig{Console: true}, &buf)
	defer closer.Close()

	logger := zerolog.New(w)
	logger.Info().Str("session_id", "abcd1234").Msg("session created")

	out := buf.String()
	if !strings.Contains(out, "session created") || !strings.Contains(out, "abcd1234") {
		t.Errorf("console output missing fields: %q", out)
	}
}

func TestWriterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pong.log")
	w, closer := Writer(config.LoggingConfig{File: path, MaxSizeMB: 1}, nil)

	logger := zerolog.New(w)
	logger.Warn().Msg("peer disconnected")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"message":"peer disconnected"`) {
		t.Errorf("file output = %q", data)
	}
}

func TestWriterDiscardsWithoutSinks(t *testing.T) {
	w, closer := Writer(config.LoggingConfig{}, nil)
	defer closer.Close()
	if _, err := w.Write([]byte("ignored")); err != nil {
		t.Errorf("discard write: %v", err)
	}
}

func TestSetupRejectsBadLevel(t *testing.T) {
	if _, err := Setup(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetupSetsGlobalLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	closer, err := Setup(config.LoggingConfig{Level: "warn"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer closer.Close()

	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("global level = %v, want warn", got)
	}
}
