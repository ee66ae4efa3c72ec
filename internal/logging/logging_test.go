package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zap.InfoLevel,
		"debug":   zap.DebugLevel,
		" WARN ":  zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"verbose": zap.InfoLevel,
	}
	for raw, want := range cases {
		if got := ParseLevel(raw); got != want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger := New(Options{Level: "debug", File: path})
	logger.Info("submission stored", zap.String("team", "Primes"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"team":"Primes"`) {
		t.Fatalf("expected structured field in log file, got %s", data)
	}
}
