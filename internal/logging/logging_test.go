package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestNewWritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lifeos.log")
	logger, closer := New(Options{File: path, Level: "warn", MaxSizeMB: 1, MaxBackups: 1})
	logger.Info("hidden")
	logger.WithField("component", "test").Warn("visible")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if strings.Contains(out, "hidden") || !strings.Contains(out, "visible") || !strings.Contains(out, "component=test") {
		t.Fatalf("unexpected log output:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw   string
		debug bool
		want  log.Level
	}{
		{raw: "", want: log.InfoLevel},
		{raw: "bogus", want: log.InfoLevel},
		{raw: "error", want: log.ErrorLevel},
		{raw: "error", debug: true, want: log.DebugLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.raw, tc.debug); got != tc.want {
			t.Fatalf("parseLevel(%q, %v) = %s, want %s", tc.raw, tc.debug, got, tc.want)
		}
	}
}

func TestStderrModeHasNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.log")
	logger, closer := New(Options{File: path, Stderr: true})
	if logger.Out != os.Stderr {
		t.Fatal("expected stderr output")
	}
	_ = closer.Close()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no log file, stat err=%v", err)
	}
}
