package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	closer, err := Setup("warn", path, "test")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	log.Info().Msg("hidden")
	log.Warn().Str("profile", "acme").Msg("visible")
	log.Error().Stack().Err(errors.New("boom")).Msg("failed")

	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d:\n%s", len(lines), data)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "visible" || entry["profile"] != "acme" || entry["level"] != "warn" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry has no timestamp")
	}

	if !strings.Contains(lines[1], `"stack"`) {
		t.Errorf("error entry has no stack: %s", lines[1])
	}

	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("global level: got %s", zerolog.GlobalLevel())
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	if _, err := Setup("chatty", DstStderr, "test"); err == nil {
		t.Error("Setup should fail for an unknown level")
	}
}

func TestSetup_UnwritableFile(t *testing.T) {
	if _, err := Setup("info", filepath.Join(t.TempDir(), "missing", "dir", "x.log"), "test"); err == nil {
		t.Error("Setup should fail when the log file cannot be opened")
	}
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("global level: got %s", zerolog.GlobalLevel())
	}
	if err := SetLevel("loud"); err == nil {
		t.Error("SetLevel should fail for an unknown level")
	}
}
