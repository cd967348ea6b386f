package transcript

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	global := filepath.Join(dir, "all", "turns.ndjson")
	logger, err := NewLogger(Config{
		Enabled:       true,
		Dir:           dir,
		GlobalEnabled: true,
		GlobalPath:    global,
		QueueSize:     16,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Log(Event{
		SessionID:   "sess-1",
		Operation:   "goOnDate",
		ContentRaw:  "<speak>A cafe?<break strength='medium'/> Okay, next question.</speak>",
		ScoreBefore: 0,
		ScoreAfter:  20,
	})

	line := waitForLogLine(t, filepath.Join(dir, "sess-1.ndjson"))
	var got Event
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("failed to unmarshal log line: %v", err)
	}
	if got.Content != "A cafe? Okay, next question." {
		t.Fatalf("unexpected Content: %q", got.Content)
	}
	if got.ScoreAfter != 20 || got.Timestamp.IsZero() {
		t.Fatalf("unexpected event: %+v", got)
	}

	if line := waitForLogLine(t, global); !strings.Contains(line, `"session_id":"sess-1"`) {
		t.Fatalf("global transcript missing event: %s", line)
	}
}

func TestLoggerCloseFlushes(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(Config{Enabled: true, Dir: dir, QueueSize: 64}, nil)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		logger.Log(Event{SessionID: "s", Operation: "checkDateStatus"})
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "s.ndjson"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 10 {
		t.Errorf("lines = %d, want 10", n)
	}

	// Logging after close is a no-op.
	logger.Log(Event{SessionID: "s"})
}

func TestDisabledLoggerDiscards(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "never")
	logger, err := NewLogger(Config{Enabled: false, Dir: dir}, nil)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Log(Event{SessionID: "s"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("disabled logger should not create %s", dir)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"sess-1":            "sess-1.ndjson",
		"amzn1.echo.abc":    "amzn1.echo.abc.ndjson",
		"amzn1.echo:abc/..": "~616d7a6e312e6563686f3a6162632f2e2e.ndjson",
		"a/b":               "~612f62.ndjson",
		"":                  "~.ndjson",
		"..":                "~2e2e.ndjson",
	}
	for in, want := range tests {
		if got := fileName(in); got != want {
			t.Errorf("fileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFileNameDistinct(t *testing.T) {
	ids := []string{"a/b", "a_b", "a:b", "a b", "~612f62", "", "unknown", ".", "..", "_2e2e"}
	seen := make(map[string]string, len(ids))
	for _, id := range ids {
		name := fileName(id)
		if prev, ok := seen[name]; ok {
			t.Errorf("fileName(%q) = fileName(%q) = %q", id, prev, name)
		}
		seen[name] = id
		if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
			t.Errorf("fileName(%q) = %q is not a plain file name", id, name)
		}
	}
}

func TestLoggerConcurrentLogAndClose(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(Config{Enabled: true, Dir: dir, QueueSize: 4096}, nil)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	const writers, perPhase = 8, 50
	var before, after sync.WaitGroup
	before.Add(writers)
	after.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer after.Done()
			for j := 0; j < perPhase; j++ {
				logger.Log(Event{SessionID: "s", Operation: "checkDateStatus"})
			}
			before.Done()
			// These race with Close and may or may not be kept.
			for j := 0; j < perPhase; j++ {
				logger.Log(Event{SessionID: "s", Operation: "checkDateStatus"})
			}
		}()
	}

	before.Wait()
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	after.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "s.ndjson"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	n := strings.Count(string(data), "\n")
	if n < writers*perPhase || n > 2*writers*perPhase {
		t.Errorf("lines = %d, want between %d and %d", n, writers*perPhase, 2*writers*perPhase)
	}

	// Nothing is written once Close has returned.
	time.Sleep(20 * time.Millisecond)
	again, err := os.ReadFile(filepath.Join(dir, "s.ndjson"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if len(again) != len(data) {
		t.Errorf("transcript grew after Close: %d -> %d bytes", len(data), len(again))
	}
}

func TestCleanForReadability(t *testing.T) {
	t.Parallel()

	raw := "<speak>Hmm, interesting.<break time='1.5s' /> Next.</speak>"
	if got := cleanForReadability(raw); got != "Hmm, interesting. Next." {
		t.Fatalf("cleanForReadability() = %q", got)
	}
}

func waitForLogLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) > 0 {
				return lines[len(lines)-1]
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for log file %s", path)
	return ""
}
