// Package transcript records every dialogue turn as newline-delimited JSON,
// one file per conversation plus an optional combined file.
package transcript

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Config controls transcript logging.
type Config struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Event is one recorded turn.
type Event struct {
	Timestamp   time.Time         `json:"ts"`
	SessionID   string            `json:"session_id"`
	Operation   string            `json:"operation"`
	Slots       map[string]string `json:"slots,omitempty"`
	Arguments   map[string]any    `json:"arguments,omitempty"`
	ContentRaw  string            `json:"content_raw,omitempty"`
	Content     string            `json:"content,omitempty"`
	ScoreBefore int               `json:"score_before"`
	ScoreAfter  int               `json:"score_after"`
	Phase       string            `json:"phase,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Logger writes events from a background goroutine so turns never wait on
// disk. A disabled Logger accepts and discards events.
type Logger struct {
	cfg    Config
	queue  chan Event
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	// mu orders sends to queue before Close stops the writer.
	mu     sync.RWMutex
	closed bool
	global *os.File
	logger *slog.Logger
}

// NewLogger creates a Logger and starts its writer.
func NewLogger(cfg Config, logger *slog.Logger) (*Logger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Logger{cfg: cfg, logger: logger, done: make(chan struct{})}
	if !cfg.Enabled {
		return l, nil
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
		l.cfg.QueueSize = cfg.QueueSize
	}

	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0o750); err != nil {
			return nil, fmt.Errorf("create transcript global dir: %w", err)
		}
		f, err := os.OpenFile(cfg.GlobalPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open transcript global file: %w", err)
		}
		l.global = f
	}

	l.queue = make(chan Event, cfg.QueueSize)
	l.wg.Add(1)
	go l.run()
	return l, nil
}

// Log queues an event. When the queue is full the oldest event is dropped.
func (l *Logger) Log(e Event) {
	if l == nil || l.queue == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Content == "" && e.ContentRaw != "" {
		e.Content = cleanForReadability(e.ContentRaw)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	select {
	case l.queue <- e:
		return
	default:
	}

	l.logger.Warn("Transcript queue full, dropping oldest event", "session_id", e.SessionID)
	select {
	case <-l.queue:
	default:
	}
	select {
	case l.queue <- e:
	default:
		l.logger.Warn("Failed to queue transcript event", "session_id", e.SessionID)
	}
}

// Close flushes queued events and releases files.
func (l *Logger) Close() error {
	if l == nil || l.queue == nil {
		return nil
	}
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.done)
		l.mu.Unlock()
	})
	l.wg.Wait()
	if l.global != nil {
		return l.global.Close()
	}
	return nil
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case e := <-l.queue:
			l.write(e)
		case <-l.done:
			for {
				select {
				case e := <-l.queue:
					l.write(e)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(e Event) {
	line, err := json.Marshal(e)
	if err != nil {
		l.logger.Error("Failed to encode transcript event", "error", err, "session_id", e.SessionID)
		return
	}
	line = append(line, '\n')

	path := filepath.Join(l.cfg.Dir, fileName(e.SessionID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		l.logger.Error("Failed to open transcript file", "error", err, "path", path)
		return
	}
	if _, err := f.Write(line); err != nil {
		l.logger.Error("Failed to write transcript", "error", err, "path", path)
	}
	_ = f.Close()

	if l.global != nil {
		if _, err := l.global.Write(line); err != nil {
			l.logger.Error("Failed to write global transcript", "error", err)
		}
	}
}

var safeName = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// fileName maps a session id to a distinct file name. Ids that are already
// safe are used as is; any other id is hex encoded behind a "~" prefix,
// which no safe id contains.
func fileName(sessionID string) string {
	if safeName.MatchString(sessionID) {
		return sessionID + ".ndjson"
	}
	return "~" + hex.EncodeToString([]byte(sessionID)) + ".ndjson"
}

var (
	markupTag  = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// cleanForReadability strips speech markup and collapses whitespace.
func cleanForReadability(raw string) string {
	s := markupTag.ReplaceAllString(raw, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
