// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashureev/datequiz/internal/quiz"
	"github.com/ashureev/datequiz/internal/transcript"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	GRPCHealthPort string // empty disables the gRPC health server
	DBPath         string
	ContentPath    string // empty uses the embedded table
	AllowedOrigins []string
	MediaBaseURL   string
	AppEnv         string
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	HealthTimeout  time.Duration
	Log            LogConfig
	Transcript     transcript.Config
	Quiz           QuizConfig
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// QuizConfig holds the state machine knobs as read from the environment.
type QuizConfig struct {
	QuestionCount int
	ClosenessStep int
	Thresholds    string
	Sequence      string
	FixedSequence string
	FinishGuard   bool
	AllowRestart  bool
	RandomSeed    uint64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("TRANSCRIPT_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GRPCHealthPort: getEnv("GRPC_HEALTH_PORT", "9090"),
		DBPath:         getEnv("DB_PATH", "./data/datequiz.db"),
		ContentPath:    getEnv("CONTENT_PATH", ""),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		MediaBaseURL:   getEnv("MEDIA_BASE_URL", ""),
		AppEnv:         getEnv("APP_ENV", "production"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 60*time.Minute),
		SweepInterval:  getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		HealthTimeout:  getEnvDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
		Transcript: transcript.Config{
			Enabled:       getEnvBool("TRANSCRIPT_ENABLED", true),
			Dir:           getEnv("TRANSCRIPT_DIR", "./data/logs/transcripts"),
			GlobalEnabled: getEnvBool("TRANSCRIPT_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("TRANSCRIPT_GLOBAL_PATH", "./data/logs/transcripts/all.ndjson"),
			QueueSize:     queueSize,
		},
		Quiz: QuizConfig{
			QuestionCount: getEnvInt("QUIZ_QUESTION_COUNT", 6),
			ClosenessStep: getEnvInt("QUIZ_CLOSENESS_STEP", 5),
			Thresholds:    getEnv("QUIZ_OUTCOME_THRESHOLDS", "0,110,150,180"),
			Sequence:      getEnv("QUIZ_SEQUENCE", "fixed"),
			FixedSequence: getEnv("QUIZ_FIXED_SEQUENCE", "3,4,5,6,7,8"),
			FinishGuard:   getEnvBool("QUIZ_FINISH_GUARD", true),
			AllowRestart:  getEnvBool("QUIZ_ALLOW_RESTART", true),
			RandomSeed:    uint64(getEnvInt("QUIZ_RANDOM_SEED", 0)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS cannot be empty")
	}
	if c.Transcript.Enabled && c.Transcript.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_DIR cannot be empty")
	}
	if c.Transcript.GlobalEnabled && c.Transcript.GlobalPath == "" {
		return fmt.Errorf("TRANSCRIPT_GLOBAL_PATH cannot be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := c.QuizSettings(); err != nil {
		return fmt.Errorf("quiz: %w", err)
	}
	return nil
}

// QuizSettings builds the state machine configuration.
func (c *Config) QuizSettings() (quiz.Config, error) {
	thresholds, err := quiz.ParseThresholds(c.Quiz.Thresholds)
	if err != nil {
		return quiz.Config{}, err
	}
	seq, err := quiz.ParseSequence(c.Quiz.Sequence, c.Quiz.FixedSequence)
	if err != nil {
		return quiz.Config{}, err
	}
	qc := quiz.Config{
		QuestionCount: c.Quiz.QuestionCount,
		ClosenessStep: c.Quiz.ClosenessStep,
		Thresholds:    thresholds,
		Sequence:      seq,
		FinishGuard:   c.Quiz.FinishGuard,
		AllowRestart:  c.Quiz.AllowRestart,
	}
	return qc, qc.Validate()
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
