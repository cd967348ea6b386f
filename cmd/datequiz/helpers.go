package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ashureev/datequiz/internal/config"
	"github.com/ashureev/datequiz/internal/content"
	"github.com/ashureev/datequiz/internal/quiz"
	"github.com/ashureev/datequiz/internal/skill"
	"github.com/ashureev/datequiz/internal/store"
)

// newDispatcher loads the content table and builds the state machine and
// turn dispatcher every front-end shares.
func newDispatcher(cfg *config.Config, repo store.Repository, logger *slog.Logger, opts ...skill.Option) (*skill.Dispatcher, error) {
	table, err := content.Load(cfg.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid content table: %w", err)
	}

	qc, err := cfg.QuizSettings()
	if err != nil {
		return nil, fmt.Errorf("quiz settings: %w", err)
	}

	seed := cfg.Quiz.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rnd := rand.New(rand.NewPCG(seed, seed))

	machine := quiz.NewMachine(table, qc, rnd,
		quiz.WithMediaResolver(content.BaseURLResolver{BaseURL: cfg.MediaBaseURL}))

	logger.Info("Quiz ready",
		"partners", len(table.Partners),
		"questions", len(table.Questions),
		"question_count", qc.QuestionCount,
		"sequence", cfg.Quiz.Sequence,
		"fixed_seed", cfg.Quiz.RandomSeed != 0)

	opts = append([]skill.Option{skill.WithLogger(logger)}, opts...)
	return skill.NewDispatcher(machine, repo, opts...), nil
}
