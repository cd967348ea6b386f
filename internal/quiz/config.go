// Package quiz implements the date session state machine together with its
// scoring policy and outcome classifier.
package quiz

import "fmt"

// Rand is the randomness the machine needs. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// Config collects the knobs that differed between historical versions of
// the skill.
type Config struct {
	// QuestionCount is how many questions a session schedules and how many
	// must be answered before the date can finish.
	QuestionCount int
	// ClosenessStep is the penalty per unit of distance for numeric
	// questions.
	ClosenessStep int
	// Thresholds is the ascending outcome ladder.
	Thresholds Thresholds
	// Sequence chooses the question order when a session starts.
	Sequence SequencePolicy
	// FinishGuard refuses to finish before QuestionCount answers.
	FinishGuard bool
	// AllowRestart lets StartSession overwrite a session in progress.
	AllowRestart bool
}

// DefaultFixedSequence is the deterministic order used by default.
var DefaultFixedSequence = []int{3, 4, 5, 6, 7, 8}

// DefaultConfig returns the configuration of the most recent skill version.
func DefaultConfig() Config {
	return Config{
		QuestionCount: 6,
		ClosenessStep: 5,
		Thresholds:    DefaultThresholds,
		Sequence:      FixedSequence{IDs: DefaultFixedSequence},
		FinishGuard:   true,
		AllowRestart:  true,
	}
}

// Validate checks the configuration for values the machine cannot use.
func (c Config) Validate() error {
	if c.QuestionCount <= 0 {
		return fmt.Errorf("question count must be > 0, got %d", c.QuestionCount)
	}
	if c.ClosenessStep < 0 {
		return fmt.Errorf("closeness step must be >= 0, got %d", c.ClosenessStep)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Sequence == nil {
		return fmt.Errorf("sequence policy is required")
	}
	return nil
}
