package quiz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ashureev/datequiz/internal/domain"
)

// Thresholds are the inclusive lower bounds for poor, good, great and
// perfect, in that order.
type Thresholds [4]int

var (
	// DefaultThresholds assume six questions plus a location, 210 at most.
	DefaultThresholds = Thresholds{0, 110, 150, 180}
	// AlternateThresholds is the more lenient ladder of the earlier skill.
	AlternateThresholds = Thresholds{0, 100, 140, 170}
)

var outcomeLadder = [4]domain.Outcome{
	domain.OutcomePoor,
	domain.OutcomeGood,
	domain.OutcomeGreat,
	domain.OutcomePerfect,
}

// Classify returns the highest tier whose threshold the total meets.
// Totals below the first threshold are poor.
func Classify(total int, t Thresholds) domain.Outcome {
	out := domain.OutcomePoor
	for i, floor := range t {
		if total >= floor {
			out = outcomeLadder[i]
		}
	}
	return out
}

// Validate requires a strictly ascending ladder.
func (t Thresholds) Validate() error {
	for i := 1; i < len(t); i++ {
		if t[i] <= t[i-1] {
			return fmt.Errorf("outcome thresholds must be strictly ascending: %v", t)
		}
	}
	return nil
}

// ParseThresholds reads a comma separated ladder such as "0,110,150,180".
func ParseThresholds(s string) (Thresholds, error) {
	var t Thresholds
	parts := strings.Split(s, ",")
	if len(parts) != len(t) {
		return t, fmt.Errorf("want %d thresholds, got %d in %q", len(t), len(parts), s)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return t, fmt.Errorf("threshold %d: %w", i, err)
		}
		t[i] = n
	}
	return t, t.Validate()
}
