package quiz

import (
	"strconv"
	"strings"

	"github.com/ashureev/datequiz/internal/content"
)

const (
	// NeutralScore is awarded for an unlisted favorite color and marks the
	// neutral response tier.
	NeutralScore = 20
	// HighTierFloor is the lowest score that earns the answer's own response.
	HighTierFloor = 25
	// ClosenessMax is the score for hitting the ideal number exactly.
	ClosenessMax = 30
	// ClosenessFloor is the lowest score a numeric answer can get.
	ClosenessFloor = 10
)

// Tier is the partner's reaction to an answer.
type Tier int

const (
	TierLow Tier = iota
	TierNeutral
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierNeutral:
		return "neutral"
	default:
		return "low"
	}
}

// TierOf classifies a per-answer score.
func TierOf(points int) Tier {
	switch {
	case points >= HighTierFloor:
		return TierHigh
	case points == NeutralScore:
		return TierNeutral
	default:
		return TierLow
	}
}

// Answer is a submitted answer for a category.
type Answer struct {
	// Category is the question name the answer is for.
	Category string
	// Value is the resolved slot value.
	Value string
	// Number is the raw numeric argument, when the category takes one.
	Number *int
}

// number returns the numeric form of the answer.
func (a Answer) number() (int, bool) {
	if a.Number != nil {
		return *a.Number, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(a.Value))
	if err != nil {
		return 0, false
	}
	return n, true
}

// present reports whether the request carried an answer at all.
func (a Answer) present(c Category) bool {
	if c.Extract == FromArgument {
		_, ok := a.number()
		return ok
	}
	return a.Value != "" || a.Number != nil
}

// Scored is the outcome of scoring one answer.
type Scored struct {
	Points int
	// Response is the partner's own line for a high tier answer.
	Response string
}

// ClosenessScore is max(ClosenessFloor, ClosenessMax - step*|ideal-answer|)
// for any pair of ints.
func ClosenessScore(ideal, answer, step int) int {
	if step <= 0 {
		return ClosenessMax
	}
	if distance(ideal, answer) > uint64((ClosenessMax-ClosenessFloor)/step) {
		return ClosenessFloor
	}
	return max(ClosenessFloor, ClosenessMax-step*int(distance(ideal, answer)))
}

// distance is |a-b| computed without overflow.
func distance(a, b int) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// Score maps an answer to points for a partner. It is a pure function of
// the table. ok is false only when a numeric category got no number.
func Score(p *content.Partner, c Category, a Answer, step int) (Scored, bool) {
	switch c.Scoring {
	case ScoreCloseness:
		n, ok := a.number()
		if !ok {
			return Scored{}, false
		}
		cl := p.Closeness[c.Key]
		return Scored{Points: ClosenessScore(cl.Ideal, n, step), Response: cl.Response}, true
	case ScoreTableOrNeutral:
		if entry, ok := p.Answer(c.Key, a.Value); ok {
			return Scored{Points: entry.DatePoints, Response: entry.Response}, true
		}
		return Scored{Points: NeutralScore}, true
	default:
		// Unlisted answers score nothing and land in the low tier.
		entry, _ := p.Answer(c.Key, a.Value)
		return Scored{Points: entry.DatePoints, Response: entry.Response}, true
	}
}
