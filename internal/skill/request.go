// Package skill routes named voice-assistant operations to the date quiz
// state machine, loading and saving conversation attributes around each turn.
package skill

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StatusMatch is the only entity-resolution status that yields a value.
const StatusMatch = "ER_SUCCESS_MATCH"

// Operation names understood by the dispatcher. Answer operations are the
// per-category names in the quiz category registry.
const (
	OpGoOnDate     = "goOnDate"
	OpFinishDate   = "finishDate"
	OpChangeAnswer = "changeAnswer"
	OpCheckStatus  = "checkDateStatus"
)

// Slot names for StartSession.
const (
	SlotPartner  = "partner"
	SlotLocation = "location"
	SlotGender   = "gender"
)

// Slot is one entity slot as delivered by the platform.
type Slot struct {
	// Value is what the user said.
	Value string `json:"value,omitempty"`
	// Status is the entity-resolution status code.
	Status string `json:"status,omitempty"`
	// Resolved is the canonical catalogue value on a match.
	Resolved string `json:"resolved,omitempty"`
}

// Request is one turn.
type Request struct {
	SessionID string          `json:"sessionId,omitempty"`
	Name      string          `json:"name"`
	Slots     map[string]Slot `json:"slots,omitempty"`
	Arguments map[string]any  `json:"arguments,omitempty"`
}

// resolve returns the canonical value of a slot, or "" unless it matched.
func (r Request) resolve(name string) string {
	s, ok := r.Slots[name]
	if !ok || s.Status != StatusMatch {
		return ""
	}
	if s.Resolved != "" {
		return s.Resolved
	}
	return s.Value
}

// argument returns a numeric argument from the first name present.
func (r Request) argument(names ...string) (int, bool) {
	for _, name := range names {
		v, ok := r.Arguments[name]
		if !ok || v == nil {
			continue
		}
		if n, ok := toInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt || n >= -math.MinInt {
			return 0, false
		}
		return int(n), true
	case string:
		return atoi(n)
	case fmt.Stringer:
		return atoi(n.String())
	default:
		return 0, false
	}
}

func atoi(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
