package quiz

import (
	"fmt"
	"strconv"
	"strings"
)

// SequencePolicy picks the ordered question ids for a new session.
type SequencePolicy interface {
	Select(available, count int, rnd Rand) []int
}

// FixedSequence always asks the same questions in the same order.
// Ids outside the table are skipped.
type FixedSequence struct {
	IDs []int
}

// Select implements SequencePolicy.
func (f FixedSequence) Select(available, count int, _ Rand) []int {
	out := make([]int, 0, len(f.IDs))
	for _, id := range f.IDs {
		if id >= 0 && id < available {
			out = append(out, id)
		}
	}
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out
}

// RandomSubset shuffles every question and keeps the first count.
type RandomSubset struct{}

// Select implements SequencePolicy.
func (RandomSubset) Select(available, count int, rnd Rand) []int {
	ids := make([]int, available)
	for i := range ids {
		ids[i] = i
	}
	for i := len(ids) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
	if count > 0 && count < len(ids) {
		ids = ids[:count]
	}
	return ids
}

// ParseSequence builds a policy from its configuration name.
func ParseSequence(name, fixed string) (SequencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fixed":
		if strings.TrimSpace(fixed) == "" {
			return FixedSequence{IDs: DefaultFixedSequence}, nil
		}
		var ids []int
		for _, p := range strings.Split(fixed, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("fixed sequence: %w", err)
			}
			ids = append(ids, n)
		}
		return FixedSequence{IDs: ids}, nil
	case "random":
		return RandomSubset{}, nil
	default:
		return nil, fmt.Errorf("unknown sequence policy %q", name)
	}
}
