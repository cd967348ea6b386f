// Package console is a terminal front-end for playing a date locally.
package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/datequiz/internal/quiz"
	"github.com/ashureev/datequiz/internal/skill"
)

// ErrUsage is returned for input that is not a console command.
var ErrUsage = errors.New("usage")

const helpText = "Commands: start <partner> <location> [gender], answer <question> <value>, redo, finish, status, partners, /quit"

// ParseCommand turns a console line into a dispatcher request. Partner names
// are matched case-insensitively against partners. The session id is left
// for the caller to fill in.
func ParseCommand(line string, partners []string) (skill.Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return skill.Request{}, fmt.Errorf("%w: empty command", ErrUsage)
	}

	switch strings.ToLower(fields[0]) {
	case "start":
		if len(fields) < 3 {
			return skill.Request{}, fmt.Errorf("%w: start <partner> <location> [gender]", ErrUsage)
		}
		slots := map[string]skill.Slot{
			skill.SlotPartner:  matched(canonical(partners, fields[1])),
			skill.SlotLocation: matched(strings.ToLower(fields[2])),
		}
		if len(fields) > 3 {
			slots[skill.SlotGender] = matched(strings.ToLower(fields[3]))
		}
		return skill.Request{Name: skill.OpGoOnDate, Slots: slots}, nil

	case "answer":
		if len(fields) < 3 {
			return skill.Request{}, fmt.Errorf("%w: answer <question> <value>", ErrUsage)
		}
		cat, ok := quiz.CategoryForKey(fields[1])
		if !ok {
			cat, ok = quiz.CategoryForOperation(fields[1])
		}
		if !ok {
			return skill.Request{}, fmt.Errorf("%w: unknown question %q", ErrUsage, fields[1])
		}
		value := strings.ToLower(strings.Join(fields[2:], " "))
		req := skill.Request{Name: cat.Operation}
		if cat.Extract == quiz.FromArgument {
			req.Arguments = map[string]any{cat.Slot: value}
		} else {
			req.Slots = map[string]skill.Slot{cat.Slot: matched(value)}
		}
		return req, nil

	case "redo":
		return skill.Request{Name: skill.OpChangeAnswer}, nil
	case "finish":
		return skill.Request{Name: skill.OpFinishDate}, nil
	case "status":
		return skill.Request{Name: skill.OpCheckStatus}, nil
	}

	return skill.Request{}, fmt.Errorf("%w: unknown command %q", ErrUsage, fields[0])
}

// matched builds a slot the way the platform delivers a resolved entity.
func matched(value string) skill.Slot {
	return skill.Slot{Value: value, Status: skill.StatusMatch, Resolved: value}
}

func canonical(names []string, v string) string {
	for _, n := range names {
		if strings.EqualFold(n, v) {
			return n
		}
	}
	return v
}
