// Package domain contains core domain types for the date quiz.
package domain

import (
	"time"
)

// Phase is the coarse state of a conversation.
type Phase string

const (
	// PhaseIdle means no partner has been chosen.
	PhaseIdle Phase = "idle"
	// PhaseInProgress means questions remain in the sequence.
	PhaseInProgress Phase = "in_progress"
	// PhaseAwaitingFinish means every scheduled question has been answered.
	PhaseAwaitingFinish Phase = "awaiting_finish"
)

// Session is the attribute bag persisted for one conversation.
// Operations treat it as a value: they return a modified copy and never
// touch the caller's QuestionOrder slice.
type Session struct {
	CumulativeScore     int         `json:"datePoints"`
	PreviousAnswerScore int         `json:"prevAnswerPoints"`
	PartnerName         string      `json:"partnerName"`
	LocationName        string      `json:"locationName,omitempty"`
	Gender              string      `json:"gender,omitempty"`
	CurrentIndex        int         `json:"currentIndex"`
	RedoIndex           int         `json:"redoIndex"`
	QuestionOrder       []int       `json:"questionOrder"`
	LastVisual          *VisualHint `json:"lastVisual,omitempty"`
}

// NewSession returns the idle session every conversation starts with.
func NewSession() Session {
	return Session{RedoIndex: -1}
}

// Active reports whether a partner has been chosen.
func (s Session) Active() bool {
	return s.PartnerName != ""
}

// Phase derives the conversation phase from the attributes.
func (s Session) Phase() Phase {
	switch {
	case !s.Active():
		return PhaseIdle
	case s.CurrentIndex >= len(s.QuestionOrder):
		return PhaseAwaitingFinish
	default:
		return PhaseInProgress
	}
}

// PendingQuestion returns the question id awaiting an answer.
// The second result is false once the sequence is exhausted.
func (s Session) PendingQuestion() (int, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionOrder) {
		return 0, false
	}
	return s.QuestionOrder[s.CurrentIndex], true
}

// Clone returns a deep copy safe to mutate.
func (s Session) Clone() Session {
	out := s
	if s.QuestionOrder != nil {
		out.QuestionOrder = append([]int(nil), s.QuestionOrder...)
	}
	if s.LastVisual != nil {
		v := *s.LastVisual
		out.LastVisual = &v
	}
	return out
}

// StoredSession is a Session together with its storage metadata.
type StoredSession struct {
	SessionID string    `json:"sessionId"`
	Session   Session   `json:"attributes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
