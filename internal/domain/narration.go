package domain

import (
	"fmt"
	"strings"
)

// SegmentKind tags a narration segment.
type SegmentKind string

const (
	// SegmentSpeech is text spoken by the assistant.
	SegmentSpeech SegmentKind = "speech"
	// SegmentBreak is a pause between spoken segments.
	SegmentBreak SegmentKind = "break"
	// SegmentAudio is a pre-recorded clip.
	SegmentAudio SegmentKind = "audio"
)

// Segment is one typed piece of a narration.
type Segment struct {
	Kind     SegmentKind `json:"kind"`
	Text     string      `json:"text,omitempty"`
	Strength string      `json:"strength,omitempty"`
	Duration string      `json:"duration,omitempty"`
	Source   string      `json:"source,omitempty"`
}

// Narration is an ordered list of segments.
type Narration struct {
	Segments []Segment `json:"segments"`
}

// Say appends a speech segment. Empty text is dropped.
func (n *Narration) Say(text string) *Narration {
	if text == "" {
		return n
	}
	n.Segments = append(n.Segments, Segment{Kind: SegmentSpeech, Text: text})
	return n
}

// Pause appends a break with a named strength such as "medium".
func (n *Narration) Pause(strength string) *Narration {
	n.Segments = append(n.Segments, Segment{Kind: SegmentBreak, Strength: strength})
	return n
}

// PauseFor appends a break with an explicit duration such as "1.5s".
func (n *Narration) PauseFor(duration string) *Narration {
	n.Segments = append(n.Segments, Segment{Kind: SegmentBreak, Duration: duration})
	return n
}

// Play appends an audio clip.
func (n *Narration) Play(source string) *Narration {
	if source == "" {
		return n
	}
	n.Segments = append(n.Segments, Segment{Kind: SegmentAudio, Source: source})
	return n
}

// IsEmpty reports whether nothing would be spoken.
func (n Narration) IsEmpty() bool {
	return len(n.Segments) == 0
}

// SSML renders the narration wrapped in a speak element. Speech text is
// emitted verbatim since content lines may carry their own markup.
func (n Narration) SSML() string {
	if n.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("<speak>")
	for _, seg := range n.Segments {
		switch seg.Kind {
		case SegmentSpeech:
			b.WriteString(seg.Text)
		case SegmentBreak:
			if seg.Duration != "" {
				fmt.Fprintf(&b, "<break time='%s' />", seg.Duration)
			} else {
				fmt.Fprintf(&b, "<break strength='%s'/>", seg.Strength)
			}
		case SegmentAudio:
			fmt.Fprintf(&b, "<audio src='%s'/>", seg.Source)
		}
	}
	b.WriteString("</speak>")
	return b.String()
}

// PlainText joins the speech segments for text-only surfaces.
func (n Narration) PlainText() string {
	parts := make([]string, 0, len(n.Segments))
	for _, seg := range n.Segments {
		if seg.Kind == SegmentSpeech {
			parts = append(parts, strings.TrimSpace(seg.Text))
		}
	}
	return strings.Join(parts, " ")
}

// VisualHint is what a screen-equipped device should show.
type VisualHint struct {
	DisplayText    string `json:"displayText,omitempty"`
	Image          string `json:"image,omitempty"`
	Background     string `json:"background,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
}

// Outcome is the final tier of a finished date.
type Outcome string

const (
	OutcomePoor    Outcome = "poor"
	OutcomeGood    Outcome = "good"
	OutcomeGreat   Outcome = "great"
	OutcomePerfect Outcome = "perfect"
)

// Result is the payload of one operation.
type Result struct {
	Narration Narration   `json:"narration"`
	Visual    *VisualHint `json:"visual,omitempty"`
	Score     *int        `json:"score,omitempty"`
	Outcome   Outcome     `json:"outcome,omitempty"`
}
