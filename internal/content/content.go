// Package content holds the read-only tables that drive the date quiz:
// partners, their locations and scoring tables, the question list and the
// flavor-line pools.
package content

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownPartner is returned when a partner name is not in the table.
	ErrUnknownPartner = errors.New("unknown partner")
	// ErrUnknownLocation is returned when a partner has no such location.
	ErrUnknownLocation = errors.New("unknown location")
	// ErrUnknownQuestion is returned for an out of range question id.
	ErrUnknownQuestion = errors.New("unknown question")
)

// Question is one prompt the partner can ask.
type Question struct {
	Name      string `yaml:"name" json:"name"`
	Text      string `yaml:"text" json:"text"`
	ShortText string `yaml:"shortText,omitempty" json:"shortText,omitempty"`
}

// Location is where the date takes place.
type Location struct {
	Response   string `yaml:"response" json:"response"`
	Start      string `yaml:"start" json:"start"`
	End        string `yaml:"end" json:"end"`
	DatePoints int    `yaml:"datePoints" json:"datePoints"`
	Image      string `yaml:"image,omitempty" json:"image,omitempty"`
}

// AnswerEntry scores one answer value.
type AnswerEntry struct {
	Response   string `yaml:"response,omitempty" json:"response,omitempty"`
	DatePoints int    `yaml:"datePoints" json:"datePoints"`
}

// Closeness configures a numeric question scored by distance to an ideal.
type Closeness struct {
	Ideal    int    `yaml:"ideal" json:"ideal"`
	Response string `yaml:"response,omitempty" json:"response,omitempty"`
}

// Outcomes holds the closing line for each final tier.
type Outcomes struct {
	Poor    string `yaml:"poor" json:"poor"`
	Good    string `yaml:"good" json:"good"`
	Great   string `yaml:"great" json:"great"`
	Perfect string `yaml:"perfect" json:"perfect"`
}

// Colors are display hints for a partner.
type Colors struct {
	Primary   string `yaml:"primary,omitempty" json:"primary,omitempty"`
	Secondary string `yaml:"secondary,omitempty" json:"secondary,omitempty"`
}

// Partner is one selectable persona with its own scoring and flavor text.
type Partner struct {
	DisplayName string                            `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	Image       string                            `yaml:"image,omitempty" json:"image,omitempty"`
	Background  string                            `yaml:"background,omitempty" json:"background,omitempty"`
	Colors      Colors                            `yaml:"colors,omitempty" json:"colors,omitempty"`
	Locations   map[string]Location               `yaml:"locations" json:"locations"`
	Answers     map[string]map[string]AnswerEntry `yaml:"answers" json:"answers"`
	Closeness   map[string]Closeness              `yaml:"closeness,omitempty" json:"closeness,omitempty"`
	Outcome     Outcomes                          `yaml:"outcome" json:"outcome"`
	LeadIn      []string                          `yaml:"leadin" json:"leadin"`
	Neutral     []string                          `yaml:"neutral" json:"neutral"`
	Disliked    []string                          `yaml:"disliked" json:"disliked"`
	Closing     string                            `yaml:"closing,omitempty" json:"closing,omitempty"`
}

// Table is the whole content set.
type Table struct {
	Questions  []Question         `yaml:"questions" json:"questions"`
	RedoLeadIn []string           `yaml:"redoLeadin" json:"redoLeadin"`
	Partners   map[string]Partner `yaml:"partners" json:"partners"`
}

// DefaultClosing is spoken after the last answer when a partner has no
// closing line of its own.
const DefaultClosing = "It's getting late. Whenever you're ready, tell me you want to finish the date."

// Partner looks up a partner by name.
func (t *Table) Partner(name string) (*Partner, error) {
	p, ok := t.Partners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPartner, name)
	}
	return &p, nil
}

// Location looks up a partner's location.
func (t *Table) Location(partner, location string) (*Location, error) {
	p, err := t.Partner(partner)
	if err != nil {
		return nil, err
	}
	loc, ok := p.Locations[location]
	if !ok {
		return nil, fmt.Errorf("%w: %q for partner %q", ErrUnknownLocation, location, partner)
	}
	return &loc, nil
}

// Question returns the question with the given id.
func (t *Table) Question(id int) (*Question, error) {
	if id < 0 || id >= len(t.Questions) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownQuestion, id)
	}
	q := t.Questions[id]
	return &q, nil
}

// QuestionID returns the id of the question with the given name, or -1.
func (t *Table) QuestionID(name string) int {
	for i, q := range t.Questions {
		if q.Name == name {
			return i
		}
	}
	return -1
}

// Answer looks up the scoring entry for an answer value.
func (p *Partner) Answer(category, value string) (AnswerEntry, bool) {
	entries, ok := p.Answers[category]
	if !ok {
		return AnswerEntry{}, false
	}
	entry, ok := entries[value]
	return entry, ok
}

// ClosingLine returns the end-of-questions prompt.
func (p *Partner) ClosingLine() string {
	if p.Closing != "" {
		return p.Closing
	}
	return DefaultClosing
}

// PartnerNames returns partner names in sorted order.
func (t *Table) PartnerNames() []string {
	names := make([]string, 0, len(t.Partners))
	for name := range t.Partners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LocationNames returns a partner's location names in sorted order.
func (p *Partner) LocationNames() []string {
	names := make([]string, 0, len(p.Locations))
	for name := range p.Locations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PartnerSummary is the public view of a partner.
type PartnerSummary struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Locations   []string `json:"locations"`
}

// Catalogue lists every partner with its locations, sorted by name.
func (t *Table) Catalogue() []PartnerSummary {
	out := make([]PartnerSummary, 0, len(t.Partners))
	for _, name := range t.PartnerNames() {
		p := t.Partners[name]
		display := p.DisplayName
		if display == "" {
			display = name
		}
		out = append(out, PartnerSummary{
			Name:        name,
			DisplayName: display,
			Locations:   p.LocationNames(),
		})
	}
	return out
}

// Validate checks the structural rules every table must satisfy.
func (t *Table) Validate() error {
	var errs []error

	if len(t.Questions) == 0 {
		errs = append(errs, errors.New("no questions defined"))
	}
	seen := make(map[string]bool, len(t.Questions))
	for i, q := range t.Questions {
		if q.Name == "" || q.Text == "" {
			errs = append(errs, fmt.Errorf("question %d: name and text are required", i))
		}
		if seen[q.Name] {
			errs = append(errs, fmt.Errorf("question %d: duplicate name %q", i, q.Name))
		}
		seen[q.Name] = true
	}
	if len(t.RedoLeadIn) == 0 {
		errs = append(errs, errors.New("redoLeadin must not be empty"))
	}
	if len(t.Partners) == 0 {
		errs = append(errs, errors.New("no partners defined"))
	}

	for _, name := range t.PartnerNames() {
		p := t.Partners[name]
		if len(p.Locations) == 0 {
			errs = append(errs, fmt.Errorf("partner %q: no locations", name))
		}
		if len(p.LeadIn) != 5 {
			errs = append(errs, fmt.Errorf("partner %q: want 5 lead-in lines, got %d", name, len(p.LeadIn)))
		}
		if len(p.Neutral) == 0 {
			errs = append(errs, fmt.Errorf("partner %q: neutral pool is empty", name))
		}
		if len(p.Disliked) == 0 {
			errs = append(errs, fmt.Errorf("partner %q: disliked pool is empty", name))
		}
		o := p.Outcome
		if o.Poor == "" || o.Good == "" || o.Great == "" || o.Perfect == "" {
			errs = append(errs, fmt.Errorf("partner %q: all four outcome lines are required", name))
		}
	}

	return errors.Join(errs...)
}
