package quiz

import (
	"fmt"

	"github.com/ashureev/datequiz/internal/content"
	"github.com/ashureev/datequiz/internal/domain"
)

// Fixed lines spoken by the machine itself rather than a partner.
const (
	msgNotOnDate     = "You're not on a date yet. Pick a partner and a place to go first."
	msgAlreadyOnDate = "We're already on a date! "
	msgMismatch      = "I don't understand your answer. I'll ask again. "
	msgAllAnswered   = "That's all my questions. Tell me you want to finish the date to see how it went."
	msgRedoRefused   = "You can't change your mind again! Next question, "
	msgNothingToRedo = "You haven't answered anything yet, so there's nothing to change. "
	msgStay          = "Don't leave yet! I still have more questions for you. "
	msgRetry         = " Would you like to try again? You can pick the same or a different partner. "
	msgFinishPrompt  = "Finish the date"
)

const (
	leadInBreak   = "medium"
	reactionPause = "1.5s"
)

// StartRequest carries the identifiers needed to begin a date.
type StartRequest struct {
	Partner  string
	Location string
	Gender   string
}

// Machine runs the date session. It holds only read-only collaborators, so
// one Machine serves every conversation; session state travels in and out
// of each call.
type Machine struct {
	table *content.Table
	cfg   Config
	rnd   Rand
	media content.MediaResolver
}

// Option customizes a Machine.
type Option func(*Machine)

// WithMediaResolver sets how image keys become URLs in visual hints.
func WithMediaResolver(r content.MediaResolver) Option {
	return func(m *Machine) {
		m.media = r
	}
}

// NewMachine creates a Machine over a content table.
func NewMachine(table *content.Table, cfg Config, rnd Rand, opts ...Option) *Machine {
	if cfg.Sequence == nil {
		cfg.Sequence = FixedSequence{IDs: DefaultFixedSequence}
	}
	m := &Machine{
		table: table,
		cfg:   cfg,
		rnd:   rnd,
		media: content.BaseURLResolver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the machine's configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Table returns the content table the machine reads.
func (m *Machine) Table() *content.Table {
	return m.table
}

// StartSession begins a date with a partner at a location. Unknown or
// missing identifiers leave the session untouched and produce no narration.
func (m *Machine) StartSession(s domain.Session, req StartRequest) (domain.Session, domain.Result) {
	if req.Partner == "" || req.Location == "" {
		return s, domain.Result{}
	}
	partner, err := m.table.Partner(req.Partner)
	if err != nil {
		return s, domain.Result{}
	}
	loc, err := m.table.Location(req.Partner, req.Location)
	if err != nil {
		return s, domain.Result{}
	}

	if !m.cfg.AllowRestart && s.Phase() == domain.PhaseInProgress {
		var n domain.Narration
		n.Say(msgAlreadyOnDate)
		id, _ := s.PendingQuestion()
		n.Say(m.questionText(id))
		return s, domain.Result{Narration: n, Visual: s.LastVisual}
	}

	order := m.cfg.Sequence.Select(len(m.table.Questions), m.cfg.QuestionCount, m.rnd)
	if len(order) == 0 {
		return s, domain.Result{}
	}

	next := s.Clone()
	next.CumulativeScore = loc.DatePoints
	next.PreviousAnswerScore = loc.DatePoints
	next.PartnerName = req.Partner
	next.LocationName = req.Location
	next.Gender = req.Gender
	next.CurrentIndex = 0
	next.RedoIndex = -1
	next.QuestionOrder = order

	var n domain.Narration
	n.Say(loc.Response).Say(loc.Start)
	n.Say(pick(m.rnd, partner.LeadIn)).Pause(leadInBreak)
	n.Say(m.questionText(order[0]))

	visual := m.visual(partner, loc.Image, m.questionShortText(order[0]))
	next.LastVisual = visual
	return next, domain.Result{Narration: n, Visual: visual}
}

// SubmitAnswer scores an answer to the pending question and moves on.
// Answers for any other question re-ask the pending one without changing
// the session.
func (m *Machine) SubmitAnswer(s domain.Session, a Answer) (domain.Session, domain.Result) {
	partner, ok := m.activePartner(s)
	if !ok {
		return s, notOnDate()
	}

	cat, known := CategoryForKey(a.Category)
	if !a.present(cat) {
		return s, domain.Result{}
	}

	pendingID, pending := s.PendingQuestion()
	if !pending {
		var n domain.Narration
		n.Say(msgAllAnswered)
		return s, domain.Result{Narration: n, Visual: s.LastVisual}
	}

	q, err := m.table.Question(pendingID)
	if err != nil || !known || q.Name != cat.Key {
		var n domain.Narration
		n.Say(msgMismatch).Say(m.questionText(pendingID))
		return s, domain.Result{Narration: n, Visual: s.LastVisual}
	}

	scored, ok := Score(partner, cat, a, m.cfg.ClosenessStep)
	if !ok {
		return s, domain.Result{}
	}

	var n domain.Narration
	switch TierOf(scored.Points) {
	case TierHigh:
		n.Say(scored.Response)
	case TierNeutral:
		n.Say(pick(m.rnd, partner.Neutral)).PauseFor(reactionPause)
	default:
		n.Say(pick(m.rnd, partner.Disliked)).PauseFor(reactionPause)
	}

	next := s.Clone()
	next.CumulativeScore += scored.Points
	next.PreviousAnswerScore = scored.Points
	next.CurrentIndex++

	var visual *domain.VisualHint
	if nextID, ok := next.PendingQuestion(); ok {
		n.Say(pick(m.rnd, partner.LeadIn)).Pause(leadInBreak)
		n.Say(m.questionText(nextID))
		visual = m.visual(partner, "", m.questionShortText(nextID))
	} else {
		n.Say(partner.ClosingLine())
		visual = m.visual(partner, "", msgFinishPrompt)
	}
	next.LastVisual = visual
	return next, domain.Result{Narration: n, Visual: visual}
}

// RequestRedo reopens the previous question, once per question.
func (m *Machine) RequestRedo(s domain.Session) (domain.Session, domain.Result) {
	if _, ok := m.activePartner(s); !ok {
		return s, notOnDate()
	}

	var n domain.Narration
	if s.RedoIndex >= 0 && s.RedoIndex >= s.CurrentIndex-1 {
		if id, ok := s.PendingQuestion(); ok {
			n.Say(msgRedoRefused).Say(m.questionText(id))
		} else {
			n.Say(msgRedoRefused).Say(msgAllAnswered)
		}
		return s, domain.Result{Narration: n, Visual: s.LastVisual}
	}

	if s.CurrentIndex == 0 {
		n.Say(msgNothingToRedo)
		id, _ := s.PendingQuestion()
		n.Say(m.questionText(id))
		return s, domain.Result{Narration: n, Visual: s.LastVisual}
	}

	partner, _ := m.activePartner(s)
	next := s.Clone()
	next.CumulativeScore -= next.PreviousAnswerScore
	next.PreviousAnswerScore = 0
	next.CurrentIndex--
	next.RedoIndex = next.CurrentIndex

	id := next.QuestionOrder[next.CurrentIndex]
	n.Say(pick(m.rnd, m.table.RedoLeadIn)).Pause(leadInBreak)
	n.Say(m.questionText(id))

	visual := m.visual(partner, "", m.questionShortText(id))
	next.LastVisual = visual
	return next, domain.Result{Narration: n, Visual: visual}
}

// FinishSession ends the date, rates it and returns to idle.
func (m *Machine) FinishSession(s domain.Session) (domain.Session, domain.Result) {
	partner, ok := m.activePartner(s)
	if !ok {
		return s, notOnDate()
	}

	if m.cfg.FinishGuard && s.CurrentIndex < m.required(s) {
		var n domain.Narration
		n.Say(msgStay)
		id, _ := s.PendingQuestion()
		n.Say(m.questionText(id))
		return s, domain.Result{Narration: n, Visual: s.LastVisual}
	}

	total := s.CumulativeScore
	outcome := Classify(total, m.cfg.Thresholds)

	var n domain.Narration
	var image string
	if loc, err := m.table.Location(s.PartnerName, s.LocationName); err == nil {
		n.Say(loc.End)
		image = loc.Image
	}
	n.Say(outcomeText(partner, outcome)).Say(msgRetry)

	next := s.Clone()
	next.CumulativeScore = 0
	next.PreviousAnswerScore = 0
	next.PartnerName = ""
	next.LocationName = ""
	next.CurrentIndex = 0
	next.RedoIndex = -1
	next.QuestionOrder = nil

	visual := m.visual(partner, image, fmt.Sprintf("%s date: %d points", outcome, total))
	next.LastVisual = visual
	return next, domain.Result{Narration: n, Visual: visual, Score: &total, Outcome: outcome}
}

// QueryStatus reports the running score without changing anything.
func (m *Machine) QueryStatus(s domain.Session) (domain.Session, domain.Result) {
	score := 0
	if s.Active() {
		score = s.CumulativeScore
	}
	var n domain.Narration
	n.Say(fmt.Sprintf("You have %d date points.", score))
	return s, domain.Result{Narration: n, Score: &score, Visual: s.LastVisual}
}

// required is how many answers must be in before the date can finish.
func (m *Machine) required(s domain.Session) int {
	if m.cfg.QuestionCount <= 0 || m.cfg.QuestionCount > len(s.QuestionOrder) {
		return len(s.QuestionOrder)
	}
	return m.cfg.QuestionCount
}

func (m *Machine) activePartner(s domain.Session) (*content.Partner, bool) {
	if !s.Active() {
		return nil, false
	}
	p, err := m.table.Partner(s.PartnerName)
	if err != nil {
		return nil, false
	}
	return p, true
}

func (m *Machine) questionText(id int) string {
	q, err := m.table.Question(id)
	if err != nil {
		return ""
	}
	return q.Text
}

func (m *Machine) questionShortText(id int) string {
	q, err := m.table.Question(id)
	if err != nil {
		return ""
	}
	if q.ShortText != "" {
		return q.ShortText
	}
	return q.Text
}

func (m *Machine) visual(p *content.Partner, image, text string) *domain.VisualHint {
	if image == "" {
		image = p.Image
	}
	return &domain.VisualHint{
		DisplayText:    text,
		Image:          m.media.Resolve(image),
		Background:     m.media.Resolve(p.Background),
		PrimaryColor:   p.Colors.Primary,
		SecondaryColor: p.Colors.Secondary,
	}
}

func outcomeText(p *content.Partner, o domain.Outcome) string {
	switch o {
	case domain.OutcomePerfect:
		return p.Outcome.Perfect
	case domain.OutcomeGreat:
		return p.Outcome.Great
	case domain.OutcomeGood:
		return p.Outcome.Good
	default:
		return p.Outcome.Poor
	}
}

func notOnDate() domain.Result {
	var n domain.Narration
	n.Say(msgNotOnDate)
	return domain.Result{Narration: n}
}

// pick returns a random line from a pool, or "" for an empty pool.
func pick(rnd Rand, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rnd.IntN(len(pool))]
}
