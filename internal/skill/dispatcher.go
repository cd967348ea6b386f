package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/ashureev/datequiz/internal/domain"
	"github.com/ashureev/datequiz/internal/quiz"
	"github.com/ashureev/datequiz/internal/store"
	"github.com/ashureev/datequiz/internal/transcript"
)

// ErrUnknownOperation is reported for operation names the dispatcher does
// not route.
var ErrUnknownOperation = errors.New("unknown operation")

const (
	// MsgApology is spoken when a turn fails for an infrastructure reason.
	MsgApology = "Sorry, I had trouble doing what you asked. Please try again."
	// MsgUnknownOperation is spoken for an unrecognised operation.
	MsgUnknownOperation = "Sorry, I didn't catch that."
)

// Publisher receives visual hints for screen-equipped clients.
type Publisher interface {
	Publish(sessionID string, hint domain.VisualHint)
}

// Recorder receives one transcript event per handled turn.
type Recorder interface {
	Log(e transcript.Event)
}

// Response is the outcome of one turn.
type Response struct {
	SessionID string         `json:"sessionId"`
	Operation string         `json:"operation"`
	Result    domain.Result  `json:"result"`
	Session   domain.Session `json:"session"`
	// Err is set when the turn was answered with an apology.
	Err error `json:"-"`
}

// APIResponse is the value the platform expects back: the score for a
// status check, the SSML narration for everything else.
func (r Response) APIResponse() any {
	if r.Operation == OpCheckStatus && r.Err == nil && r.Result.Score != nil {
		return *r.Result.Score
	}
	return r.Result.Narration.SSML()
}

// Dispatcher routes turns to the state machine.
type Dispatcher struct {
	machine   *quiz.Machine
	repo      store.Repository
	publisher Publisher
	recorder  Recorder
	logger    *slog.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithPublisher sends visual hints to p after each turn.
func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) {
		d.publisher = p
	}
}

// WithRecorder writes a transcript event for every turn.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(machine *quiz.Machine, repo store.Repository, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		machine: machine,
		repo:    repo,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Machine returns the state machine the dispatcher drives.
func (d *Dispatcher) Machine() *quiz.Machine {
	return d.machine
}

// Handle runs one turn. It never returns an error: failures are logged and
// answered with an apology narration.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (resp Response) {
	resp = Response{SessionID: req.SessionID, Operation: req.Name}
	before := domain.NewSession()
	// stored tracks what the repository holds for this conversation.
	stored := before

	defer func() {
		d.record(req, resp, before)
	}()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Turn panicked",
				"op", req.Name,
				"session_id", req.SessionID,
				"panic", r,
				"stack", string(debug.Stack()))
			resp = apology(req, stored, fmt.Errorf("panic: %v", r))
		}
	}()

	d.logger.Debug("Turn received", "op", req.Name, "session_id", req.SessionID)

	if req.SessionID == "" {
		return apology(req, stored, errors.New("missing session id"))
	}

	current, err := d.load(ctx, req.SessionID)
	if err != nil {
		d.logger.Error("Failed to load session", "session_id", req.SessionID, "error", err)
		return apology(req, stored, err)
	}
	before = current
	stored = current

	next, result, err := d.route(current, req)
	if err != nil {
		d.logger.Warn("Unroutable turn", "op", req.Name, "session_id", req.SessionID, "error", err)
		var n domain.Narration
		n.Say(MsgUnknownOperation)
		resp.Result = domain.Result{Narration: n}
		resp.Session = current
		resp.Err = err
		return resp
	}

	if err := d.repo.SaveSession(ctx, req.SessionID, next); err != nil {
		d.logger.Error("Failed to save session", "session_id", req.SessionID, "error", err)
		return apology(req, stored, err)
	}
	stored = next

	if d.publisher != nil && result.Visual != nil {
		d.publisher.Publish(req.SessionID, *result.Visual)
	}

	d.logger.Info("Turn handled",
		"op", req.Name,
		"session_id", req.SessionID,
		"score_before", current.CumulativeScore,
		"score_after", next.CumulativeScore,
		"index", next.CurrentIndex,
		"phase", next.Phase())

	resp.Result = result
	resp.Session = next
	return resp
}

func (d *Dispatcher) load(ctx context.Context, sessionID string) (domain.Session, error) {
	stored, err := d.repo.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.NewSession(), nil
	}
	if err != nil {
		return domain.Session{}, err
	}
	return stored.Session, nil
}

func (d *Dispatcher) route(s domain.Session, req Request) (domain.Session, domain.Result, error) {
	switch req.Name {
	case OpGoOnDate:
		next, res := d.machine.StartSession(s, quiz.StartRequest{
			Partner:  req.resolve(SlotPartner),
			Location: req.resolve(SlotLocation),
			Gender:   req.resolve(SlotGender),
		})
		return next, res, nil
	case OpChangeAnswer:
		next, res := d.machine.RequestRedo(s)
		return next, res, nil
	case OpFinishDate:
		next, res := d.machine.FinishSession(s)
		return next, res, nil
	case OpCheckStatus:
		next, res := d.machine.QueryStatus(s)
		return next, res, nil
	}

	cat, ok := quiz.CategoryForOperation(req.Name)
	if !ok {
		return s, domain.Result{}, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Name)
	}

	a := quiz.Answer{Category: cat.Key}
	if cat.Extract == quiz.FromArgument {
		if n, ok := req.argument(cat.Slot, cat.Key); ok {
			a.Number = &n
		}
	} else {
		a.Value = req.resolve(cat.Slot)
	}
	next, res := d.machine.SubmitAnswer(s, a)
	return next, res, nil
}

func (d *Dispatcher) record(req Request, resp Response, before domain.Session) {
	if d.recorder == nil {
		return
	}
	e := transcript.Event{
		SessionID:   req.SessionID,
		Operation:   req.Name,
		Arguments:   req.Arguments,
		ContentRaw:  resp.Result.Narration.SSML(),
		Content:     resp.Result.Narration.PlainText(),
		ScoreBefore: before.CumulativeScore,
		ScoreAfter:  resp.Session.CumulativeScore,
		Phase:       string(resp.Session.Phase()),
	}
	if len(req.Slots) > 0 {
		e.Slots = make(map[string]string, len(req.Slots))
		for name, slot := range req.Slots {
			e.Slots[name] = slot.Value
		}
	}
	if resp.Err != nil {
		e.Error = resp.Err.Error()
	}
	d.recorder.Log(e)
}

// apology answers a failed turn, reporting s as the conversation state.
func apology(req Request, s domain.Session, err error) Response {
	var n domain.Narration
	n.Say(MsgApology)
	return Response{
		SessionID: req.SessionID,
		Operation: req.Name,
		Result:    domain.Result{Narration: n},
		Session:   s,
		Err:       err,
	}
}
