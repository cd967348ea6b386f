package skill

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/ashureev/datequiz/internal/content"
	"github.com/ashureev/datequiz/internal/domain"
	"github.com/ashureev/datequiz/internal/quiz"
	"github.com/ashureev/datequiz/internal/store"
	"github.com/ashureev/datequiz/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firstRand struct{}

func (firstRand) IntN(int) int { return 0 }

type failingRepo struct {
	*store.MemoryStore
	getErr  error
	saveErr error
}

func (r *failingRepo) GetSession(ctx context.Context, id string) (*domain.StoredSession, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.MemoryStore.GetSession(ctx, id)
}

func (r *failingRepo) SaveSession(ctx context.Context, id string, s domain.Session) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.MemoryStore.SaveSession(ctx, id, s)
}

type recordingPublisher struct {
	mu    sync.Mutex
	hints map[string][]domain.VisualHint
}

func (p *recordingPublisher) Publish(sessionID string, hint domain.VisualHint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hints == nil {
		p.hints = make(map[string][]domain.VisualHint)
	}
	p.hints[sessionID] = append(p.hints[sessionID], hint)
}

func newTestDispatcher(t *testing.T, repo store.Repository, opts ...Option) *Dispatcher {
	t.Helper()
	tbl, err := content.Default()
	require.NoError(t, err)
	m := quiz.NewMachine(tbl, quiz.DefaultConfig(), firstRand{})
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))}, opts...)
	return NewDispatcher(m, repo, opts...)
}

func match(v string) Slot {
	return Slot{Value: v, Status: StatusMatch, Resolved: v}
}

func startReq(id string) Request {
	return Request{
		SessionID: id,
		Name:      OpGoOnDate,
		Slots: map[string]Slot{
			SlotPartner:  match("Alex"),
			SlotLocation: match("cafe"),
		},
	}
}

func TestHandle_Scenario(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	pub := &recordingPublisher{}
	d := newTestDispatcher(t, repo, WithPublisher(pub))

	resp := d.Handle(ctx, startReq("s1"))
	require.NoError(t, resp.Err)
	assert.Equal(t, 20, resp.Session.CumulativeScore)

	resp = d.Handle(ctx, Request{
		SessionID: "s1",
		Name:      "faveColorQuestion",
		Slots:     map[string]Slot{"fave_color": match("teal")},
	})
	require.NoError(t, resp.Err)
	assert.Equal(t, 40, resp.Session.CumulativeScore)
	assert.Equal(t, 1, resp.Session.CurrentIndex)

	resp = d.Handle(ctx, Request{SessionID: "s1", Name: OpChangeAnswer})
	assert.Equal(t, 20, resp.Session.CumulativeScore)
	assert.Equal(t, 0, resp.Session.RedoIndex)

	resp = d.Handle(ctx, Request{SessionID: "s1", Name: OpChangeAnswer})
	assert.Equal(t, 20, resp.Session.CumulativeScore)
	assert.Contains(t, resp.Result.Narration.PlainText(), "You can't change your mind again!")

	stored, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Session.CumulativeScore)
	assert.Equal(t, 0, stored.Session.CurrentIndex)

	status := d.Handle(ctx, Request{SessionID: "s1", Name: OpCheckStatus})
	assert.Equal(t, 20, status.APIResponse())

	assert.Len(t, pub.hints["s1"], 5)
}

func TestHandle_UnmatchedSlotIsNoop(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t, store.NewMemory())

	req := startReq("s1")
	req.Slots[SlotPartner] = Slot{Value: "Alexa", Status: "ER_SUCCESS_NO_MATCH"}

	resp := d.Handle(ctx, req)
	require.NoError(t, resp.Err)
	assert.True(t, resp.Result.Narration.IsEmpty())
	assert.Equal(t, "", resp.Session.PartnerName)
	assert.Equal(t, "", resp.APIResponse())
}

func TestHandle_NumericArgument(t *testing.T) {
	ctx := context.Background()
	d := newTestDispatcher(t, store.NewMemory())

	d.Handle(ctx, startReq("s1"))
	d.Handle(ctx, Request{SessionID: "s1", Name: "faveColorQuestion", Slots: map[string]Slot{"fave_color": match("blue")}})

	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"num_children": 2}`), &args))

	resp := d.Handle(ctx, Request{SessionID: "s1", Name: "numChildrenQuestion", Arguments: args})
	require.NoError(t, resp.Err)
	assert.Equal(t, 80, resp.Session.CumulativeScore)
	assert.Equal(t, 2, resp.Session.CurrentIndex)
}

func TestHandle_UnknownOperation(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemory()
	d := newTestDispatcher(t, repo)
	d.Handle(ctx, startReq("s1"))

	resp := d.Handle(ctx, Request{SessionID: "s1", Name: "danceQuestion"})
	assert.ErrorIs(t, resp.Err, ErrUnknownOperation)
	assert.Equal(t, MsgUnknownOperation, resp.Result.Narration.PlainText())
	assert.Equal(t, 20, resp.Session.CumulativeScore)
}

func TestHandle_StoreFailuresApologize(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")

	t.Run("load", func(t *testing.T) {
		d := newTestDispatcher(t, &failingRepo{MemoryStore: store.NewMemory(), getErr: boom})
		resp := d.Handle(ctx, startReq("s1"))
		assert.ErrorIs(t, resp.Err, boom)
		assert.Equal(t, MsgApology, resp.Result.Narration.PlainText())
	})

	t.Run("save", func(t *testing.T) {
		d := newTestDispatcher(t, &failingRepo{MemoryStore: store.NewMemory(), saveErr: boom})
		resp := d.Handle(ctx, startReq("s1"))
		assert.ErrorIs(t, resp.Err, boom)
		assert.Equal(t, "<speak>"+MsgApology+"</speak>", resp.APIResponse())
	})

	t.Run("save keeps stored session", func(t *testing.T) {
		repo := &failingRepo{MemoryStore: store.NewMemory()}
		rec := &memoryRecorder{}
		d := newTestDispatcher(t, repo, WithRecorder(rec))
		started := d.Handle(ctx, startReq("s1"))
		require.NoError(t, started.Err)

		repo.saveErr = boom
		resp := d.Handle(ctx, Request{SessionID: "s1", Name: "faveColorQuestion", Slots: map[string]Slot{"fave_color": match("blue")}})
		assert.ErrorIs(t, resp.Err, boom)
		assert.Equal(t, started.Session, resp.Session)

		require.Len(t, rec.events, 2)
		failed := rec.events[1]
		assert.Equal(t, 20, failed.ScoreBefore)
		assert.Equal(t, 20, failed.ScoreAfter)
		assert.Equal(t, string(domain.PhaseInProgress), failed.Phase)
	})

	t.Run("missing session id", func(t *testing.T) {
		d := newTestDispatcher(t, store.NewMemory())
		resp := d.Handle(ctx, startReq(""))
		assert.Error(t, resp.Err)
		assert.Equal(t, MsgApology, resp.Result.Narration.PlainText())
	})
}

type panickyPublisher struct{}

func (panickyPublisher) Publish(string, domain.VisualHint) { panic("display exploded") }

func TestHandle_RecoversPanics(t *testing.T) {
	d := newTestDispatcher(t, store.NewMemory(), WithPublisher(panickyPublisher{}))

	resp := d.Handle(context.Background(), startReq("s1"))
	require.Error(t, resp.Err)
	assert.Contains(t, resp.Err.Error(), "display exploded")
	assert.Equal(t, MsgApology, resp.Result.Narration.PlainText())
}

func TestRequestArgument(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{3, 3, true},
		{float64(4), 4, true},
		{2.5, 0, false},
		{1e300, 0, false},
		{-1e19, 0, false},
		{math.Inf(1), 0, false},
		{math.NaN(), 0, false},
		{"99999999999999999999", 0, false},
		{" 7 ", 7, true},
		{json.Number("5"), 5, true},
		{"many", 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		r := Request{Arguments: map[string]any{"n": tt.in}}
		got, ok := r.argument("n")
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}

	r := Request{Arguments: map[string]any{"numChildren": 1}}
	got, ok := r.argument("num_children", "numChildren")
	assert.True(t, ok)
	assert.Equal(t, 1, got)
}

type memoryRecorder struct {
	events []transcript.Event
}

func (r *memoryRecorder) Log(e transcript.Event) { r.events = append(r.events, e) }

func TestHandle_RecordsTranscript(t *testing.T) {
	ctx := context.Background()
	rec := &memoryRecorder{}
	d := newTestDispatcher(t, store.NewMemory(), WithRecorder(rec))

	d.Handle(ctx, startReq("s1"))
	d.Handle(ctx, Request{SessionID: "s1", Name: "numChildrenQuestion", Arguments: map[string]any{"num_children": 7}})
	d.Handle(ctx, Request{SessionID: "s1", Name: "danceQuestion"})

	require.Len(t, rec.events, 3)

	start := rec.events[0]
	assert.Equal(t, OpGoOnDate, start.Operation)
	assert.Equal(t, map[string]string{SlotPartner: "Alex", SlotLocation: "cafe"}, start.Slots)
	assert.Equal(t, 0, start.ScoreBefore)
	assert.Equal(t, 20, start.ScoreAfter)
	assert.Contains(t, start.ContentRaw, "<speak>")
	assert.NotContains(t, start.Content, "<")
	assert.Equal(t, string(domain.PhaseInProgress), start.Phase)

	// The pending question is favoriteColor, so a numeric answer is a mismatch.
	mismatch := rec.events[1]
	assert.Equal(t, 20, mismatch.ScoreBefore)
	assert.Equal(t, 20, mismatch.ScoreAfter)
	assert.Equal(t, 7, mismatch.Arguments["num_children"])

	unknown := rec.events[2]
	assert.Contains(t, unknown.Error, "unknown operation")
	assert.Equal(t, MsgUnknownOperation, unknown.Content)
}

func TestHandle_RecordsPanics(t *testing.T) {
	rec := &memoryRecorder{}
	d := newTestDispatcher(t, store.NewMemory(), WithPublisher(panickyPublisher{}), WithRecorder(rec))

	d.Handle(context.Background(), startReq("s1"))
	require.Len(t, rec.events, 1)
	assert.Contains(t, rec.events[0].Error, "display exploded")
	assert.Equal(t, MsgApology, rec.events[0].Content)
	// The session was saved before the publisher panicked.
	assert.Equal(t, 20, rec.events[0].ScoreAfter)
}
