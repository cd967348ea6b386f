package quiz

import (
	"strings"
	"testing"

	"github.com/ashureev/datequiz/internal/content"
	"github.com/ashureev/datequiz/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always returns the same index, clamped to the range.
type fixedRand int

func (f fixedRand) IntN(n int) int {
	return int(f) % n
}

func newTestMachine(t *testing.T, mutate ...func(*Config)) *Machine {
	t.Helper()
	tbl, err := content.Default()
	require.NoError(t, err)
	cfg := DefaultConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}
	return NewMachine(tbl, cfg, fixedRand(0))
}

func started(t *testing.T, m *Machine) domain.Session {
	t.Helper()
	s, res := m.StartSession(domain.NewSession(), StartRequest{Partner: "Alex", Location: "cafe"})
	require.False(t, res.Narration.IsEmpty())
	return s
}

func intPtr(n int) *int { return &n }

// answerPending answers whatever is pending with a value from the table.
func answerPending(t *testing.T, m *Machine, s domain.Session) domain.Session {
	t.Helper()
	id, ok := s.PendingQuestion()
	require.True(t, ok)
	q, err := m.Table().Question(id)
	require.NoError(t, err)
	a := Answer{Category: q.Name, Value: "whatever"}
	if q.Name == "numChildren" {
		a = Answer{Category: q.Name, Number: intPtr(2)}
	}
	next, _ := m.SubmitAnswer(s, a)
	require.Equal(t, s.CurrentIndex+1, next.CurrentIndex)
	return next
}

func TestStartSession_SetsLocationScore(t *testing.T) {
	m := newTestMachine(t)

	for _, partner := range m.Table().PartnerNames() {
		p, err := m.Table().Partner(partner)
		require.NoError(t, err)
		for _, loc := range p.LocationNames() {
			s, res := m.StartSession(domain.NewSession(), StartRequest{Partner: partner, Location: loc})
			want := p.Locations[loc].DatePoints

			assert.Equal(t, 0, s.CurrentIndex, "%s/%s", partner, loc)
			assert.Equal(t, want, s.CumulativeScore, "%s/%s", partner, loc)
			assert.Equal(t, want, s.PreviousAnswerScore, "%s/%s", partner, loc)
			assert.Equal(t, -1, s.RedoIndex)
			assert.Equal(t, DefaultFixedSequence, s.QuestionOrder)
			assert.NotNil(t, res.Visual)
		}
	}
}

func TestStartSession_Narration(t *testing.T) {
	m := newTestMachine(t)
	_, res := m.StartSession(domain.NewSession(), StartRequest{Partner: "Alex", Location: "cafe"})

	ssml := res.Narration.SSML()
	assert.True(t, strings.HasPrefix(ssml, "<speak>A cafe? I love the smell of fresh coffee. Let's grab a table by the window. Okay, next question.<break strength='medium'/>"))
	assert.Contains(t, ssml, "what's your favorite color?")
	assert.True(t, strings.HasSuffix(ssml, "</speak>"))
}

func TestStartSession_MissingOrUnknownIdentifiers(t *testing.T) {
	m := newTestMachine(t)
	in := domain.NewSession()

	for _, req := range []StartRequest{
		{Partner: "", Location: "cafe"},
		{Partner: "Alex", Location: ""},
		{Partner: "Nobody", Location: "cafe"},
		{Partner: "Alex", Location: "moon"},
	} {
		out, res := m.StartSession(in, req)
		assert.Equal(t, in, out, "%+v", req)
		assert.True(t, res.Narration.IsEmpty(), "%+v", req)
	}
}

func TestStartSession_RestartPolicy(t *testing.T) {
	t.Run("overwrite by default", func(t *testing.T) {
		m := newTestMachine(t)
		s := answerPending(t, m, started(t, m))

		out, _ := m.StartSession(s, StartRequest{Partner: "Alex", Location: "park"})
		assert.Equal(t, 0, out.CurrentIndex)
		assert.Equal(t, 30, out.CumulativeScore)
		assert.Equal(t, "park", out.LocationName)
	})

	t.Run("guarded", func(t *testing.T) {
		m := newTestMachine(t, func(c *Config) { c.AllowRestart = false })
		s := answerPending(t, m, started(t, m))

		out, res := m.StartSession(s, StartRequest{Partner: "Alex", Location: "park"})
		assert.Equal(t, s, out)
		assert.Contains(t, res.Narration.PlainText(), "already on a date")
	})
}

func TestSubmitAnswer_MismatchDoesNotMutate(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)

	for _, c := range Categories() {
		if c.Key == "favoriteColor" {
			continue
		}
		a := Answer{Category: c.Key, Value: "anything", Number: intPtr(1)}
		out, res := m.SubmitAnswer(s, a)
		assert.Equal(t, s, out, c.Key)
		assert.Contains(t, res.Narration.PlainText(), "I don't understand your answer. I'll ask again.")
		assert.Contains(t, res.Narration.PlainText(), "favorite color")
	}

	out, res := m.SubmitAnswer(s, Answer{Category: "astrology", Value: "leo"})
	assert.Equal(t, s, out)
	assert.Contains(t, res.Narration.PlainText(), "I'll ask again")
}

func TestSubmitAnswer_MissingValueIsNoop(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)

	out, res := m.SubmitAnswer(s, Answer{Category: "favoriteColor"})
	assert.Equal(t, s, out)
	assert.True(t, res.Narration.IsEmpty())
}

func TestSubmitAnswer_NotOnDate(t *testing.T) {
	m := newTestMachine(t)
	in := domain.NewSession()

	out, res := m.SubmitAnswer(in, Answer{Category: "favoriteColor", Value: "blue"})
	assert.Equal(t, in, out)
	assert.Contains(t, res.Narration.PlainText(), "not on a date")
}

func TestSubmitAnswer_Tiers(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)

	t.Run("high uses the answer's own line", func(t *testing.T) {
		out, res := m.SubmitAnswer(s, Answer{Category: "favoriteColor", Value: "blue"})
		assert.Equal(t, 50, out.CumulativeScore)
		assert.Equal(t, 30, out.PreviousAnswerScore)
		assert.True(t, strings.HasPrefix(res.Narration.PlainText(), "Blue is my favorite too!"))
	})

	t.Run("neutral for an unlisted color", func(t *testing.T) {
		out, res := m.SubmitAnswer(s, Answer{Category: "favoriteColor", Value: "teal"})
		assert.Equal(t, 40, out.CumulativeScore)
		assert.Equal(t, 20, out.PreviousAnswerScore)
		assert.True(t, strings.HasPrefix(res.Narration.SSML(), "<speak>Hmm, interesting.<break time='1.5s' />"))
	})

	t.Run("low uses the disliked pool", func(t *testing.T) {
		out, res := m.SubmitAnswer(s, Answer{Category: "favoriteColor", Value: "black"})
		assert.Equal(t, 30, out.CumulativeScore)
		assert.True(t, strings.HasPrefix(res.Narration.PlainText(), "Oh. Well, to each their own."))
	})
}

func TestSubmitAnswer_AdvancesAndAsksNext(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)

	out, res := m.SubmitAnswer(s, Answer{Category: "favoriteColor", Value: "blue"})
	require.Equal(t, 1, out.CurrentIndex)
	assert.Contains(t, res.Narration.PlainText(), "How many would you want?")
	require.NotNil(t, res.Visual)
	assert.Equal(t, "How many kids?", res.Visual.DisplayText)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, s.QuestionOrder, "input session must not change")
}

func TestSubmitAnswer_Closeness(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)
	s, _ = m.SubmitAnswer(s, Answer{Category: "favoriteColor", Value: "teal"})

	out, res := m.SubmitAnswer(s, Answer{Category: "numChildren", Number: intPtr(5)})
	assert.Equal(t, 15, out.PreviousAnswerScore)
	assert.Equal(t, 55, out.CumulativeScore)
	assert.True(t, strings.HasPrefix(res.Narration.PlainText(), "Oh. Well"))

	out, res = m.SubmitAnswer(s, Answer{Category: "numChildren", Value: "2"})
	assert.Equal(t, 30, out.PreviousAnswerScore)
	assert.True(t, strings.HasPrefix(res.Narration.PlainText(), "That's just what I was hoping for!"))

	out, res = m.SubmitAnswer(s, Answer{Category: "numChildren", Value: "lots"})
	assert.Equal(t, s, out)
	assert.True(t, res.Narration.IsEmpty())

	for _, v := range []string{"3689348814741910125", "9223372036854775807", "-9223372036854775808"} {
		out, _ = m.SubmitAnswer(s, Answer{Category: "numChildren", Value: v})
		assert.Equal(t, ClosenessFloor, out.PreviousAnswerScore, v)
		assert.Equal(t, 50, out.CumulativeScore, v)
	}
}

func TestSubmitAnswer_LastQuestionClosesOut(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)
	for i := 0; i < len(s.QuestionOrder)-1; i++ {
		s = answerPending(t, m, s)
	}

	id, _ := s.PendingQuestion()
	q, _ := m.Table().Question(id)
	out, res := m.SubmitAnswer(s, Answer{Category: q.Name, Value: "x"})
	assert.Equal(t, domain.PhaseAwaitingFinish, out.Phase())
	assert.Contains(t, res.Narration.PlainText(), "it's getting late")

	again, res := m.SubmitAnswer(out, Answer{Category: q.Name, Value: "x"})
	assert.Equal(t, out, again)
	assert.Contains(t, res.Narration.PlainText(), "That's all my questions")
}

func TestRequestRedo_Scenario(t *testing.T) {
	m := newTestMachine(t)

	s := started(t, m)
	require.Equal(t, 20, s.CumulativeScore)

	s, _ = m.SubmitAnswer(s, Answer{Category: "favoriteColor", Value: "teal"})
	require.Equal(t, 40, s.CumulativeScore)
	require.Equal(t, 1, s.CurrentIndex)

	s, res := m.RequestRedo(s)
	assert.Equal(t, 20, s.CumulativeScore)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, 0, s.RedoIndex)
	assert.Equal(t, 0, s.PreviousAnswerScore)
	assert.True(t, strings.HasPrefix(res.Narration.PlainText(), "Oh, changed your mind? No problem."))
	assert.Contains(t, res.Narration.PlainText(), "favorite color")

	again, res := m.RequestRedo(s)
	assert.Equal(t, s, again)
	assert.Equal(t, 20, again.CumulativeScore)
	assert.True(t, strings.HasPrefix(res.Narration.PlainText(), "You can't change your mind again!"))
}

func TestRequestRedo_NothingAnsweredYet(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)

	out, res := m.RequestRedo(s)
	assert.Equal(t, s, out)
	assert.Contains(t, res.Narration.PlainText(), "nothing to change")
}

func TestRequestRedo_TwiceInARowRefused(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)
	s = answerPending(t, m, s)
	s = answerPending(t, m, s)

	s, _ = m.RequestRedo(s)
	require.Equal(t, 1, s.CurrentIndex)
	require.Equal(t, 1, s.RedoIndex)

	again, res := m.RequestRedo(s)
	assert.Equal(t, s, again)
	assert.Contains(t, res.Narration.PlainText(), "You can't change your mind again! Next question,")
}

func TestRequestRedo_AllowedAgainAfterTwoMoreAnswers(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)
	s = answerPending(t, m, s)

	s, _ = m.RequestRedo(s)
	require.Equal(t, 0, s.CurrentIndex)
	require.Equal(t, 0, s.RedoIndex)

	steps := []struct {
		index   int
		allowed bool
	}{
		{1, false},
		{2, true},
	}
	for _, step := range steps {
		s = answerPending(t, m, s)
		require.Equal(t, step.index, s.CurrentIndex)

		out, res := m.RequestRedo(s)
		if !step.allowed {
			assert.Equal(t, s, out, "index %d", step.index)
			assert.True(t, strings.HasPrefix(res.Narration.PlainText(), "You can't change your mind again!"), "index %d", step.index)
			continue
		}
		assert.Equal(t, step.index-1, out.CurrentIndex)
		assert.Equal(t, step.index-1, out.RedoIndex)
		assert.Equal(t, s.CumulativeScore-s.PreviousAnswerScore, out.CumulativeScore)
		assert.True(t, strings.HasPrefix(res.Narration.PlainText(), "Oh, changed your mind? No problem."))
	}
}

func TestRequestRedo_SubtractsExactPreviousScore(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)
	s, _ = m.SubmitAnswer(s, Answer{Category: "favoriteColor", Value: "blue"})
	s, _ = m.SubmitAnswer(s, Answer{Category: "numChildren", Number: intPtr(4)})
	before := s.CumulativeScore
	prev := s.PreviousAnswerScore
	require.Equal(t, 20, prev)

	out, _ := m.RequestRedo(s)
	assert.Equal(t, before-prev, out.CumulativeScore)

	// Answering the reopened question again applies the new score once.
	out, _ = m.SubmitAnswer(out, Answer{Category: "numChildren", Number: intPtr(2)})
	assert.Equal(t, before-prev+30, out.CumulativeScore)
}

func TestRequestRedo_AfterFinalAnswer(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)
	for range s.QuestionOrder {
		s = answerPending(t, m, s)
	}
	s, _ = m.RequestRedo(s)
	require.Equal(t, len(s.QuestionOrder)-1, s.CurrentIndex)

	s = answerPending(t, m, s)
	again, res := m.RequestRedo(s)
	assert.Equal(t, s, again)
	assert.Contains(t, res.Narration.PlainText(), "That's all my questions")
}

func TestFinishSession_PrematureIsRefused(t *testing.T) {
	m := newTestMachine(t)
	s := started(t, m)
	s = answerPending(t, m, s)

	out, res := m.FinishSession(s)
	assert.Equal(t, s, out)
	assert.Contains(t, res.Narration.PlainText(), "Don't leave yet!")
	assert.Empty(t, res.Outcome)
}

func TestFinishSession_UnguardedFinishesEarly(t *testing.T) {
	m := newTestMachine(t, func(c *Config) { c.FinishGuard = false })
	s := started(t, m)

	out, res := m.FinishSession(s)
	assert.Equal(t, "", out.PartnerName)
	assert.Equal(t, domain.OutcomePoor, res.Outcome)
}

func TestFinishSession_ClassifiesAndResets(t *testing.T) {
	m := newTestMachine(t)
	s, _ := m.StartSession(domain.NewSession(), StartRequest{Partner: "Alex", Location: "park"})
	answers := []Answer{
		{Category: "favoriteColor", Value: "blue"},
		{Category: "numChildren", Number: intPtr(2)},
		{Category: "spiritAnimal", Value: "otter"},
		{Category: "movieGenre", Value: "comedy"},
		{Category: "favoriteSeason", Value: "autumn"},
		{Category: "tattooLocation", Value: "arm"},
	}
	for _, a := range answers {
		s, _ = m.SubmitAnswer(s, a)
	}
	require.Equal(t, 205, s.CumulativeScore)

	out, res := m.FinishSession(s)
	assert.Equal(t, domain.OutcomePerfect, res.Outcome)
	require.NotNil(t, res.Score)
	assert.Equal(t, 205, *res.Score)
	assert.Equal(t, "The sun sets over the pond as you say goodbye. Alex can't stop smiling and asks when they'll see you next. Would you like to try again? You can pick the same or a different partner.", res.Narration.PlainText())

	assert.Equal(t, "", out.PartnerName)
	assert.Equal(t, 0, out.CurrentIndex)
	assert.Equal(t, 0, out.CumulativeScore)
	assert.Equal(t, -1, out.RedoIndex)
	assert.Nil(t, out.QuestionOrder)
	assert.Equal(t, domain.PhaseIdle, out.Phase())
}

func TestQueryStatus(t *testing.T) {
	m := newTestMachine(t)

	_, res := m.QueryStatus(domain.NewSession())
	require.NotNil(t, res.Score)
	assert.Equal(t, 0, *res.Score)

	s := started(t, m)
	out, res := m.QueryStatus(s)
	assert.Equal(t, s, out)
	assert.Equal(t, 20, *res.Score)
	assert.Equal(t, "You have 20 date points.", res.Narration.PlainText())
}

func TestRandomSequenceSession(t *testing.T) {
	m := newTestMachine(t, func(c *Config) { c.Sequence = RandomSubset{} })
	s := started(t, m)

	assert.Len(t, s.QuestionOrder, 6)
	seen := map[int]bool{}
	for _, id := range s.QuestionOrder {
		assert.False(t, seen[id], "duplicate question %d", id)
		seen[id] = true
	}
}
