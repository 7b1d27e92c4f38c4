package dialogue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAdvanceFollowsFixedOrder(t *testing.T) {
	s := NewSession("s1", "+254712345678", time.Now())
	require.NoError(t, s.Advance(StageName))
	require.NoError(t, s.Advance(StageContact))
	require.NoError(t, s.Advance(StageDatetime))
	assert.Equal(t, StageDatetime, s.Stage)

	err := s.Advance(StageDatetime)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestSessionAdvanceRejectsSkipsAndRegressions(t *testing.T) {
	s := NewSession("s1", "+254712345678", time.Now())
	assert.ErrorIs(t, s.Advance(StageContact), ErrInvalidTransition)
	assert.ErrorIs(t, s.Advance(StageStart), ErrInvalidTransition)
	assert.Equal(t, StageStart, s.Stage)

	require.NoError(t, s.Advance(StageName))
	assert.ErrorIs(t, s.Advance(StageStart), ErrInvalidTransition)
	assert.ErrorIs(t, s.Advance(StageDatetime), ErrInvalidTransition)
	assert.Equal(t, StageName, s.Stage)
}

func TestSessionValidate(t *testing.T) {
	base := func(stage Stage, name, contact string) *Session {
		s := NewSession("s1", "+254712345678", time.Now())
		s.Stage = stage
		s.Name = name
		s.Contact = contact
		return s
	}

	assert.NoError(t, base(StageStart, "", "").Validate())
	assert.NoError(t, base(StageName, "", "").Validate())
	assert.NoError(t, base(StageContact, "Asha", "").Validate())
	assert.NoError(t, base(StageDatetime, "Asha", "a@b.co").Validate())

	assert.ErrorIs(t, base(StageContact, "", "").Validate(), ErrInvalidSession)
	assert.ErrorIs(t, base(StageDatetime, "Asha", "").Validate(), ErrInvalidSession)
	assert.ErrorIs(t, base(StageDatetime, "", "a@b.co").Validate(), ErrInvalidSession)
	assert.ErrorIs(t, base("done", "", "").Validate(), ErrInvalidSession)

	var nilSession *Session
	assert.ErrorIs(t, nilSession.Validate(), ErrInvalidSession)
	assert.ErrorIs(t, (&Session{Stage: StageStart}).Validate(), ErrInvalidSession)
}

func TestStageNext(t *testing.T) {
	next, ok := StageStart.Next()
	assert.True(t, ok)
	assert.Equal(t, StageName, next)

	_, ok = StageDatetime.Next()
	assert.False(t, ok)

	assert.False(t, Stage("bogus").Valid())
}

func TestPromptsRepeatFallback(t *testing.T) {
	p := DefaultPrompts()
	assert.Equal(t, "Pole, toa namba au email sahihi tena.", p.RepeatPrompt(StageContact))
	assert.Equal(t, "Pole, sema tena.", p.RepeatPrompt(StageStart))
	assert.Contains(t, p.ContactPrompt("Asha Ali"), "Asha Ali")
}

func TestKeyedMutexReleasesKeys(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock("a")
	assert.Equal(t, 1, k.size())
	unlock()
	assert.Equal(t, 0, k.size())
}
