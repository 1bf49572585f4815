package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

func TestRecordUserTurnTriggersSummaryOnce(t *testing.T) {
	s := &domain.Session{State: domain.StateIdle}

	var triggers []int
	for turn := 1; turn <= 10; turn++ {
		summarize, err := s.RecordUserTurn()
		require.NoError(t, err)
		if summarize {
			triggers = append(triggers, turn)
		}
	}

	assert.Equal(t, []int{domain.SummaryThreshold}, triggers)
	assert.Equal(t, domain.StateSummarizing, s.State)
	assert.Equal(t, 10, s.UserTurns)
}

func TestRecordUserTurnStates(t *testing.T) {
	s := &domain.Session{State: domain.StateIdle}

	_, err := s.RecordUserTurn()
	require.NoError(t, err)
	assert.Equal(t, domain.StateCollecting, s.State)

	for i := 0; i < 4; i++ {
		_, _ = s.RecordUserTurn()
	}
	assert.Equal(t, domain.StateCollecting, s.State)
	assert.Equal(t, 5, s.UserTurns)
}

func TestResolve(t *testing.T) {
	t.Run("requires a summary", func(t *testing.T) {
		s := &domain.Session{State: domain.StateCollecting}
		assert.ErrorIs(t, s.Resolve(domain.VisibilityPrivate), domain.ErrSessionNotReady)
	})

	t.Run("rejects unknown visibility", func(t *testing.T) {
		s := &domain.Session{State: domain.StateSummarizing}
		assert.ErrorIs(t, s.Resolve("friends-only"), domain.ErrInvalidVisibility)
		assert.Equal(t, domain.StateSummarizing, s.State)
	})

	t.Run("resolved is terminal", func(t *testing.T) {
		s := &domain.Session{State: domain.StateSummarizing}
		require.NoError(t, s.Resolve(domain.VisibilityPublic))
		assert.Equal(t, domain.StateResolved, s.State)
		assert.Equal(t, domain.VisibilityPublic, s.Visibility)

		assert.ErrorIs(t, s.Resolve(domain.VisibilityPrivate), domain.ErrSessionResolved)
		_, err := s.RecordUserTurn()
		assert.ErrorIs(t, err, domain.ErrSessionResolved)
		assert.Equal(t, domain.VisibilityPublic, s.Visibility)
	})
}

func TestUserTurnCountAndNarrative(t *testing.T) {
	history := []*domain.Message{
		{Author: domain.RoleAssistant, Text: "welcome"},
		{Author: domain.RoleUser, Text: "first"},
		{Author: domain.RoleAssistant, Text: "reply"},
		nil,
		{Author: domain.RoleUser, Text: "second"},
	}

	assert.Equal(t, 2, domain.UserTurnCount(history))
	assert.Equal(t, "first second", domain.UserNarrative(history))
	assert.Equal(t, "", domain.UserNarrative(nil))
}
