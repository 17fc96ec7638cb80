package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

func TestSessionService_SweepEvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionService(0, 10*time.Minute)
	s.now = func() time.Time { return now }

	idle, err := s.Create(domain.ModeExplorer)
	require.NoError(t, err)
	busy, err := s.Create(domain.ModeExplorer)
	require.NoError(t, err)
	_, _, _, err = s.begin(context.Background(), busy.SessionID, "still streaming")
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	_, err = s.View(idle.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = s.View(busy.SessionID)
	assert.NoError(t, err, "an ingesting session is never evicted")
}

func TestSessionService_SweepDisabled(t *testing.T) {
	s := NewSessionService(0, 0)
	_, _ = s.Create(domain.ModeExplorer)
	assert.Zero(t, s.Sweep())
	assert.Equal(t, 1, s.Count())
}

func TestSessionService_BeginCancelsPreviousQuery(t *testing.T) {
	s := NewSessionService(0, time.Hour)
	v, _ := s.Create(domain.ModeExplorer)

	first, gen1, _, err := s.begin(context.Background(), v.SessionID, "one")
	require.NoError(t, err)
	_, gen2, _, err := s.begin(context.Background(), v.SessionID, "two")
	require.NoError(t, err)

	assert.Greater(t, gen2, gen1)
	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.ErrorIs(t, s.apply(v.SessionID, gen1, func(*domain.Session) {}), domain.ErrSuperseded)
	assert.NoError(t, s.apply(v.SessionID, gen2, func(*domain.Session) {}))

	// end of a stale generation leaves the live token alone.
	s.end(v.SessionID, gen1)
	slot, _ := s.slots.Get(v.SessionID)
	assert.NotNil(t, slot.cancel)
	s.end(v.SessionID, gen2)
	assert.Nil(t, slot.cancel)
}

func TestReplayKey(t *testing.T) {
	a := replayKey(domain.ModeExplorer, "Paris")
	assert.Equal(t, a, replayKey(domain.ModeExplorer, "paris"))
	assert.NotEqual(t, a, replayKey(domain.ModeDayPlanner, "Paris"))
	assert.Contains(t, a, "explore:calls:explorer:")
}
