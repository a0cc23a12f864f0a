package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLog_RecentNewestFirst(t *testing.T) {
	l := NewRunLog(0, 0)
	base := time.Now()

	for i := 0; i < 3; i++ {
		l.Record(Run{ID: fmt.Sprint(i), Trigger: TriggerCommand, StartedAt: base.Add(time.Duration(i) * time.Second)})
	}

	got := l.Recent(10)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "0", got[2].ID)

	assert.Len(t, l.Recent(2), 2)
	assert.Len(t, l.Recent(0), 3)
}

func TestRunLog_MaxHistory(t *testing.T) {
	l := NewRunLog(2, 0)
	now := time.Now()

	for i := 0; i < 5; i++ {
		l.Record(Run{ID: fmt.Sprint(i), StartedAt: now})
	}

	got := l.Recent(10)
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestRunLog_MaxAge(t *testing.T) {
	now := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
	l := NewRunLog(0, 24*time.Hour)
	l.now = func() time.Time { return now }

	l.Record(Run{ID: "old", StartedAt: now.Add(-48 * time.Hour)})
	l.Record(Run{ID: "edge", StartedAt: now.Add(-24 * time.Hour)})
	l.Record(Run{ID: "new", StartedAt: now})

	got := l.Recent(10)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "edge", got[1].ID)
}

func TestRunLog_Last(t *testing.T) {
	l := NewRunLog(10, 0)

	_, err := l.Last(TriggerSchedule)
	assert.ErrorIs(t, err, ErrNotFound)

	l.Record(Run{ID: "a", Trigger: TriggerSchedule, Outcome: OutcomeFailed})
	l.Record(Run{ID: "b", Trigger: TriggerCommand, Outcome: OutcomeDelivered})

	run, err := l.Last(TriggerSchedule)
	require.NoError(t, err)
	assert.Equal(t, "a", run.ID)
	assert.Equal(t, OutcomeFailed, run.Outcome)
}
