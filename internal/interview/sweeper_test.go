package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unigenai/unigen/internal/domain"
)

func TestSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper(NewStore(), time.Hour, "every now and then", nil)
	assert.Error(t, err)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	store.Start("idle", domain.DomainOS, []string{"q1", "q2"})

	sw, err := NewSweeper(store, 30*time.Minute, "@every 1h", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, sw.Sweep())
	now = now.Add(31 * time.Minute)
	assert.Equal(t, 1, sw.Sweep())
	assert.False(t, store.IsActive("idle"))
}

func TestSweeperStartStop(t *testing.T) {
	sw, err := NewSweeper(NewStore(), time.Minute, "@every 1h", nil)
	require.NoError(t, err)
	sw.Start()
	sw.Stop()
}
