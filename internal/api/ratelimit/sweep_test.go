package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSweepEvictsStaleIdentities(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(time.Minute, 5, WithClock(func() time.Time { return now }))

	l.Allow("stale")
	l.Allow("fresh")
	assert.Equal(t, 2, l.Tracked())

	// Age out "stale" entirely, keep "fresh" inside the window.
	now = now.Add(90 * time.Second)
	l.Allow("fresh")

	l.sweep()
	assert.Equal(t, 1, l.Tracked())

	// A returning identity starts a fresh window.
	assert.True(t, l.Allow("stale").Allowed)
}
