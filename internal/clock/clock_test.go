package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 2, 29, 23, 59, 0, 0, time.FixedZone("X", 3600))
	c := NewFakeClock(start)
	assert.Equal(t, time.UTC, c.Now().Location())

	c.Advance(2 * time.Minute)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 1, 0, 0, time.UTC), c.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, New().Now().Location())
}
