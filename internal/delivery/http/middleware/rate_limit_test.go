package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func countEntries(s *memoryStore) int {
	n := 0
	s.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

func TestMemoryStore(t *testing.T) {
	cfg := ContactRateLimitConfig(2, time.Minute)
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Should count within the window and reset after it", func(t *testing.T) {
		s := &memoryStore{}

		count, _ := s.check("rl:contact:192.0.2.1", cfg, start)
		assert.Equal(t, 1, count)
		count, _ = s.check("rl:contact:192.0.2.1", cfg, start.Add(time.Second))
		assert.Equal(t, 2, count)
		count, _ = s.check("rl:contact:192.0.2.1", cfg, start.Add(2*time.Minute))
		assert.Equal(t, 1, count)
	})

	t.Run("Should sweep expired entries and keep live ones", func(t *testing.T) {
		s := &memoryStore{}
		s.check("rl:contact:192.0.2.1", cfg, start)
		s.check("rl:contact:192.0.2.2", cfg, start.Add(50*time.Second))
		assert.Equal(t, 2, countEntries(s))

		s.sweep(start.Add(90 * time.Second))

		assert.Equal(t, 1, countEntries(s))
		_, expiredLeft := s.entries.Load("rl:contact:192.0.2.1")
		_, liveLeft := s.entries.Load("rl:contact:192.0.2.2")
		assert.False(t, expiredLeft)
		assert.True(t, liveLeft)
	})

	t.Run("Should sweep in the background", func(t *testing.T) {
		s := &memoryStore{}
		s.check("rl:contact:192.0.2.3", RateLimitConfig{Limit: 1, Window: time.Millisecond}, time.Now())

		s.startCleanup(5 * time.Millisecond)

		assert.Eventually(t, func() bool { return countEntries(s) == 0 }, time.Second, 5*time.Millisecond)
	})
}
