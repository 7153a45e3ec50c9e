package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestLimiter_Budget(t *testing.T) {
	l := NewRequestLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.False(t, l.Allow("10.0.0.1"))
	// Other addresses keep their own budget.
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestRequestLimiter_WindowSlides(t *testing.T) {
	l := NewRequestLimiter(1, 30*time.Millisecond)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	time.Sleep(50 * time.Millisecond)
	assert.True(t, l.Allow("10.0.0.1"))
}
