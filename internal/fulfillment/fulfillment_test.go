package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	assert.Equal(t, StatusRequested, NextStatus(0, 10))
	assert.Equal(t, StatusPartiallyFulfilled, NextStatus(1, 10))
	assert.Equal(t, StatusPartiallyFulfilled, NextStatus(9, 10))
	assert.Equal(t, StatusFulfilled, NextStatus(10, 10))
	assert.Equal(t, StatusFulfilled, NextStatus(11, 10))
}

func TestTerminalAndOpen(t *testing.T) {
	for _, status := range []string{StatusFulfilled, StatusCancelled, StatusRejected} {
		assert.True(t, Terminal(status), status)
		assert.False(t, Open(status), status)
	}
	for _, status := range []string{StatusRequested, StatusPartiallyFulfilled} {
		assert.False(t, Terminal(status), status)
		assert.True(t, Open(status), status)
	}
}

func TestCap(t *testing.T) {
	assert.Equal(t, 6, Cap(0, 10, 6))
	assert.Equal(t, 4, Cap(6, 10, 6), "overshoot is clipped to the remainder")
	assert.Equal(t, 0, Cap(10, 10, 5))
	assert.Equal(t, 10, Cap(0, 10, 10))
}

// TestRequestLifecycle walks the quantity arithmetic of a request for 10
// units receiving a 6-unit upload, a 4-unit upload, and then losing a
// 6-unit batch to rejection.
func TestRequestLifecycle(t *testing.T) {
	requested := 10
	fulfilled := 0

	fulfilled += Cap(fulfilled, requested, 6)
	assert.Equal(t, 6, fulfilled)
	assert.Equal(t, StatusPartiallyFulfilled, NextStatus(fulfilled, requested))

	fulfilled += Cap(fulfilled, requested, 4)
	assert.Equal(t, 10, fulfilled)
	assert.Equal(t, StatusFulfilled, NextStatus(fulfilled, requested))

	// Rejecting the first batch rolls its 6 units back out and reopens
	// the request.
	fulfilled -= 6
	assert.Equal(t, 4, fulfilled)
	assert.Equal(t, StatusPartiallyFulfilled, NextStatus(fulfilled, requested))
}
