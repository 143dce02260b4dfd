package faults

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappersMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, NotFound("product"), ErrNotFound)
	assert.ErrorIs(t, Conflict("batch is %s", "rejected"), ErrStateConflict)
	assert.ErrorIs(t, Invalid("quantity must be positive"), ErrInvalidInput)

	assert.NotErrorIs(t, NotFound("product"), ErrStateConflict)
}

func TestWrappersKeepContext(t *testing.T) {
	err := Conflict("stock request is %s", "cancelled")
	assert.Equal(t, "stock request is cancelled: state conflict", err.Error())

	// Matching survives another wrapping layer.
	outer := fmt.Errorf("declining request: %w", err)
	assert.True(t, errors.Is(outer, ErrStateConflict))
}
