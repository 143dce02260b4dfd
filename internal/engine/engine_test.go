package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vendorvault/vendorvault/internal/batch"
)

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{}
	assert.Equal(t, "no valid credential rows", err.Error())

	err = &ValidationError{Rows: []batch.RowError{
		{Line: 2, Reason: "account secret is required"},
		{Line: 5, Reason: "profile name must not be empty"},
	}}
	assert.Contains(t, err.Error(), "row 2: account secret is required")
	assert.Contains(t, err.Error(), "row 5: profile name must not be empty")
}

func TestValidationErrorMatchesWithAs(t *testing.T) {
	var target *ValidationError
	wrapped := error(&ValidationError{Rows: []batch.RowError{{Line: 1, Reason: "x"}}})
	assert.True(t, errors.As(wrapped, &target))
	assert.Len(t, target.Rows, 1)
}
