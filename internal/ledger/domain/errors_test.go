package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := NewError(CodeAlreadyFulfilled, "Bill already paid")

	assert.ErrorIs(t, err, ErrAlreadyFulfilled)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Bill already paid (code 2)", err.Error())

	wrapped := fmt.Errorf("fulfill: %w", err)
	assert.ErrorIs(t, wrapped, ErrAlreadyFulfilled)
}

func TestAbort_Is(t *testing.T) {
	err := &Abort{Code: CodeUnauthorized, Reason: "only the policy owner can cancel it"}

	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "only the policy owner can cancel it", err.Error())
}

func TestCode_Sentinel(t *testing.T) {
	assert.Equal(t, ErrInvalidSchedule, CodeInvalidSchedule.Sentinel())
	assert.Nil(t, Code(99).Sentinel())
	assert.False(t, NewError(Code(99), "x").Is(nil))
}

func TestRecover_PassesThroughErrors(t *testing.T) {
	want := errors.New("plain")
	assert.Same(t, want, Recover(func() error { return want }))
	assert.NoError(t, Recover(func() error { return nil }))
}
