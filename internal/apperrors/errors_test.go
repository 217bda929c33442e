package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("resolve: %w", InvalidState("transaction %s is %s", "t1", "completed"))

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "transaction t1 is completed", Message(err))
}

func TestMessageFallsBackToKind(t *testing.T) {
	assert.Equal(t, "not found", (&Error{Kind: ErrNotFound}).Error())
	assert.Equal(t, "plain", Message(errors.New("plain")))
}
