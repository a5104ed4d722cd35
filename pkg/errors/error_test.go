package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeInvalidParameter, "bad period")
	assert.Equal(t, "[100] bad period", err.Error())

	wrapped := Wrap(ErrCodeStorageFailed, "save failed", fmt.Errorf("db closed"))
	assert.Equal(t, "[500] save failed: db closed", wrapped.Error())
}

func TestGetCode(t *testing.T) {
	err := Newf(ErrCodeUnknownStrategy, "unknown strategy %q", "foo")
	assert.Equal(t, ErrCodeUnknownStrategy, GetCode(err))
	assert.True(t, HasCode(err, ErrCodeUnknownStrategy))

	plain := fmt.Errorf("plain error")
	assert.Equal(t, ErrCodeUnknown, GetCode(plain))
}

func TestWrappedCodeSurvivesChain(t *testing.T) {
	inner := New(ErrCodeWindowTooLarge, "train+test exceeds bars")
	outer := fmt.Errorf("walk-forward: %w", inner)

	assert.True(t, HasCode(outer, ErrCodeWindowTooLarge))
}
