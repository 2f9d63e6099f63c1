package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfWalksWrappedChain(t *testing.T) {
	base := New(ErrCodeParse, "bad header")
	wrapped := fmt.Errorf("strategy csv-export: %w", base)

	assert.Equal(t, ErrCodeParse, CodeOf(wrapped))
	assert.True(t, IsParse(wrapped))
	assert.False(t, IsUpstream(wrapped))
	assert.Equal(t, ErrCodeInternalError, CodeOf(stderrors.New("plain")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeUpstream, "fetch failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "UPSTREAM_FAILURE: fetch failed (connection refused)", err.Error())
	assert.Equal(t, "EMPTY_RESULT: no rows", Newf(ErrCodeEmpty, "no %s", "rows").Error())
}

func TestPredicatesOnNil(t *testing.T) {
	assert.False(t, IsEmpty(nil))
	assert.False(t, IsValidation(nil))
	assert.False(t, IsUnauthorized(nil))
}
