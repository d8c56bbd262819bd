package mqttclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	err := wrapError(KindTimeout, "waiting for suback", errors.New("deadline exceeded"))
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrIO))
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := wrapError(KindIO, "write", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrorWithoutCauseFormats(t *testing.T) {
	err := newError(KindConfigInvalid, "host is required")
	assert.Contains(t, err.Error(), "config invalid")
	assert.Contains(t, err.Error(), "host is required")
}
