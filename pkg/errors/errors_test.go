package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: upload missing", NewNotFoundError("upload missing").Error())

	wrapped := NewExternalError("smtp send", fmt.Errorf("dial tcp: timeout"))
	assert.Equal(t, "EXTERNAL: smtp send: dial tcp: timeout", wrapped.Error())
}

func TestTypeOf(t *testing.T) {
	err := fmt.Errorf("load registry: %w", NewUnavailableError("registry down", nil))

	assert.Equal(t, ErrorTypeUnavailable, TypeOf(err))
	assert.True(t, IsType(err, ErrorTypeUnavailable))
	assert.False(t, IsType(err, ErrorTypeValidation))
	assert.Equal(t, ErrorTypeInternal, TypeOf(fmt.Errorf("plain")))
}
