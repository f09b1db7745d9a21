package depreg

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotRegisteredError(t *testing.T) {
	err := &NotRegisteredError{Key: KeyOf[int]()}

	assert.Equal(t, "capability int not registered", err.Error())
	assert.True(t, errors.Is(err, ErrNotRegistered))
	assert.False(t, errors.Is(err, ErrTypeMismatch))

	wrapped := fmt.Errorf("bootstrap: %w", err)
	var target *NotRegisteredError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, KeyOf[int](), target.Key)
}

func TestTypeMismatchError(t *testing.T) {
	err := &TypeMismatchError{Key: KeyOf[int](), Got: reflect.TypeFor[string]()}
	assert.Equal(t, "capability int: factory produced string", err.Error())
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	nilErr := &TypeMismatchError{Key: KeyOf[int]()}
	assert.Equal(t, "capability int: factory produced nil", nilErr.Error())
}
