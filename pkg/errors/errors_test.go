package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapturesStack(t *testing.T) {
	err := New(ErrorTypeConfig, "dictionary encoding not supported")

	require.NotEmpty(t, err.Stack)
	assert.Contains(t, err.Stack[0].Function, "TestNewCapturesStack")
	assert.Equal(t, "config: dictionary encoding not supported", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeData, "cannot parse %q as %s", "abc", "int64")
	assert.Equal(t, `data: cannot parse "abc" as int64`, err.Error())
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeFile, "unused"))
	})

	t.Run("preserves stack of structured cause", func(t *testing.T) {
		inner := New(ErrorTypeOutOfRange, "row 9 out of range")
		outer := Wrap(inner, ErrorTypeData, "read failed")

		assert.Equal(t, inner.Stack, outer.Stack)
		assert.True(t, IsType(outer, ErrorTypeData))
		assert.True(t, Is(outer, inner))
	})

	t.Run("plain cause", func(t *testing.T) {
		outer := Wrap(io.EOF, ErrorTypeFile, "read header")
		assert.Equal(t, "file: read header: EOF", outer.Error())
		assert.True(t, Is(outer, io.EOF))
		assert.NotEmpty(t, outer.Stack)
	})
}

func TestIsType(t *testing.T) {
	err := OutOfRange("row", 5, 2)
	wrapped := fmt.Errorf("lookup: %w", err)

	assert.True(t, IsType(wrapped, ErrorTypeOutOfRange))
	assert.False(t, IsType(wrapped, ErrorTypeConfig))
	assert.False(t, IsType(io.EOF, ErrorTypeOutOfRange))

	var target *Error
	require.True(t, As(wrapped, &target))
	assert.Equal(t, uint64(5), target.Details["position"])
}
