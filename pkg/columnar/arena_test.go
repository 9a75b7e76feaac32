package columnar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/errors"
)

func TestArena_AppendReturnsPriorSize(t *testing.T) {
	a := NewArena(16)

	assert.Equal(t, uint64(0), a.Append(View("abc")))
	assert.Equal(t, uint64(3), a.Append(View("defg")))
	assert.Equal(t, uint64(7), a.Size())

	v, err := a.Read(0, 7)
	require.NoError(t, err)
	assert.Equal(t, "abcdefg", v.String())
}

func TestArena_EmptyAppend(t *testing.T) {
	a := NewArena(16)
	a.Append(View("ab"))

	assert.Equal(t, uint64(2), a.Append(View{}))
	assert.Equal(t, uint64(2), a.Size())
	assert.Equal(t, 1, a.Pages())

	v, err := a.Read(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
}

func TestArena_ViewsSurviveLaterAppends(t *testing.T) {
	a := NewArena(8)
	a.Append(View("abcdef"))

	v, err := a.Read(0, 6)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		a.Append(View("0123456"))
	}

	assert.Greater(t, a.Pages(), 1)
	assert.Equal(t, "abcdef", v.String())
}

func TestArena_LargeValueGetsOwnPage(t *testing.T) {
	a := NewArena(8)
	a.Append(View("xy"))

	big := bytes.Repeat([]byte("z"), 20)
	off := a.Append(big)
	assert.Equal(t, uint64(2), off)
	assert.Equal(t, 2, a.Pages())

	v, err := a.Read(off, 20)
	require.NoError(t, err)
	assert.Equal(t, View(big), v)
	assert.Equal(t, int64(8+20), a.MemoryUsage())
}

func TestArena_ReadAcrossPages(t *testing.T) {
	a := NewArena(4)
	a.Append(View("ab"))
	a.Append(View("cde"))
	require.Equal(t, 2, a.Pages())

	v, err := a.Read(1, 3)
	require.NoError(t, err)
	assert.Equal(t, "bcd", v.String())
}

func TestArena_ReadOutOfRange(t *testing.T) {
	a := NewArena(16)
	a.Append(View("hello"))

	tests := []struct {
		name   string
		offset uint64
		length uint64
	}{
		{name: "past end", offset: 3, length: 3},
		{name: "offset beyond size", offset: 6, length: 0},
		{name: "huge length", offset: 1, length: ^uint64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Read(tt.offset, tt.length)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))
		})
	}
}

func TestArena_DefaultPageSize(t *testing.T) {
	a := NewArena(0)
	a.Append(View("x"))
	assert.Equal(t, int64(DefaultPageSize), a.MemoryUsage())
}
