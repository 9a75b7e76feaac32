package columnar

import (
	"bytes"
	"unsafe"
)

// Buffer is an owning byte buffer. A Buffer returned by a column is a copy
// and stays valid after later appends.
type Buffer []byte

// View is a borrowing byte view into storage owned by someone else. Creating
// a View never copies.
type View []byte

// NewBuffer copies v into a new owning buffer.
func NewBuffer(v View) Buffer {
	if v == nil {
		return Buffer{}
	}
	b := make(Buffer, len(v))
	copy(b, v)
	return b
}

// BufferString copies s into a new owning buffer.
func BufferString(s string) Buffer {
	if len(s) == 0 {
		return Buffer{}
	}
	return Buffer(s)
}

// ViewString borrows the bytes of s. The returned view must not be modified.
func ViewString(s string) View {
	if len(s) == 0 {
		return View{}
	}
	return View(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// Len returns the number of bytes
func (b Buffer) Len() int { return len(b) }

// Bytes returns the underlying byte slice
func (b Buffer) Bytes() []byte { return b }

// View borrows the buffer without copying.
func (b Buffer) View() View { return View(b) }

// Equal reports whether b and o hold the same bytes.
func (b Buffer) Equal(o Buffer) bool { return bytes.Equal(b, o) }

// Compare orders buffers lexicographically, a shorter prefix first.
func (b Buffer) Compare(o Buffer) int { return bytes.Compare(b, o) }

func (b Buffer) String() string { return string(b) }

// Len returns the number of bytes
func (v View) Len() int { return len(v) }

// Bytes returns the underlying byte slice
func (v View) Bytes() []byte { return v }

// Equal reports whether v and o hold the same bytes.
func (v View) Equal(o View) bool { return bytes.Equal(v, o) }

// Compare orders views lexicographically, a shorter prefix first.
func (v View) Compare(o View) int { return bytes.Compare(v, o) }

// String returns the bytes as a string without copying.
// WARNING: the string shares memory with the column that produced the view.
func (v View) String() string {
	if len(v) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(v), len(v))
}
