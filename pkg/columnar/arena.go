package columnar

import (
	"sort"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// DefaultPageSize is the capacity of each arena page.
const DefaultPageSize = 64 * 1024

// Arena is an append-only byte store with stable offsets. Bytes live in
// fixed-capacity pages that are never reallocated, so a View handed out for
// an earlier offset survives any number of later appends. A single append
// never straddles two pages; values larger than a page get a page of their
// own.
type Arena struct {
	pages     []arenaPage
	size      uint64
	pageSize  int
	allocated int64
}

type arenaPage struct {
	start uint64 // logical offset of data[0]
	data  []byte
}

// NewArena creates an arena whose pages hold pageSize bytes. A non-positive
// pageSize selects DefaultPageSize.
func NewArena(pageSize int) *Arena {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Arena{pageSize: pageSize}
}

// Append copies v into the arena and returns the offset where it begins,
// which is the arena size before the call.
func (a *Arena) Append(v View) uint64 {
	offset, _ := a.appendView(v)
	return offset
}

// appendView is Append that also returns the stored copy of v.
func (a *Arena) appendView(v View) (uint64, View) {
	offset := a.size
	if len(v) == 0 {
		return offset, View{}
	}

	var last *arenaPage
	if n := len(a.pages); n > 0 {
		last = &a.pages[n-1]
	}
	if last == nil || cap(last.data)-len(last.data) < len(v) {
		capacity := a.pageSize
		if len(v) > capacity {
			capacity = len(v)
		}
		a.pages = append(a.pages, arenaPage{start: offset, data: make([]byte, 0, capacity)})
		a.allocated += int64(capacity)
		last = &a.pages[len(a.pages)-1]
	}

	start := len(last.data)
	last.data = append(last.data, v...)
	a.size += uint64(len(v))
	return offset, View(last.data[start:len(last.data):len(last.data)])
}

// Read returns length bytes starting at offset. Reads inside a single page do
// not copy; a range spanning pages is assembled into a fresh buffer.
func (a *Arena) Read(offset, length uint64) (View, error) {
	if offset > a.size || length > a.size-offset {
		return nil, errors.Newf(errors.ErrorTypeOutOfRange,
			"read of %d bytes at offset %d past arena size %d", length, offset, a.size).
			WithDetail("offset", offset).
			WithDetail("length", length)
	}
	if length == 0 {
		return View{}, nil
	}

	i := sort.Search(len(a.pages), func(i int) bool { return a.pages[i].start > offset }) - 1
	p := a.pages[i]
	rel := offset - p.start
	if rel+length <= uint64(len(p.data)) {
		return View(p.data[rel : rel+length : rel+length]), nil
	}

	out := make(View, 0, length)
	for uint64(len(out)) < length {
		p := a.pages[i]
		rel := offset + uint64(len(out)) - p.start
		n := min(uint64(len(p.data))-rel, length-uint64(len(out)))
		out = append(out, p.data[rel:rel+n]...)
		i++
	}
	return out, nil
}

// Size returns the number of bytes appended.
func (a *Arena) Size() uint64 { return a.size }

// Pages returns the number of allocated pages.
func (a *Arena) Pages() int { return len(a.pages) }

// MemoryUsage returns the allocated page capacity in bytes.
func (a *Arena) MemoryUsage() int64 { return a.allocated }
