package columnar

import (
	"math"

	"github.com/google/btree"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// Storage is an encoding-specific append/read engine over raw bytes.
//
// The location returned by Append is what Read expects back: a byte offset
// for plain storage, a row index for dictionary storage. Columns never compute
// locations themselves; they ask Locate to translate a row position into the
// storage's own addressing.
type Storage interface {
	// Encoding returns the encoding implemented by the storage.
	Encoding() Encoding
	// Append stores v and returns its location.
	Append(v View) (uint64, error)
	// Read returns length bytes at loc. Dictionary storage ignores length.
	Read(loc, length uint64) (View, error)
	// Locate maps the row-th append of width bytes to a location.
	Locate(row, width uint64) uint64
	// Appends returns the number of Append calls.
	Appends() uint64
	// MemoryUsage estimates the bytes held by the storage.
	MemoryUsage() int64
}

// NewStorage creates an empty storage for the given encoding.
func NewStorage(enc Encoding) (Storage, error) {
	switch enc {
	case EncodingPlain:
		return NewPlainStorage(DefaultPageSize), nil
	case EncodingDictionary:
		return NewDictionaryStorage(), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported encoding %d", int(enc))
	}
}

// PlainStorage passes values straight through to an arena. Locations are
// byte offsets into the arena.
type PlainStorage struct {
	data    *Arena
	appends uint64
}

// NewPlainStorage creates plain storage backed by an arena with the given
// page size.
func NewPlainStorage(pageSize int) *PlainStorage {
	return &PlainStorage{data: NewArena(pageSize)}
}

func (s *PlainStorage) Encoding() Encoding { return EncodingPlain }

// Append returns the arena size before the call, where v begins. It never
// fails.
func (s *PlainStorage) Append(v View) (uint64, error) {
	s.appends++
	return s.data.Append(v), nil
}

// Read returns length bytes at byte offset loc. The caller must know the
// length; there is no framing at this layer.
func (s *PlainStorage) Read(loc, length uint64) (View, error) {
	return s.data.Read(loc, length)
}

// Locate returns row*width, the byte offset of the row-th fixed-width value.
func (s *PlainStorage) Locate(row, width uint64) uint64 { return row * width }

func (s *PlainStorage) Appends() uint64 { return s.appends }

// Size returns the number of payload bytes stored.
func (s *PlainStorage) Size() uint64 { return s.data.Size() }

func (s *PlainStorage) MemoryUsage() int64 { return s.data.MemoryUsage() }

// DictionaryStorage deduplicates values. Each distinct value is interned
// once in an arena and identified by a stable integer handle; an ordered
// index over the interned bytes finds the handle of an incoming value in
// O(log distinct). Every Append records one handle, so Read by row index is
// a single slice lookup.
//
// Interned values are never erased, which keeps handles and the views
// returned by Read valid for the lifetime of the storage. Handles are
// uint32, so at most 2^32 distinct values can be held; appending a new value
// beyond that fails.
type DictionaryStorage struct {
	values    *Arena
	distinct  []View // handle -> interned bytes
	index     *btree.BTreeG[dictEntry]
	positions []uint32 // append index -> handle
}

type dictEntry struct {
	key    View
	handle uint32
}

const dictionaryDegree = 32

// maxDistinct is the number of handles a dictionary can hand out.
var maxDistinct uint64 = math.MaxUint32 + 1

// NewDictionaryStorage creates empty dictionary storage.
func NewDictionaryStorage() *DictionaryStorage {
	return &DictionaryStorage{
		values: NewArena(DefaultPageSize),
		index: btree.NewG[dictEntry](dictionaryDegree, func(a, b dictEntry) bool {
			return a.key.Compare(b.key) < 0
		}),
	}
}

func (s *DictionaryStorage) Encoding() Encoding { return EncodingDictionary }

// Append interns v if it has not been seen before and returns the index of
// this append. Equal values share one interned copy. A new value is rejected
// with an out_of_range error once every handle is taken; values already
// interned can still be appended.
func (s *DictionaryStorage) Append(v View) (uint64, error) {
	entry, ok := s.index.Get(dictEntry{key: v})
	if !ok {
		if err := s.checkRoom(); err != nil {
			return 0, err
		}
		_, stored := s.values.appendView(v)
		entry = dictEntry{key: stored, handle: uint32(len(s.distinct))}
		s.distinct = append(s.distinct, stored)
		s.index.ReplaceOrInsert(entry)
	}
	s.positions = append(s.positions, entry.handle)
	return uint64(len(s.positions) - 1), nil
}

// CanAppend reports whether Append(v) would succeed.
func (s *DictionaryStorage) CanAppend(v View) error {
	if _, ok := s.index.Get(dictEntry{key: v}); ok {
		return nil
	}
	return s.checkRoom()
}

func (s *DictionaryStorage) checkRoom() error {
	if uint64(len(s.distinct)) < maxDistinct {
		return nil
	}
	return errors.Newf(errors.ErrorTypeOutOfRange,
		"dictionary is full: %d distinct values", len(s.distinct)).
		WithDetail("limit", maxDistinct)
}

// Read returns the interned value recorded for append index loc. The length
// argument is ignored; the interned value carries its own length.
func (s *DictionaryStorage) Read(loc, _ uint64) (View, error) {
	if loc >= uint64(len(s.positions)) {
		return nil, errors.OutOfRange("dictionary index", loc, uint64(len(s.positions)))
	}
	return s.distinct[s.positions[loc]], nil
}

// Locate returns row; dictionary locations are append indexes.
func (s *DictionaryStorage) Locate(row, _ uint64) uint64 { return row }

func (s *DictionaryStorage) Appends() uint64 { return uint64(len(s.positions)) }

// Distinct returns the number of distinct values stored.
func (s *DictionaryStorage) Distinct() int { return len(s.distinct) }

// Handle returns the handle of the interned value recorded for append index
// loc. Appends of equal values return the same handle.
func (s *DictionaryStorage) Handle(loc uint64) (uint32, error) {
	if loc >= uint64(len(s.positions)) {
		return 0, errors.OutOfRange("dictionary index", loc, uint64(len(s.positions)))
	}
	return s.positions[loc], nil
}

// Value returns the interned value for a handle.
func (s *DictionaryStorage) Value(handle uint32) (View, error) {
	if int(handle) >= len(s.distinct) {
		return nil, errors.OutOfRange("dictionary handle", uint64(handle), uint64(len(s.distinct)))
	}
	return s.distinct[handle], nil
}

// Values calls fn for each distinct value in byte order.
func (s *DictionaryStorage) Values(fn func(handle uint32, v View) bool) {
	s.index.Ascend(func(e dictEntry) bool {
		return fn(e.handle, e.key)
	})
}

func (s *DictionaryStorage) MemoryUsage() int64 {
	const viewHeader = 24
	total := s.values.MemoryUsage()
	total += int64(len(s.positions) * 4)
	total += int64(len(s.distinct) * viewHeader)
	total += int64(s.index.Len() * (viewHeader + 8))
	return total
}
