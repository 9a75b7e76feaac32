// Package compression wraps input and output streams with a compression
// codec so CSV files can be read and written compressed.
//
// # Algorithm Selection
//
//   - Snappy/S2: fastest, moderate ratio
//   - LZ4: very fast, decent ratio
//   - Zstd: best ratio at good speed
//   - Gzip: widest compatibility
//
// Auto picks the algorithm from the file extension:
//
//	alg := compression.Resolve(compression.Auto, "events.csv.zst") // Zstd
//	r, err := compression.NewReader(alg, f)
//	defer r.Close()
package compression

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// Algorithm names a compression codec.
type Algorithm string

const (
	// Auto selects the codec from the file extension
	Auto Algorithm = "auto"
	// None passes data through unchanged
	None   Algorithm = "none"
	Gzip   Algorithm = "gzip"
	Zstd   Algorithm = "zstd"
	LZ4    Algorithm = "lz4"
	Snappy Algorithm = "snappy"
	S2     Algorithm = "s2"
)

// Level trades speed for ratio. Codecs without levels ignore it.
type Level int

const (
	Fastest Level = 1
	Default Level = 5
	Better  Level = 7
	Best    Level = 9
)

var extensions = map[string]Algorithm{
	".gz":   Gzip,
	".gzip": Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".lz4":  LZ4,
	".sz":   Snappy,
	".s2":   S2,
}

// ParseAlgorithm parses a configured algorithm name. The empty string means
// Auto.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch alg := Algorithm(strings.ToLower(strings.TrimSpace(s))); alg {
	case "":
		return Auto, nil
	case Auto, None, Gzip, Zstd, LZ4, Snappy, S2:
		return alg, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression %q", s)
	}
}

// Detect returns the algorithm implied by the extension of path, or None.
func Detect(path string) Algorithm {
	if alg, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return alg
	}
	return None
}

// Resolve replaces Auto with the algorithm detected from path.
func Resolve(alg Algorithm, path string) Algorithm {
	if alg == Auto || alg == "" {
		return Detect(path)
	}
	return alg
}

// NewReader returns a reader that decompresses r. Closing it releases codec
// state but does not close r.
func NewReader(alg Algorithm, r io.Reader) (io.ReadCloser, error) {
	switch alg {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid gzip stream")
		}
		return zr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid zstd stream")
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "cannot read %q compression", alg)
	}
}

// NewWriter returns a writer that compresses into w. Close flushes the codec
// but does not close w.
func NewWriter(alg Algorithm, w io.Writer, level Level) (io.WriteCloser, error) {
	switch alg {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		zw, err := gzip.NewWriterLevel(w, gzipLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create gzip writer")
		}
		return zw, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstdLevel(level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create zstd writer")
		}
		return enc, nil
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(lz4Level(level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to configure lz4 writer")
		}
		return lw, nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case S2:
		return s2.NewWriter(w, s2Options(level)...), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "cannot write %q compression", alg)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func gzipLevel(level Level) int {
	switch {
	case level <= Fastest:
		return gzip.BestSpeed
	case level >= Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func zstdLevel(level Level) zstd.EncoderLevel {
	switch {
	case level <= Fastest:
		return zstd.SpeedFastest
	case level >= Best:
		return zstd.SpeedBestCompression
	case level >= Better:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedDefault
	}
}

func lz4Level(level Level) lz4.CompressionLevel {
	switch {
	case level <= Fastest:
		return lz4.Fast
	case level >= Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func s2Options(level Level) []s2.WriterOption {
	switch {
	case level >= Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	case level >= Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	default:
		return nil
	}
}
