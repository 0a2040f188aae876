package codecs

import (
	"bytes"
	stdzlib "compress/zlib"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/torosent/codecbench/internal/config"
	"github.com/torosent/codecbench/internal/counters"
	"github.com/torosent/codecbench/internal/registry"
	"github.com/torosent/codecbench/internal/runner"
)

// Stream is a zlib stream together with a digest of its reference inflation.
type Stream struct {
	Data   []byte
	RawLen int
	Sum    uint64
}

type decompressImpl = registry.Implementation[Stream, []byte]

// Decompressors builds the decompress mode: zlib decoders over the raw corpus.
func Decompressors(config.CodecConfig) (Suite[Stream, []byte], error) {
	reuse := &reusingInflater{}
	reg, err := registry.New(
		decompressImpl{Name: "zlib-std", Func: func(in Stream) ([]byte, error) {
			r, err := stdzlib.NewReader(bytes.NewReader(in.Data))
			if err != nil {
				return nil, err
			}
			return readSized(r, in.RawLen)
		}},
		decompressImpl{Name: "zlib-klauspost", Func: func(in Stream) ([]byte, error) {
			r, err := zlib.NewReader(bytes.NewReader(in.Data))
			if err != nil {
				return nil, err
			}
			return readSized(r, in.RawLen)
		}},
		decompressImpl{Name: "zlib-klauspost-reuse", Func: reuse.inflate},
		decompressImpl{Name: "flate-klauspost", Func: func(in Stream) ([]byte, error) {
			// Raw deflate body: skip the two byte zlib header, ignore the adler32 trailer.
			r := flate.NewReader(bytes.NewReader(in.Data[2:]))
			return readSized(r, in.RawLen)
		}},
	)
	if err != nil {
		return Suite[Stream, []byte]{}, err
	}

	return Suite[Stream, []byte]{
		Registry: reg,
		Prepare:  prepareDecompress,
		Check:    checkInflated,
		Unit:     unitBytes,
	}, nil
}

// reusingInflater keeps one klauspost zlib reader and resets it per stream.
// The returned slice aliases buf and is valid until the next call.
type reusingInflater struct {
	r   io.ReadCloser
	buf bytes.Buffer
}

func (ri *reusingInflater) inflate(in Stream) ([]byte, error) {
	src := bytes.NewReader(in.Data)
	if ri.r == nil {
		r, err := zlib.NewReader(src)
		if err != nil {
			return nil, err
		}
		ri.r = r
	} else if err := ri.r.(zlib.Resetter).Reset(src, nil); err != nil {
		return nil, err
	}
	ri.buf.Reset()
	ri.buf.Grow(in.RawLen)
	if _, err := ri.buf.ReadFrom(ri.r); err != nil {
		return nil, err
	}
	return ri.buf.Bytes(), nil
}

func readSized(r io.ReadCloser, size int) ([]byte, error) {
	defer r.Close()
	var buf bytes.Buffer
	buf.Grow(size)
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// prepareDecompress keeps the compressed stream as input; throughput is
// measured in uncompressed megabytes. Streams the reference decoder rejects
// are declined.
func prepareDecompress(path string, raw []byte) (runner.Prepared[Stream], bool) {
	data, err := inflate(raw)
	if err != nil {
		counters.Inc("zlib.malformed")
		return runner.Prepared[Stream]{}, false
	}
	return runner.Prepared[Stream]{
		Input:    Stream{Data: raw, RawLen: len(data), Sum: xxhash.Sum64(data)},
		Size:     megabytes(len(data)),
		RefBytes: len(raw),
	}, true
}

func checkInflated(out []byte, in runner.Prepared[Stream]) error {
	if len(out) != in.Input.RawLen {
		return fmt.Errorf("inflated %d bytes, want %d", len(out), in.Input.RawLen)
	}
	if xxhash.Sum64(out) != in.Input.Sum {
		return fmt.Errorf("inflated bytes differ from reference")
	}
	return nil
}
