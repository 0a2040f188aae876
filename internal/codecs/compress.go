package codecs

import (
	"bytes"
	stdzlib "compress/zlib"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/torosent/codecbench/internal/config"
	"github.com/torosent/codecbench/internal/counters"
	"github.com/torosent/codecbench/internal/registry"
	"github.com/torosent/codecbench/internal/runner"
)

// Format identifies the container written by a compressor.
type Format int

const (
	FormatZlib Format = iota
	FormatZstd
	FormatS2
	FormatSnappy
)

func (f Format) String() string {
	switch f {
	case FormatZlib:
		return "zlib"
	case FormatZstd:
		return "zstd"
	case FormatS2:
		return "s2"
	case FormatSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Compressed is the output of a compressor.
type Compressed struct {
	Format Format
	Data   []byte
}

type compressImpl = registry.Implementation[[]byte, Compressed]

var zstdSpeeds = []struct {
	name  string
	level zstd.EncoderLevel
}{
	{"zstd-fastest", zstd.SpeedFastest},
	{"zstd-default", zstd.SpeedDefault},
	{"zstd-better", zstd.SpeedBetterCompression},
	{"zstd-best", zstd.SpeedBestCompression},
}

// Compressors builds the compress mode: every compressor over the inflated raw corpus.
func Compressors(cfg config.CodecConfig) (Suite[[]byte, Compressed], error) {
	var impls []compressImpl

	for level := stdzlib.NoCompression; level <= stdzlib.BestCompression; level++ {
		impls = append(impls, compressImpl{
			Name: fmt.Sprintf("zlib-std%d", level),
			Func: stdZlibCompressor(level),
		})
	}
	for level := zlib.NoCompression; level <= zlib.BestCompression; level++ {
		impls = append(impls, compressImpl{
			Name: fmt.Sprintf("zlib-klauspost%d", level),
			Func: klauspostZlibCompressor(level),
		})
	}
	impls = append(impls, compressImpl{
		Name: "zlib-klauspost-huffman",
		Func: klauspostZlibCompressor(zlib.HuffmanOnly),
	})

	for i, speed := range zstdSpeeds {
		if cfg.ZstdLevel != 0 && cfg.ZstdLevel != i+1 {
			continue
		}
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(speed.level), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return Suite[[]byte, Compressed]{}, fmt.Errorf("%s: %w", speed.name, err)
		}
		impls = append(impls, compressImpl{
			Name: speed.name,
			Func: func(in []byte) (Compressed, error) {
				return Compressed{Format: FormatZstd, Data: enc.EncodeAll(in, nil)}, nil
			},
		})
	}

	impls = append(impls,
		compressImpl{Name: "s2", Func: func(in []byte) (Compressed, error) {
			return Compressed{Format: FormatS2, Data: s2.Encode(nil, in)}, nil
		}},
		compressImpl{Name: "s2-better", Func: func(in []byte) (Compressed, error) {
			return Compressed{Format: FormatS2, Data: s2.EncodeBetter(nil, in)}, nil
		}},
		compressImpl{Name: "s2-best", Func: func(in []byte) (Compressed, error) {
			return Compressed{Format: FormatS2, Data: s2.EncodeBest(nil, in)}, nil
		}},
		compressImpl{Name: "snappy", Func: func(in []byte) (Compressed, error) {
			return Compressed{Format: FormatSnappy, Data: snappy.Encode(nil, in)}, nil
		}},
	)

	reg, err := registry.New(impls...)
	if err != nil {
		return Suite[[]byte, Compressed]{}, err
	}
	rt, err := newRoundTrip()
	if err != nil {
		return Suite[[]byte, Compressed]{}, err
	}

	return Suite[[]byte, Compressed]{
		Registry:  reg,
		Prepare:   prepareCompress,
		Check:     rt.check,
		OutputLen: func(c Compressed) (int, bool) { return len(c.Data), true },
		Unit:      unitBytes,
	}, nil
}

func stdZlibCompressor(level int) func([]byte) (Compressed, error) {
	return func(in []byte) (Compressed, error) {
		var buf bytes.Buffer
		w, err := stdzlib.NewWriterLevel(&buf, level)
		if err != nil {
			return Compressed{}, err
		}
		if _, err := w.Write(in); err != nil {
			return Compressed{}, err
		}
		if err := w.Close(); err != nil {
			return Compressed{}, err
		}
		return Compressed{Format: FormatZlib, Data: buf.Bytes()}, nil
	}
}

func klauspostZlibCompressor(level int) func([]byte) (Compressed, error) {
	return func(in []byte) (Compressed, error) {
		var buf bytes.Buffer
		w, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return Compressed{}, err
		}
		if _, err := w.Write(in); err != nil {
			return Compressed{}, err
		}
		if err := w.Close(); err != nil {
			return Compressed{}, err
		}
		return Compressed{Format: FormatZlib, Data: buf.Bytes()}, nil
	}
}

// prepareCompress inflates a corpus stream; the uncompressed bytes are both
// the input and the ratio reference.
func prepareCompress(path string, raw []byte) (runner.Prepared[[]byte], bool) {
	data, err := inflate(raw)
	if err != nil {
		counters.Inc("zlib.malformed")
		return runner.Prepared[[]byte]{}, false
	}
	return runner.Prepared[[]byte]{
		Input:    data,
		Size:     megabytes(len(data)),
		RefBytes: len(data),
	}, true
}

// roundTrip reverses any compressor of the compress mode.
type roundTrip struct {
	zstd *zstd.Decoder
}

func newRoundTrip() (*roundTrip, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &roundTrip{zstd: dec}, nil
}

func (rt *roundTrip) decompress(c Compressed) ([]byte, error) {
	switch c.Format {
	case FormatZlib:
		return inflate(c.Data)
	case FormatZstd:
		return rt.zstd.DecodeAll(c.Data, nil)
	case FormatS2:
		return s2.Decode(nil, c.Data)
	case FormatSnappy:
		return snappy.Decode(nil, c.Data)
	default:
		return nil, fmt.Errorf("unknown format %s", c.Format)
	}
}

func (rt *roundTrip) check(out Compressed, in runner.Prepared[[]byte]) error {
	got, err := rt.decompress(out)
	if err != nil {
		return fmt.Errorf("%s round trip: %w", out.Format, err)
	}
	if !bytes.Equal(got, in.Input) {
		return fmt.Errorf("%s round trip: got %d bytes, want %d identical bytes", out.Format, len(got), len(in.Input))
	}
	return nil
}

// inflate is the reference zlib decoder.
func inflate(stream []byte) ([]byte, error) {
	r, err := stdzlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
