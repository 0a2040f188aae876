package codecs

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/torosent/codecbench/internal/config"
	"github.com/torosent/codecbench/internal/counters"
	"github.com/torosent/codecbench/internal/registry"
	"github.com/torosent/codecbench/internal/runner"
)

type (
	encodeImpl = registry.Implementation[image.Image, []byte]
	decodeImpl = registry.Implementation[[]byte, image.Image]
)

// Level maps a configured speed to a PNG compression level.
func Level(speed config.PNGSpeed) png.CompressionLevel {
	switch speed {
	case config.PNGSpeedNone:
		return png.NoCompression
	case config.PNGSpeedDefault:
		return png.DefaultCompression
	case config.PNGSpeedBest:
		return png.BestCompression
	default:
		return png.BestSpeed
	}
}

// Encoders builds the encode mode: PNG encoders over decoded images.
func Encoders(cfg config.CodecConfig) (Suite[image.Image, []byte], error) {
	reg, err := registry.New(
		encodeImpl{Name: "png-none", Func: pngEncoder(png.NoCompression, nil)},
		encodeImpl{Name: "png-fast", Func: pngEncoder(png.BestSpeed, nil)},
		encodeImpl{Name: "png-fast-pooled", Func: pngEncoder(png.BestSpeed, &singleBufferPool{})},
		encodeImpl{Name: "png-default", Func: pngEncoder(png.DefaultCompression, nil)},
		encodeImpl{Name: "png-best", Func: pngEncoder(png.BestCompression, nil)},
	)
	if err != nil {
		return Suite[image.Image, []byte]{}, err
	}

	return Suite[image.Image, []byte]{
		Registry:  reg,
		Prepare:   imagePreparer(cfg),
		Check:     checkPixels,
		OutputLen: func(b []byte) (int, bool) { return len(b), true },
		Unit:      unitPixels,
	}, nil
}

// Decoders builds the decode and decode-single modes.
func Decoders(cfg config.CodecConfig) (Suite[[]byte, image.Image], error) {
	reg, err := registry.New(
		decodeImpl{Name: "png", Func: func(b []byte) (image.Image, error) {
			return png.Decode(bytes.NewReader(b))
		}},
		decodeImpl{Name: "image", Func: func(b []byte) (image.Image, error) {
			img, _, err := image.Decode(bytes.NewReader(b))
			return img, err
		}},
		decodeImpl{Name: "png-nrgba", Func: func(b []byte) (image.Image, error) {
			img, err := png.Decode(bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			if nrgba, ok := img.(*image.NRGBA); ok {
				return nrgba, nil
			}
			dst := image.NewNRGBA(img.Bounds())
			draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
			return dst, nil
		}},
	)
	if err != nil {
		return Suite[[]byte, image.Image]{}, err
	}

	return Suite[[]byte, image.Image]{
		Registry: reg,
		Prepare:  pngPreparer(cfg),
		Check:    boundsCheck(png.DecodeConfig),
		Unit:     unitPixels,
	}, nil
}

func pngEncoder(level png.CompressionLevel, pool png.EncoderBufferPool) func(image.Image) ([]byte, error) {
	enc := &png.Encoder{CompressionLevel: level, BufferPool: pool}
	return func(img image.Image) ([]byte, error) {
		var buf bytes.Buffer
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// singleBufferPool hands the same encoder buffer back to a sequential encoder.
type singleBufferPool struct {
	b *png.EncoderBuffer
}

func (p *singleBufferPool) Get() *png.EncoderBuffer  { return p.b }
func (p *singleBufferPool) Put(b *png.EncoderBuffer) { p.b = b }

// admit applies the header based filters shared by both image modes.
func admit(cfg config.CodecConfig, raw []byte) (pngHeader, bool) {
	h, err := readPNGHeader(raw)
	if err != nil {
		counters.Inc("png.declined.not-png")
		return pngHeader{}, false
	}
	counters.Inc("png.color." + h.colorName())
	if cfg.SkipPaletted && h.ColorType == colorPaletted {
		counters.Inc("png.declined.paletted")
		return pngHeader{}, false
	}
	if cfg.MaxPixels > 0 && h.Pixels() > int64(cfg.MaxPixels) {
		counters.Inc("png.declined.oversize")
		return pngHeader{}, false
	}
	return h, true
}

// imagePreparer decodes each PNG once; encoders start from the pixels and
// ratios are taken against the raw pixel bytes.
func imagePreparer(cfg config.CodecConfig) runner.PrepareFunc[image.Image] {
	return func(path string, raw []byte) (runner.Prepared[image.Image], bool) {
		h, ok := admit(cfg, raw)
		if !ok {
			return runner.Prepared[image.Image]{}, false
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			counters.Inc("png.declined.corrupt")
			return runner.Prepared[image.Image]{}, false
		}
		return runner.Prepared[image.Image]{
			Input:    img,
			Size:     megapixels(h.Pixels()),
			RefBytes: int(h.Pixels()) * bytesPerPixel(img),
		}, true
	}
}

// pngPreparer feeds the file bytes to decoders. Gray+alpha images and files
// the reference decoder rejects are declined. With Reencode the file is first
// rewritten by the Go encoder at the configured speed.
func pngPreparer(cfg config.CodecConfig) runner.PrepareFunc[[]byte] {
	reencode := pngEncoder(Level(cfg.PNGSpeed), nil)
	return func(path string, raw []byte) (runner.Prepared[[]byte], bool) {
		h, ok := admit(cfg, raw)
		if !ok {
			return runner.Prepared[[]byte]{}, false
		}
		if h.ColorType == colorGrayAlpha {
			counters.Inc("png.declined.gray-alpha")
			return runner.Prepared[[]byte]{}, false
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			counters.Inc("png.declined.corrupt")
			return runner.Prepared[[]byte]{}, false
		}
		input := raw
		if cfg.Reencode {
			if input, err = reencode(img); err != nil {
				return runner.Prepared[[]byte]{}, false
			}
			counters.Inc("png.reencoded")
		}
		return runner.Prepared[[]byte]{
			Input:    input,
			Size:     megapixels(h.Pixels()),
			RefBytes: len(input),
		}, true
	}
}

func bytesPerPixel(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Paletted:
		return 1
	case *image.Gray16:
		return 2
	case *image.RGBA64, *image.NRGBA64:
		return 8
	default:
		return 4
	}
}

// checkPixels decodes an encoder's output and compares it with the source image.
func checkPixels(out []byte, in runner.Prepared[image.Image]) error {
	got, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return fmt.Errorf("decode encoded image: %w", err)
	}
	want := in.Input
	if got.Bounds() != want.Bounds() {
		return fmt.Errorf("bounds %v, want %v", got.Bounds(), want.Bounds())
	}
	b := want.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r1, g1, b1, a1 := got.At(x, y).RGBA()
			r2, g2, b2, a2 := want.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return fmt.Errorf("pixel (%d,%d) differs", x, y)
			}
		}
	}
	return nil
}

// boundsCheck compares a decoder's image size with the reference header decoder.
func boundsCheck(decodeConfig func(io.Reader) (image.Config, error)) runner.CheckFunc[[]byte, image.Image] {
	return func(out image.Image, in runner.Prepared[[]byte]) error {
		cfg, err := decodeConfig(bytes.NewReader(in.Input))
		if err != nil {
			return fmt.Errorf("reference decode: %w", err)
		}
		if out == nil {
			return fmt.Errorf("decoder returned no image")
		}
		if got := out.Bounds(); got.Dx() != cfg.Width || got.Dy() != cfg.Height {
			return fmt.Errorf("decoded %dx%d, want %dx%d", got.Dx(), got.Dy(), cfg.Width, cfg.Height)
		}
		return nil
	}
}
