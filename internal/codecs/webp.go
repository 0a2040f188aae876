package codecs

import (
	"bytes"
	"image"
	"image/draw"

	"golang.org/x/image/webp"

	"github.com/torosent/codecbench/internal/config"
	"github.com/torosent/codecbench/internal/counters"
	"github.com/torosent/codecbench/internal/registry"
	"github.com/torosent/codecbench/internal/runner"
)

// WebPDecoders builds the decode-webp mode over the cwebp output corpus.
func WebPDecoders(cfg config.CodecConfig) (Suite[[]byte, image.Image], error) {
	reg, err := registry.New(
		decodeImpl{Name: "x-image-webp", Func: func(b []byte) (image.Image, error) {
			return webp.Decode(bytes.NewReader(b))
		}},
		decodeImpl{Name: "image", Func: func(b []byte) (image.Image, error) {
			img, _, err := image.Decode(bytes.NewReader(b))
			return img, err
		}},
		decodeImpl{Name: "x-image-webp-nrgba", Func: func(b []byte) (image.Image, error) {
			img, err := webp.Decode(bytes.NewReader(b))
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
		Prepare:  webpPreparer(cfg),
		Check:    boundsCheck(webp.DecodeConfig),
		Unit:     unitPixels,
	}, nil
}

// webpPreparer declines files that are not WebP, exceed max_pixels or fail
// the reference decode.
func webpPreparer(cfg config.CodecConfig) runner.PrepareFunc[[]byte] {
	return func(path string, raw []byte) (runner.Prepared[[]byte], bool) {
		ic, err := webp.DecodeConfig(bytes.NewReader(raw))
		if err != nil {
			counters.Inc("webp.declined.not-webp")
			return runner.Prepared[[]byte]{}, false
		}
		pixels := int64(ic.Width) * int64(ic.Height)
		if pixels <= 0 {
			counters.Inc("webp.declined.not-webp")
			return runner.Prepared[[]byte]{}, false
		}
		if cfg.MaxPixels > 0 && pixels > int64(cfg.MaxPixels) {
			counters.Inc("webp.declined.oversize")
			return runner.Prepared[[]byte]{}, false
		}
		if _, err := webp.Decode(bytes.NewReader(raw)); err != nil {
			counters.Inc("webp.declined.corrupt")
			return runner.Prepared[[]byte]{}, false
		}
		return runner.Prepared[[]byte]{
			Input:    raw,
			Size:     megapixels(pixels),
			RefBytes: len(raw),
		}, true
	}
}
