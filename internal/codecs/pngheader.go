package codecs

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// PNG color types from the IHDR chunk.
const (
	colorGray      = 0
	colorRGB       = 2
	colorPaletted  = 3
	colorGrayAlpha = 4
	colorRGBA      = 6
)

// maxPNGDimension is the largest width or height a PNG header may carry.
const maxPNGDimension = 1<<31 - 1

var (
	errNotPNG        = errors.New("not a PNG file")
	errBadDimensions = errors.New("PNG dimensions out of range")
)

type pngHeader struct {
	Width     int
	Height    int
	BitDepth  int
	ColorType int
}

// Pixels is the image area.
func (h pngHeader) Pixels() int64 {
	return int64(h.Width) * int64(h.Height)
}

func (h pngHeader) colorName() string {
	switch h.ColorType {
	case colorGray:
		return "gray"
	case colorRGB:
		return "rgb"
	case colorPaletted:
		return "paletted"
	case colorGrayAlpha:
		return "gray-alpha"
	case colorRGBA:
		return "rgba"
	default:
		return "unknown"
	}
}

// readPNGHeader parses the signature and the leading IHDR chunk.
func readPNGHeader(b []byte) (pngHeader, error) {
	if len(b) < 8+8+13 || !bytes.Equal(b[:8], []byte(pngSignature)) {
		return pngHeader{}, errNotPNG
	}
	if binary.BigEndian.Uint32(b[8:12]) != 13 || string(b[12:16]) != "IHDR" {
		return pngHeader{}, errNotPNG
	}
	w, h := binary.BigEndian.Uint32(b[16:20]), binary.BigEndian.Uint32(b[20:24])
	if w == 0 || h == 0 || w > maxPNGDimension || h > maxPNGDimension {
		return pngHeader{}, errBadDimensions
	}
	return pngHeader{
		Width:     int(w),
		Height:    int(h),
		BitDepth:  int(b[24]),
		ColorType: int(b[25]),
	}, nil
}
