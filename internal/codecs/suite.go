package codecs

import (
	"github.com/torosent/codecbench/internal/registry"
	"github.com/torosent/codecbench/internal/runner"
)

// Suite bundles everything a mode hands to the runner.
type Suite[In, Out any] struct {
	Registry  *registry.Registry[In, Out]
	Prepare   runner.PrepareFunc[In]
	Check     runner.CheckFunc[In, Out]
	OutputLen func(Out) (int, bool)
	Unit      string
}

const (
	unitBytes  = "MB/s"
	unitPixels = "MP/s"
)

func megabytes(n int) float64 {
	return float64(n) * 1e-6
}

func megapixels(n int64) float64 {
	return float64(n) * 1e-6
}
