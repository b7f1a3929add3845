package chart

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot/vg/vgimg"
)

// Category groups the metrics drawn on one figure.
type Category string

const (
	CategoryVM  Category = "vm"
	CategoryGPU Category = "gpu"
)

var ErrFigureClosed = errors.New("figure is closed")

// RenderError reports a failure to lay out, encode or write a figure.
type RenderError struct {
	Hostname string
	Category Category
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s chart for %s: %v", e.Category, e.Hostname, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Figure is a rendered chart held in memory until it is written or closed.
type Figure struct {
	Category Category
	Hostname string
	// Path is set once the figure has been saved.
	Path string

	canvas *vgimg.Canvas
}

// WriteTo encodes the figure as PNG.
func (f *Figure) WriteTo(w io.Writer) (int64, error) {
	if f.canvas == nil {
		return 0, ErrFigureClosed
	}
	png := vgimg.PngCanvas{Canvas: f.canvas}
	return png.WriteTo(w)
}

// Close releases the image buffer. It is safe to call more than once.
func (f *Figure) Close() error {
	f.canvas = nil
	return nil
}

func (f *Figure) Closed() bool {
	return f.canvas == nil
}
