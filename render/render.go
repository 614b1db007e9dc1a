package render

import (
	"errors"
	"io"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite"
)

// Renderer streams the triangles of a surface.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle) (n int, err error)
}

// DualContourRenderer implements [Renderer] over a Hermite field. The field is
// contoured on the first call to ReadTriangles and the resulting triangles are
// buffered until read.
type DualContourRenderer struct {
	f    *hermite.Field
	cfg  Config
	done bool
	buf  triangleBuffer
}

// NewDualContourRenderer returns a Renderer that dual contours f with cfg.
func NewDualContourRenderer(f *hermite.Field, cfg Config) (*DualContourRenderer, error) {
	var dc DualContourRenderer
	err := dc.Reset(f, cfg)
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// Reset switches the underlying field and configuration. Buffered triangles
// from the previous field are discarded and the buffer is reused.
func (dc *DualContourRenderer) Reset(f *hermite.Field, cfg Config) error {
	if f == nil {
		return errors.New("nil field")
	}
	cfg, err := cfg.normalize()
	if err != nil {
		return err
	}
	dc.f = f
	dc.cfg = cfg
	dc.done = false
	dc.buf.buf = dc.buf.buf[:0]
	return nil
}

// ReadTriangles reads up to len(dst) triangles. It returns io.EOF once all triangles have been read.
func (dc *DualContourRenderer) ReadTriangles(dst []ms3.Triangle) (n int, err error) {
	if len(dst) == 0 {
		return 0, io.ErrShortBuffer
	}
	if !dc.done {
		m, err := DualContour(dc.f, dc.cfg)
		if err != nil {
			return 0, err
		}
		dc.done = true
		for i := 0; i < m.Len(); i++ {
			dc.buf.buf = append(dc.buf.buf, m.Triangle(i))
		}
	}
	n = dc.buf.Read(dst)
	if dc.buf.Len() == 0 {
		return n, io.EOF
	}
	return n, nil
}
