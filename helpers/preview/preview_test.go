package preview

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite"
	"github.com/soypat/hermite/form3"
	"github.com/soypat/hermite/render"
	"gonum.org/v1/plot/cmpimg"
)

// imgDelta a normalized imgDelta parameter to describe how close the matching
// should be performed (imgDelta=0: perfect match, imgDelta=1, loose match)
const imgDelta = 0

func torusMesh(t *testing.T, workers int) render.Mesh {
	const n = 40
	tor, err := form3.NewTorus(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	bb := tor.Bounds()
	bb = ms3.NewCenteredBox(bb.Center(), ms3.AddScalar(1, bb.Size()))
	f, err := hermite.Sample(tor, bb, n, n, n, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, err := render.DualContour(f, render.Config{Workers: workers})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func encodePNG(t *testing.T, m render.Mesh, view View) []byte {
	img, err := Image(m, view)
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	err = png.Encode(&b, img)
	if err != nil {
		t.Fatal(err)
	}
	return b.Bytes()
}

func TestParallelPreviewMatches(t *testing.T) {
	view := DefaultView()
	view.Width, view.Height = 320, 240
	view.Supersample = 2
	seq := encodePNG(t, torusMesh(t, 1), view)
	par := encodePNG(t, torusMesh(t, 4), view)
	equal, err := cmpimg.EqualApprox("png", seq, par, imgDelta)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("parallel contour preview does not match sequential preview")
	}
}

func TestSTLToPNG(t *testing.T) {
	dir := t.TempDir()
	stlPath := filepath.Join(dir, "torus.stl")
	pngPath := filepath.Join(dir, "torus.png")
	fp, err := os.Create(stlPath)
	if err != nil {
		t.Fatal(err)
	}
	_, err = render.WriteBinarySTL(fp, torusMesh(t, 2))
	fp.Close()
	if err != nil {
		t.Fatal(err)
	}
	view := DefaultView()
	view.Width, view.Height = 160, 120
	err = STLToPNG(stlPath, pngPath, view)
	if err != nil {
		t.Fatal(err)
	}
	fp, err = os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()
	cfg, err := png.DecodeConfig(fp)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != view.Width || cfg.Height != view.Height {
		t.Errorf("got image size %dx%d. want %dx%d", cfg.Width, cfg.Height, view.Width, view.Height)
	}
}

func TestInvalidView(t *testing.T) {
	var m render.Mesh
	_, err := Image(m, DefaultView())
	if err == nil {
		t.Error("expected error for empty mesh")
	}
	m.AppendTriangle(ms3.Vec{}, ms3.Vec{X: 1}, ms3.Vec{Y: 1})
	view := DefaultView()
	view.Far = 0
	_, err = Image(m, view)
	if err == nil {
		t.Error("expected error for bad clipping planes")
	}
}
