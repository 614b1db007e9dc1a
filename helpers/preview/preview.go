// Package preview rasterizes meshes to PNG images with a software renderer
// for visual inspection of contouring output.
package preview

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/hermite/render"
)

// View configures the camera and output image of a preview.
type View struct {
	// what position (point) to look at
	LookAt ms3.Vec
	// which way is up (direction)
	Up ms3.Vec
	// where the camera/eye located at (point)
	Eye       ms3.Vec
	Near, Far float64
	// Output width and height in pixels.
	Width, Height int
	// Supersample renders at Supersample times the output size and downsamples for antialiasing.
	Supersample int
}

// DefaultView looks at the origin from (3,3,3) with Z up. Meshes are fit into
// the bi-unit cube before rendering so this view frames any mesh.
func DefaultView() View {
	return View{
		Up:          ms3.Vec{Z: 1},
		Eye:         ms3.Vec{X: 3, Y: 3, Z: 3},
		Near:        1,
		Far:         10,
		Width:       800,
		Height:      600,
		Supersample: 1,
	}
}

// Image renders m as seen from view using a phong shader.
func Image(m render.Mesh, view View) (image.Image, error) {
	if m.Len() == 0 {
		return nil, errors.New("empty mesh")
	}
	triangles := make([]*fauxgl.Triangle, m.Len())
	for i := range triangles {
		t := m.Triangle(i)
		n := fvec(m.Normal(i))
		triangles[i] = fauxgl.NewTriangle(
			fauxgl.Vertex{Position: fvec(t[0]), Normal: n},
			fauxgl.Vertex{Position: fvec(t[1]), Normal: n},
			fauxgl.Vertex{Position: fvec(t[2]), Normal: n},
		)
	}
	return draw(fauxgl.NewTriangleMesh(triangles), view)
}

// STLToPNG renders the binary STL file at stlName and saves it as a PNG at outputname.
func STLToPNG(stlName, outputname string, view View) error {
	mesh, err := fauxgl.LoadSTL(stlName)
	if err != nil {
		return err
	}
	img, err := draw(mesh, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(outputname, img)
}

// SavePNG renders m and saves the image as a PNG at outputname.
func SavePNG(outputname string, m render.Mesh, view View) error {
	img, err := Image(m, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(outputname, img)
}

func draw(mesh *fauxgl.Mesh, view View) (image.Image, error) {
	if view.Width <= 0 || view.Height <= 0 {
		return nil, errors.New("invalid preview image size")
	} else if view.Near <= 0 || view.Far <= view.Near {
		return nil, errors.New("invalid preview clipping planes")
	}
	scale := max(view.Supersample, 1)
	const fovy = 30 // vertical field of view in degrees
	var (
		eye    = fvec(view.Eye)                       // camera position
		center = fvec(view.LookAt)                    // view center position
		up     = fvec(view.Up)                        // up vector
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize() // light direction
		color  = fauxgl.HexColor("#468966")           // object color
	)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(view.Width*scale, view.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	img := context.Image()
	if scale > 1 {
		// downsample image for antialiasing
		img = resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear)
	}
	return img, nil
}

func fvec(v ms3.Vec) fauxgl.Vector {
	return fauxgl.V(float64(v.X), float64(v.Y), float64(v.Z))
}
