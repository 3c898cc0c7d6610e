// Command heightmap renders an implicit solid to a depth/normal PNG
// pair over a voxel grid, driving the heightmap.Render entry point with
// a shape selected by flag. Grounded on the teacher's examples/*/main.go
// convention of a flat main building a scene and calling a single
// renderer entry point.
package main

import (
	"flag"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/soypat/glgl/math/ms3"
	"github.com/vxlcast/heightmap/evalcpu"
	"github.com/vxlcast/heightmap/heightmap"
	"github.com/vxlcast/heightmap/imageio"
	"github.com/vxlcast/heightmap/voxel"
)

func main() {
	shape := flag.String("shape", "sphere", "implicit solid to render: sphere, box, or halfspace")
	res := flag.Float64("res", 0.05, "voxel grid spacing")
	bound := flag.Float64("bound", 1.5, "half-width of the cubic grid bounds")
	workers := flag.Int("workers", 4, "worker count")
	depthOut := flag.String("depth-out", "depth.png", "depth image output path")
	normOut := flag.String("norm-out", "normal.png", "normal image output path")
	abortAfter := flag.Duration("abort-after", 0, "if set, flips the abort flag after this delay")
	flag.Parse()

	tree, err := buildTree(*shape)
	if err != nil {
		log.Fatal(err)
	}

	b := float32(*bound)
	grid, err := voxel.NewUniformGrid(
		ms3.Vec{X: -b, Y: -b, Z: -b},
		ms3.Vec{X: b, Y: b, Z: b},
		float32(*res),
	)
	if err != nil {
		log.Fatal(err)
	}

	var abort atomic.Bool
	if *abortAfter > 0 {
		go func() {
			time.Sleep(*abortAfter)
			abort.Store(true)
		}()
	}

	depth, norm, err := heightmap.Render(tree, grid, &abort, nil, *workers)
	if err != nil {
		log.Fatal(err)
	}

	if err := writePNG(*depthOut, func(f *os.File) error { return imageio.WriteDepthPNG(f, depth) }); err != nil {
		log.Fatal(err)
	}
	if err := writePNG(*normOut, func(f *os.File) error { return imageio.WriteNormalPNG(f, norm) }); err != nil {
		log.Fatal(err)
	}
}

func buildTree(shape string) (evalcpu.Tree, error) {
	switch shape {
	case "sphere":
		return evalcpu.Tree{Root: evalcpu.NewSphere(1)}, nil
	case "box":
		return evalcpu.Tree{Root: evalcpu.NewBox(ms3.Vec{X: 0.6, Y: 0.8, Z: 1})}, nil
	case "halfspace":
		return evalcpu.Tree{Root: evalcpu.NewHalfSpace(ms3.Vec{Z: 1}, 0)}, nil
	default:
		return evalcpu.Tree{}, &unknownShapeError{shape: shape}
	}
}

type unknownShapeError struct{ shape string }

func (e *unknownShapeError) Error() string {
	return "heightmap: unknown -shape " + e.shape + " (want sphere, box, or halfspace)"
}

func writePNG(path string, enc func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return enc(f)
}
