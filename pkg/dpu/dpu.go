// Package dpu is the boundary to the accelerator runtime that executes model
// graphs. The kernel treats the runtime as opaque: it opens a session for a
// resolved artifact set, invokes it synchronously per frame, and closes it.
// Hardware-backed implementations live outside this module; deployments
// without hardware (and our tests) use the StubLoader.
package dpu

import (
	"github.com/cyclopcam/nnkernel/pkg/nn"
)

// OpenRequest describes the artifact set a session must be created from.
type OpenRequest struct {
	GraphPath      string // Serialized graph (.xmodel) or legacy compiled artifact (.elf)
	DescriptorPath string // The mandatory .prototxt-equivalent descriptor
	ModelClass     string // Model family hint, eg "CLASSIFICATION", "YOLOV3"
	InputWidth     int    // Native input width the model family expects
	InputHeight    int    // Native input height the model family expects
	NeedPreprocess bool   // True if the runtime must normalize/scale the input itself
}

// Loader opens accelerator sessions. One Loader is shared by all models of a
// kernel instance.
type Loader interface {
	Open(req OpenRequest) (Runner, error)
}

// Runner is one accelerator-resident model session. Invoke blocks until the
// accelerator completes; there is no mid-inference abort path. Close releases
// all accelerator state and is idempotent.
type Runner interface {
	Invoke(img nn.ImageView) (*Output, error)
	Close()
}

// Output is the raw, undecorated result of one Invoke call. The model variant
// that owns the session interprets it (applies labels, merges boxes, picks
// top-K scores).
type Output struct {
	Boxes     []Box     // Detector families
	Scores    []Score   // Classification
	Embedding []float32 // Re-identification
}

// Box is one raw detection box in frame coordinates.
type Box struct {
	Class      int
	Confidence float32
	X          int32
	Y          int32
	Width      int32
	Height     int32
}

// Score is one raw classification score.
type Score struct {
	Class      int
	Confidence float32
}
