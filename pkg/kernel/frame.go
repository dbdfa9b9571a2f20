package kernel

import (
	"errors"
	"time"

	"github.com/cyclopcam/nnkernel/pkg/nn"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
)

// Frame is one video frame handed to Dispatch by the host pipeline. The
// pixel buffer belongs to the host; the kernel wraps it with its declared
// stride and never copies or retains it.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
	Stride int // Bytes per row; 0 means tightly packed (Width * 3)
	Format nn.PixelFormat
	PTS    time.Time

	// Meta is the frame's metadata attachment point. The inference result is
	// written here exactly once. A frame without one fails with
	// ErrMetadataAttachFailed.
	Meta MetadataSink

	// ModelSelect names the model to run on this frame. Required in
	// runtime-selection mode, ignored otherwise.
	ModelSelect *ModelSelection
}

// ModelSelection is the per-frame model selection record.
type ModelSelection struct {
	Class nnmodel.Class
	Name  string
}

func (f *Frame) stride() int {
	if f.Stride != 0 {
		return f.Stride
	}
	return f.Width * f.Format.NChan()
}

// MetadataSink is the write-once detection container of a frame. It is an
// external collaborator: the host pipeline decides where attached results go.
type MetadataSink interface {
	Attach(result *nn.DetectionResult) error
}

// ResultSink is the trivial MetadataSink: it holds the attached result.
// Attaching twice is an error, matching the write-once contract.
type ResultSink struct {
	Result *nn.DetectionResult
}

func (s *ResultSink) Attach(result *nn.DetectionResult) error {
	if s.Result != nil {
		return errors.New("result already attached to frame")
	}
	s.Result = result
	return nil
}
