package nnmodel

import (
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/nnkernel/pkg/dpu"
	"github.com/cyclopcam/nnkernel/pkg/nn"
	"github.com/cyclopcam/nnkernel/pkg/nnlabel"
)

// Model is the contract every model variant implements.
//
// Lifecycle per instance: constructed by the catalog, capabilities published
// (RequiredWidth/Height never change after construction), zero or more Run
// calls, then Close. There is no transition back from closed.
type Model interface {
	// Class returns the family this model belongs to.
	Class() Class

	// Name returns the model's artifact name, eg "resnet50".
	Name() string

	// RequiredWidth and RequiredHeight are the model's native input size,
	// fixed per variant. Used for capability negotiation.
	RequiredWidth() int
	RequiredHeight() int

	// NeedsLabels reports whether this variant cannot produce meaningful
	// results without a label table.
	NeedsLabels() bool

	// Run executes inference on the image and returns the structured result.
	// It blocks until the accelerator completes, and must not retain img.
	// On accelerator failure the error wraps ErrInferenceRun and no result
	// is returned; the caller drops the frame and keeps going.
	Run(img nn.ImageView) (*nn.DetectionResult, error)

	// Close releases all accelerator-resident state. Idempotent, and safe to
	// call even if construction only partially succeeded.
	Close()
}

// FactoryConfig is everything a variant factory needs to construct a model.
type FactoryConfig struct {
	Desc      *Descriptor
	Name      string // Model name; equals Desc.Name in fixed mode
	Artifacts Artifacts
	Labels    *nnlabel.Table // May be nil; factories reject nil if they need labels
	Loader    dpu.Loader
	Log       logs.Log
}

// baseModel carries the state common to every variant.
type baseModel struct {
	class  Class
	name   string
	runner dpu.Runner
	labels *nnlabel.Table
	width  int
	height int
	log    logs.Log
	closed bool
}

func (m *baseModel) Class() Class {
	return m.class
}

func (m *baseModel) Name() string {
	return m.name
}

func (m *baseModel) RequiredWidth() int {
	return m.width
}

func (m *baseModel) RequiredHeight() int {
	return m.height
}

func (m *baseModel) Close() {
	if m.closed {
		return
	}
	m.closed = true
	if m.runner != nil {
		m.runner.Close()
		m.runner = nil
	}
}

// openSession opens the accelerator session for a variant with native input
// size width x height.
func openSession(cfg FactoryConfig, class Class, width, height int) (dpu.Runner, error) {
	return cfg.Loader.Open(dpu.OpenRequest{
		GraphPath:      cfg.Artifacts.GraphPath,
		DescriptorPath: cfg.Artifacts.DescriptorPath,
		ModelClass:     class.String(),
		InputWidth:     width,
		InputHeight:    height,
		NeedPreprocess: cfg.Desc.NeedPreprocess,
	})
}
