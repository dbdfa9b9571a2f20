//go:build !no_detectors

package nnmodel

import (
	"fmt"

	"github.com/cyclopcam/nnkernel/pkg/nn"
)

// The object detector families. They differ in native input size and in
// whether labels are meaningful (face detection emits a single implicit
// class), but share their run path: invoke the accelerator, merge duplicate
// boxes, annotate with label names when a table is present.

type detectorSpec struct {
	class       Class
	width       int
	height      int
	needsLabels bool
}

func init() {
	for _, spec := range []detectorSpec{
		{class: ClassYoloV2, width: 448, height: 448, needsLabels: false},
		{class: ClassYoloV3, width: 416, height: 416, needsLabels: false},
		{class: ClassSSD, width: 300, height: 300, needsLabels: false},
		// The TF-SSD and RefineDet postprocessors are label-driven, so these
		// two families cannot run without a label table.
		{class: ClassTFSSD, width: 300, height: 300, needsLabels: true},
		{class: ClassRefineDet, width: 480, height: 360, needsLabels: true},
		{class: ClassFaceDetect, width: 320, height: 320, needsLabels: false},
	} {
		spec := spec
		register(spec.class, func(cfg FactoryConfig) (Model, error) {
			return newDetector(spec, cfg)
		})
	}
}

type detectorModel struct {
	baseModel
	needsLabels bool
}

func newDetector(spec detectorSpec, cfg FactoryConfig) (Model, error) {
	if spec.needsLabels && cfg.Labels == nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingRequiredLabels, cfg.Name)
	}
	runner, err := openSession(cfg, spec.class, spec.width, spec.height)
	if err != nil {
		return nil, err
	}
	return &detectorModel{
		baseModel: baseModel{
			class:  spec.class,
			name:   cfg.Name,
			runner: runner,
			labels: cfg.Labels,
			width:  spec.width,
			height: spec.height,
			log:    cfg.Log,
		},
		needsLabels: spec.needsLabels,
	}, nil
}

func (m *detectorModel) NeedsLabels() bool {
	return m.needsLabels
}

func (m *detectorModel) Run(img nn.ImageView) (*nn.DetectionResult, error) {
	out, err := m.runner.Invoke(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrInferenceRun, m.name, err)
	}

	objects := make([]nn.ObjectDetection, 0, len(out.Boxes))
	for _, b := range out.Boxes {
		obj := nn.ObjectDetection{
			Class:      b.Class,
			Confidence: b.Confidence,
			Box:        nn.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height},
		}
		if m.labels != nil {
			obj.Label = m.labels.Lookup(b.Class).DisplayName
		}
		objects = append(objects, obj)
	}
	objects = nn.MergeDuplicateBoxes(objects, nn.DefaultMergeIoU)

	return &nn.DetectionResult{
		ModelClass:  m.class.String(),
		ModelName:   m.name,
		ImageWidth:  img.CropWidth,
		ImageHeight: img.CropHeight,
		Objects:     objects,
	}, nil
}
