//go:build !no_reid

package nnmodel

import (
	"fmt"

	"github.com/cyclopcam/nnkernel/pkg/nn"
)

// Re-identification: produces an embedding vector for the image crop,
// typically a person or vehicle crop cut out by an upstream detector.
const (
	reidWidth  = 80
	reidHeight = 160
)

func init() {
	register(ClassReID, newReID)
}

type reidModel struct {
	baseModel
}

func newReID(cfg FactoryConfig) (Model, error) {
	runner, err := openSession(cfg, ClassReID, reidWidth, reidHeight)
	if err != nil {
		return nil, err
	}
	return &reidModel{
		baseModel: baseModel{
			class:  ClassReID,
			name:   cfg.Name,
			runner: runner,
			labels: cfg.Labels,
			width:  reidWidth,
			height: reidHeight,
			log:    cfg.Log,
		},
	}, nil
}

func (m *reidModel) NeedsLabels() bool {
	return false
}

func (m *reidModel) Run(img nn.ImageView) (*nn.DetectionResult, error) {
	out, err := m.runner.Invoke(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrInferenceRun, m.name, err)
	}
	return &nn.DetectionResult{
		ModelClass:  m.class.String(),
		ModelName:   m.name,
		ImageWidth:  img.CropWidth,
		ImageHeight: img.CropHeight,
		Embedding:   out.Embedding,
	}, nil
}
