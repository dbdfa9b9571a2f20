//go:build !no_classification

package nnmodel

import (
	"fmt"
	"sort"

	"github.com/cyclopcam/nnkernel/pkg/dpu"
	"github.com/cyclopcam/nnkernel/pkg/nn"
)

// Whole-image classification (eg resnet50).
// Native input size is fixed for the family.
const (
	classificationWidth  = 224
	classificationHeight = 224

	// Number of top scores reported per image
	classificationTopK = 5
)

func init() {
	register(ClassClassification, newClassification)
}

type classificationModel struct {
	baseModel
}

func newClassification(cfg FactoryConfig) (Model, error) {
	runner, err := openSession(cfg, ClassClassification, classificationWidth, classificationHeight)
	if err != nil {
		return nil, err
	}
	return &classificationModel{
		baseModel: baseModel{
			class:  ClassClassification,
			name:   cfg.Name,
			runner: runner,
			labels: cfg.Labels,
			width:  classificationWidth,
			height: classificationHeight,
			log:    cfg.Log,
		},
	}, nil
}

// Labels are optional: without a table, Lookup synthesizes numeric names.
func (m *classificationModel) NeedsLabels() bool {
	return false
}

func (m *classificationModel) Run(img nn.ImageView) (*nn.DetectionResult, error) {
	out, err := m.runner.Invoke(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrInferenceRun, m.name, err)
	}

	scores := make([]dpu.Score, len(out.Scores))
	copy(scores, out.Scores)
	sort.Slice(scores, func(i, j int) bool { return scores[i].Confidence > scores[j].Confidence })
	if len(scores) > classificationTopK {
		scores = scores[:classificationTopK]
	}

	result := &nn.DetectionResult{
		ModelClass:  m.class.String(),
		ModelName:   m.name,
		ImageWidth:  img.CropWidth,
		ImageHeight: img.CropHeight,
	}
	for _, s := range scores {
		record := m.labels.Lookup(s.Class)
		result.Classifications = append(result.Classifications, nn.Classification{
			Class:       s.Class,
			Confidence:  s.Confidence,
			Name:        record.Name,
			DisplayName: record.DisplayName,
		})
	}
	return result, nil
}
