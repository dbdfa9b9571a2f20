package nnmodel_test

import (
	"errors"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/nnkernel/pkg/dpu"
	"github.com/cyclopcam/nnkernel/pkg/nn"
	"github.com/cyclopcam/nnkernel/pkg/nnlabel"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
	"github.com/stretchr/testify/require"
)

func factoryConfig(t *testing.T, loader dpu.Loader, labels *nnlabel.Table) nnmodel.FactoryConfig {
	t.Helper()
	return nnmodel.FactoryConfig{
		Desc: &nnmodel.Descriptor{
			Format:         nn.FormatBGR8,
			NeedPreprocess: true,
		},
		Name:   "testmodel",
		Labels: labels,
		Loader: loader,
		Log:    logs.NewTestingLog(t),
	}
}

func testImage(width, height int) nn.ImageView {
	return nn.WrapFrame(nn.FormatBGR8, make([]byte, width*height*3), width, height, width*3)
}

func TestCreateClassification(t *testing.T) {
	loader := &dpu.StubLoader{
		Output: dpu.Output{
			Scores: []dpu.Score{
				{Class: 3, Confidence: 0.2},
				{Class: 1, Confidence: 0.9},
				{Class: 0, Confidence: 0.5},
			},
		},
	}
	labels := &nnlabel.Table{
		Records: []nnlabel.Record{
			{Index: 0, Name: "dog", DisplayName: "Dog"},
			{Index: 1, Name: "cat", DisplayName: "Cat"},
			{Index: 2, Name: "bird", DisplayName: "Bird"},
			{Index: 3, Name: "fish", DisplayName: "Fish"},
		},
	}
	model, err := nnmodel.Create(nnmodel.ClassClassification, factoryConfig(t, loader, labels))
	require.NoError(t, err)
	defer model.Close()

	require.Equal(t, 224, model.RequiredWidth())
	require.Equal(t, 224, model.RequiredHeight())
	require.Equal(t, int64(1), loader.Opens())

	result, err := model.Run(testImage(224, 224))
	require.NoError(t, err)
	require.Equal(t, "CLASSIFICATION", result.ModelClass)
	require.Len(t, result.Classifications, 3)
	// Sorted by descending confidence, annotated from the label table
	require.Equal(t, "cat", result.Classifications[0].Name)
	require.Equal(t, float32(0.9), result.Classifications[0].Confidence)
	require.Equal(t, "Dog", result.Classifications[1].DisplayName)
	require.Equal(t, "fish", result.Classifications[2].Name)

	// Close is idempotent
	model.Close()
	model.Close()
}

func TestCreateClassificationWithoutLabels(t *testing.T) {
	loader := &dpu.StubLoader{
		Output: dpu.Output{Scores: []dpu.Score{{Class: 7, Confidence: 0.8}}},
	}
	model, err := nnmodel.Create(nnmodel.ClassClassification, factoryConfig(t, loader, nil))
	require.NoError(t, err)
	defer model.Close()

	result, err := model.Run(testImage(224, 224))
	require.NoError(t, err)
	require.Equal(t, "class-7", result.Classifications[0].Name)
}

func TestCreateDetector(t *testing.T) {
	loader := &dpu.StubLoader{
		Output: dpu.Output{
			Boxes: []dpu.Box{
				{Class: 0, Confidence: 0.8, X: 10, Y: 10, Width: 50, Height: 80},
				{Class: 0, Confidence: 0.9, X: 12, Y: 10, Width: 50, Height: 80},
				{Class: 1, Confidence: 0.6, X: 200, Y: 100, Width: 30, Height: 30},
			},
		},
	}
	labels := &nnlabel.Table{
		Records: []nnlabel.Record{
			{Index: 0, Name: "person", DisplayName: "Person"},
			{Index: 1, Name: "car", DisplayName: "Car"},
		},
	}
	model, err := nnmodel.Create(nnmodel.ClassYoloV3, factoryConfig(t, loader, labels))
	require.NoError(t, err)
	defer model.Close()

	require.Equal(t, 416, model.RequiredWidth())
	require.Equal(t, 416, model.RequiredHeight())

	result, err := model.Run(testImage(416, 416))
	require.NoError(t, err)
	// The two overlapping person boxes merge into one
	require.Len(t, result.Objects, 2)
	require.Equal(t, "Person", result.Objects[0].Label)
	require.Equal(t, float32(0.9), result.Objects[0].Confidence)
	require.Equal(t, "Car", result.Objects[1].Label)
}

func TestCreateRequiresLabels(t *testing.T) {
	loader := &dpu.StubLoader{}
	_, err := nnmodel.Create(nnmodel.ClassTFSSD, factoryConfig(t, loader, nil))
	require.ErrorIs(t, err, nnmodel.ErrModelInit)
	require.ErrorIs(t, err, nnmodel.ErrMissingRequiredLabels)
	// The factory failed before opening a session, so nothing leaked
	require.Equal(t, int64(0), loader.Opens())
}

func TestCreateUnknownClass(t *testing.T) {
	_, err := nnmodel.Create(nnmodel.Class(99), factoryConfig(t, &dpu.StubLoader{}, nil))
	require.ErrorIs(t, err, nnmodel.ErrUnknownModelClass)
}

func TestCreateSessionOpenFails(t *testing.T) {
	loader := &dpu.StubLoader{OpenErr: errors.New("device busy")}
	_, err := nnmodel.Create(nnmodel.ClassSSD, factoryConfig(t, loader, nil))
	require.ErrorIs(t, err, nnmodel.ErrModelInit)
}

func TestRunFails(t *testing.T) {
	loader := &dpu.StubLoader{RunErr: errors.New("dpu fault")}
	model, err := nnmodel.Create(nnmodel.ClassYoloV3, factoryConfig(t, loader, nil))
	require.NoError(t, err)
	defer model.Close()

	result, err := model.Run(testImage(416, 416))
	require.ErrorIs(t, err, nnmodel.ErrInferenceRun)
	require.Nil(t, result)
}

func TestSupported(t *testing.T) {
	for _, class := range []nnmodel.Class{
		nnmodel.ClassClassification, nnmodel.ClassYoloV2, nnmodel.ClassYoloV3,
		nnmodel.ClassSSD, nnmodel.ClassTFSSD, nnmodel.ClassRefineDet,
		nnmodel.ClassFaceDetect,
	} {
		require.True(t, nnmodel.Supported(class), "%v", class)
	}
	require.False(t, nnmodel.Supported(nnmodel.ClassUnknown))
}
