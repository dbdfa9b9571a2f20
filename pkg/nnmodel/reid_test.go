//go:build !no_reid

package nnmodel_test

import (
	"testing"

	"github.com/cyclopcam/nnkernel/pkg/dpu"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
	"github.com/stretchr/testify/require"
)

func TestReIDSupported(t *testing.T) {
	require.True(t, nnmodel.Supported(nnmodel.ClassReID))
}

func TestReIDEmbedding(t *testing.T) {
	loader := &dpu.StubLoader{
		Output: dpu.Output{Embedding: []float32{0.1, 0.2, 0.3}},
	}
	model, err := nnmodel.Create(nnmodel.ClassReID, factoryConfig(t, loader, nil))
	require.NoError(t, err)
	defer model.Close()

	require.Equal(t, 80, model.RequiredWidth())
	require.Equal(t, 160, model.RequiredHeight())

	result, err := model.Run(testImage(80, 160))
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, result.Embedding)
	require.Empty(t, result.Objects)
}
