package kernel_test

import (
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/nnkernel/pkg/dpu"
	"github.com/cyclopcam/nnkernel/pkg/kernel"
	"github.com/cyclopcam/nnkernel/pkg/nn"
	"github.com/stretchr/testify/require"
)

func newDetectorKernel(t *testing.T, loader *dpu.StubLoader) *kernel.Kernel {
	t.Helper()
	root := setupModels(t)
	k, err := kernel.New(kernelConfig(t, map[string]any{
		"model-path":  root,
		"model-class": "YOLOV3",
		"model-name":  "yolov3",
	}), loader, logs.NewTestingLog(t))
	require.NoError(t, err)
	t.Cleanup(func() { k.Deinit() })
	return k
}

func TestDispatchTiledSingleTile(t *testing.T) {
	// A box hanging over the frame edge gets clipped to the frame
	loader := &dpu.StubLoader{
		Output: dpu.Output{
			Boxes: []dpu.Box{{Class: 0, Confidence: 0.9, X: 400, Y: 400, Width: 100, Height: 100}},
		},
	}
	k := newDetectorKernel(t, loader)

	frame := testFrame(416, 416, nn.FormatBGR8)
	require.NoError(t, k.DispatchTiled(frame))
	result := sinkResult(frame)
	require.Len(t, result.Objects, 1)
	require.Equal(t, nn.Rect{X: 400, Y: 400, Width: 16, Height: 16}, result.Objects[0].Box)
	require.Equal(t, uint64(1), k.FramesProcessed())
}

func TestDispatchTiledLargeFrame(t *testing.T) {
	loader := &dpu.StubLoader{
		Output: dpu.Output{
			Boxes: []dpu.Box{{Class: 0, Confidence: 0.8, X: 10, Y: 10, Width: 50, Height: 50}},
		},
	}
	k := newDetectorKernel(t, loader)

	// Much larger than the model's 416x416 input: multiple tiles run, and
	// every merged box stays inside the frame.
	width, height := 1200, 900
	frame := testFrame(width, height, nn.FormatBGR8)
	require.NoError(t, k.DispatchTiled(frame))
	result := sinkResult(frame)
	require.NotEmpty(t, result.Objects)
	require.Greater(t, len(result.Objects), 1)
	for _, obj := range result.Objects {
		require.GreaterOrEqual(t, obj.Box.X, int32(0))
		require.GreaterOrEqual(t, obj.Box.Y, int32(0))
		require.LessOrEqual(t, obj.Box.X2(), int32(width))
		require.LessOrEqual(t, obj.Box.Y2(), int32(height))
	}
}
