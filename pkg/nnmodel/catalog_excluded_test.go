//go:build no_reid

package nnmodel_test

import (
	"testing"

	"github.com/cyclopcam/nnkernel/pkg/dpu"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
	"github.com/stretchr/testify/require"
)

// With the reid variant excluded from the build, its class id still exists in
// the enum but has no factory: requesting it must fail with the
// not-in-this-build error, which is distinct from an identifier the enum has
// never heard of.
func TestCreateExcludedClass(t *testing.T) {
	require.False(t, nnmodel.Supported(nnmodel.ClassReID))

	loader := &dpu.StubLoader{}
	_, err := nnmodel.Create(nnmodel.ClassReID, factoryConfig(t, loader, nil))
	require.ErrorIs(t, err, nnmodel.ErrUnsupportedModelClass)
	require.NotErrorIs(t, err, nnmodel.ErrUnknownModelClass)
	require.Equal(t, int64(0), loader.Opens())

	_, err = nnmodel.Create(nnmodel.Class(99), factoryConfig(t, loader, nil))
	require.ErrorIs(t, err, nnmodel.ErrUnknownModelClass)
}
