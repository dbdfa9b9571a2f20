package dpu

import (
	"errors"
	"sync/atomic"

	"github.com/cyclopcam/nnkernel/pkg/nn"
)

// StubLoader is a Loader with no hardware behind it. Every session it opens
// returns the canned Output configured on the loader. Used by unit tests and
// by the CLI frame runner.
type StubLoader struct {
	Output  Output // Returned by every Invoke
	OpenErr error  // If set, Open fails with this error
	RunErr  error  // If set, Invoke fails with this error

	opens atomic.Int64
}

// Opens returns the number of sessions opened so far. Tests use this to
// verify that the runtime model cache constructs each (class, name) pair
// exactly once.
func (s *StubLoader) Opens() int64 {
	return s.opens.Load()
}

func (s *StubLoader) Open(req OpenRequest) (Runner, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	s.opens.Add(1)
	return &stubRunner{loader: s}, nil
}

type stubRunner struct {
	loader *StubLoader
	closed atomic.Bool
}

func (r *stubRunner) Invoke(img nn.ImageView) (*Output, error) {
	if r.closed.Load() {
		return nil, errors.New("invoke on closed session")
	}
	if r.loader.RunErr != nil {
		return nil, r.loader.RunErr
	}
	out := r.loader.Output
	return &out, nil
}

func (r *stubRunner) Close() {
	r.closed.Store(true)
}
