package nnmodel

import "errors"

// Initialization-time failures. These abort kernel startup, or fail a single
// frame's model resolution in runtime-selection mode.
var (
	ErrUnsupportedFormat     = errors.New("unsupported model format")
	ErrModelPathNotFound     = errors.New("model path not found")
	ErrUnknownModelClass     = errors.New("unknown model class")
	ErrUnsupportedModelClass = errors.New("model class not supported in this build")
	ErrModelArtifactNotFound = errors.New("model artifact not found")
	ErrModelInit             = errors.New("model init failed")
	ErrMissingRequiredLabels = errors.New("model requires labels but none could be loaded")
)

// ErrInferenceRun is a per-frame failure: the frame's result is dropped and
// the kernel stays alive.
var ErrInferenceRun = errors.New("inference run failed")
