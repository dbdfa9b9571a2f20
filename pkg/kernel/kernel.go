// Package kernel is the entry point the host pipeline calls: it owns model
// lifecycle (init, per-frame dispatch, deinit), the runtime model cache, and
// streaming performance accounting.
//
// A Kernel is single-threaded by contract: the host serializes Dispatch calls
// on one instance. Hosts that want concurrent dispatch run multiple kernel
// instances, each with disjoint models, cache and counters.
package kernel

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/nnkernel/pkg/dpu"
	"github.com/cyclopcam/nnkernel/pkg/nn"
	"github.com/cyclopcam/nnkernel/pkg/nncaps"
	"github.com/cyclopcam/nnkernel/pkg/nnlabel"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
	"github.com/cyclopcam/nnkernel/pkg/perfstats"
)

// Per-frame failures. The frame's result is dropped, the kernel stays alive,
// and the next frame is still attempted.
var (
	ErrUnsupportedFrameFormat = errors.New("unsupported frame pixel format")
	ErrMetadataAttachFailed   = errors.New("frame has no metadata attachment point")
	ErrRuntimeModelResolution = errors.New("runtime model resolution failed")
)

// ErrNotInitialized is returned by Dispatch after Deinit.
var ErrNotInitialized = errors.New("kernel is not initialized")

type kernelState int

const (
	stateInitialized kernelState = iota
	stateDeinitialized
)

// Kernel is one configured inference engine instance.
type Kernel struct {
	log logs.Log
	// perfLog bypasses the debug_level filter: performance reports are
	// opted into via performance_test and print at any verbosity.
	perfLog logs.Log
	loader  dpu.Loader
	desc    *nnmodel.Descriptor
	caps    *nncaps.Caps

	// Fixed mode: the one model built at init, owned by the kernel.
	fixedModel  nnmodel.Model
	fixedLabels *nnlabel.Table

	// Runtime-selection mode: every model built so far, owned by the cache.
	cache *modelCache

	perf      perfstats.RateTracker
	inferTime perfstats.TimeAccumulator
	state     kernelState
	now       func() time.Time
}

// New builds a kernel from its raw configuration document. In fixed mode the
// configured model, its labels and its capabilities are built eagerly; any
// failure releases everything acquired so far and returns a typed error - the
// kernel is never left half-initialized.
func New(configJSON []byte, loader dpu.Loader, logger logs.Log) (*Kernel, error) {
	raw, err := nnmodel.ParseRawConfig(configJSON)
	if err != nil {
		return nil, err
	}
	desc, err := nnmodel.ResolveDescriptor(raw, logger)
	if err != nil {
		return nil, err
	}
	// debug_level filters everything the kernel logs from here on
	rawLog := logger
	logger = NewLeveledLog(logger, desc.DebugLevel)
	k := &Kernel{
		log:     logger,
		perfLog: rawLog,
		loader:  loader,
		desc:    desc,
		cache:   newModelCache(),
		state:   stateInitialized,
		now:     time.Now,
	}
	if !desc.RuntimeModelSelection {
		model, labels, err := k.buildModel(desc.Class, desc.Name)
		if err != nil {
			logger.Errorf("Model init failed for %v %q: %v", desc.Class, desc.Name, err)
			return nil, err
		}
		k.fixedModel = model
		k.fixedLabels = labels
	}
	return k, nil
}

// buildModel resolves artifacts, loads labels if present, constructs the
// model through the catalog, and publishes its capabilities. On failure
// nothing is leaked: the catalog's factories close any session they opened.
func (k *Kernel) buildModel(class nnmodel.Class, name string) (nnmodel.Model, *nnlabel.Table, error) {
	art, err := nnmodel.ResolveArtifacts(k.desc.Path, name)
	if err != nil {
		return nil, nil, err
	}

	var labels *nnlabel.Table
	if art.HasLabels() {
		labels, err = nnlabel.Load(art.LabelPath)
		if err != nil {
			// Fatal only if the model variant requires labels; the catalog
			// rejects a nil table in that case.
			k.log.Errorf("Loading labels for %v: %v", name, err)
			labels = nil
		} else {
			k.log.Debugf("Loaded %v labels for %v", labels.Len(), name)
		}
	}

	model, err := nnmodel.Create(class, nnmodel.FactoryConfig{
		Desc:      k.desc,
		Name:      name,
		Artifacts: art,
		Labels:    labels,
		Loader:    k.loader,
		Log:       k.log,
	})
	if err != nil {
		return nil, nil, err
	}

	k.caps = nncaps.Negotiate(model, k.desc.Format)
	if k.desc.DebugLevel >= nnmodel.DebugLevelDebug {
		k.caps.Print(k.log)
	}
	return model, labels, nil
}

// activeModel returns the model to run on this frame: the fixed model, or in
// runtime-selection mode the cache-resolved model named by the frame's
// selection metadata.
func (k *Kernel) activeModel(frame *Frame) (nnmodel.Model, error) {
	if !k.desc.RuntimeModelSelection {
		return k.fixedModel, nil
	}
	if frame.ModelSelect == nil {
		return nil, fmt.Errorf("%w: frame carries no model selection metadata", ErrRuntimeModelResolution)
	}
	entry, err := k.cache.resolve(frame.ModelSelect.Class, frame.ModelSelect.Name, k.buildModel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v %q: %w", ErrRuntimeModelResolution, frame.ModelSelect.Class, frame.ModelSelect.Name, err)
	}
	return entry.model, nil
}

// Dispatch runs inference on one frame and attaches the result to the frame's
// metadata. Errors returned here are per-frame: the frame is dropped from the
// detection stream, the kernel stays alive, and the counters are untouched.
func (k *Kernel) Dispatch(frame *Frame) error {
	return k.dispatch(frame, false)
}

func (k *Kernel) dispatch(frame *Frame, tiled bool) error {
	if k.state != stateInitialized {
		return ErrNotInitialized
	}
	model, err := k.activeModel(frame)
	if err != nil {
		k.log.Errorf("Dispatch: %v", err)
		return err
	}
	if frame.Format != nn.FormatBGR8 && frame.Format != nn.FormatRGB8 {
		err := fmt.Errorf("%w: %v", ErrUnsupportedFrameFormat, frame.Format)
		k.log.Errorf("Dispatch: %v", err)
		return err
	}
	if frame.Meta == nil {
		k.log.Errorf("Dispatch: %v", ErrMetadataAttachFailed)
		return ErrMetadataAttachFailed
	}

	if frame.Width != model.RequiredWidth() || frame.Height != model.RequiredHeight() {
		// Scaling is the accelerator runtime's job, so a mismatch is a
		// warning, not a failure.
		k.log.Warnf("Input %vx%v does not match model %q requirement %vx%v",
			frame.Width, frame.Height, model.Name(), model.RequiredWidth(), model.RequiredHeight())
	}

	img := nn.WrapFrame(frame.Format, frame.Pixels, frame.Width, frame.Height, frame.stride())

	runStart := k.now()
	var result *nn.DetectionResult
	if tiled {
		objects, err := tiledRun(model, img)
		if err != nil {
			k.log.Errorf("Tiled model run failed for %q: %v", model.Name(), err)
			return err
		}
		result = &nn.DetectionResult{
			ModelClass:  model.Class().String(),
			ModelName:   model.Name(),
			ImageWidth:  frame.Width,
			ImageHeight: frame.Height,
			Objects:     objects,
		}
	} else {
		result, err = model.Run(img)
		if err != nil {
			k.log.Errorf("Model run failed for %q: %v", model.Name(), err)
			return err
		}
	}
	result.FramePTS = frame.PTS

	if err := frame.Meta.Attach(result); err != nil {
		err = fmt.Errorf("%w: %v", ErrMetadataAttachFailed, err)
		k.log.Errorf("Dispatch: %v", err)
		return err
	}

	now := k.now()
	k.inferTime.AddSample(now.Sub(runStart))
	if !k.perf.Started() {
		k.perf.Start(now)
	}
	if fps, report := k.perf.AddFrame(now); report && k.desc.PerformanceTest {
		k.perfLog.Infof("frame=%5v fps=%6.2f inference=%v", k.perf.Frames, fps, k.inferTime.Average())
	}
	return nil
}

// Deinit releases every cached model and label table and, if performance
// tracking was enabled and a session started, emits the final throughput
// summary. Idempotent: calling it again (or with no session) is a no-op
// returning success.
func (k *Kernel) Deinit() error {
	if k.state != stateInitialized {
		return nil
	}
	if k.desc.PerformanceTest && k.perf.Started() {
		k.perfLog.Infof("session: frames=%v fps=%6.2f inference=%v", k.perf.Frames, k.perf.SessionAverage(k.now()), k.inferTime.Average())
	}
	k.perf.Reset()
	k.inferTime.Reset()

	k.cache.closeAll()
	if k.fixedModel != nil {
		k.fixedModel.Close()
		k.fixedModel = nil
	}
	k.fixedLabels = nil
	k.caps = nil
	k.state = stateDeinitialized
	return nil
}

// Caps returns the capability set published for the most recently built
// model, or nil before any model exists (runtime-selection mode before the
// first frame).
func (k *Kernel) Caps() *nncaps.Caps {
	return k.caps
}

// Descriptor returns the kernel's validated configuration.
func (k *Kernel) Descriptor() *nnmodel.Descriptor {
	return k.desc
}

// FramesProcessed returns the number of successfully dispatched frames this
// session.
func (k *Kernel) FramesProcessed() uint64 {
	return k.perf.Frames
}

// CachedModels returns the number of models resolved so far in
// runtime-selection mode.
func (k *Kernel) CachedModels() int {
	return k.cache.len()
}
