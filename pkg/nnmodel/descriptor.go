package nnmodel

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/nnkernel/pkg/nn"
)

// DefaultModelPath is used when the configuration omits model-path.
// It must still exist on disk, or descriptor resolution fails.
const DefaultModelPath = "/usr/share/cyclops/models/"

// Log verbosity configured via debug_level. Gates the kernel's own debug
// output, such as capability dumps.
const (
	DebugLevelError   = 0
	DebugLevelWarning = 1
	DebugLevelInfo    = 2
	DebugLevelDebug   = 3
)

// RawConfig is the key/value configuration document handed to the kernel by
// the host pipeline. Pointer fields distinguish "absent" from "zero", so each
// key can fall back to its documented default.
type RawConfig struct {
	DebugLevel      *int    `json:"debug_level"`
	RunTimeModel    *bool   `json:"run_time_model"`
	PerformanceTest *bool   `json:"performance_test"`
	NeedPreprocess  *bool   `json:"need_preprocess"`
	ModelFormat     *string `json:"model-format"`
	ModelPath       *string `json:"model-path"`
	ModelClass      *string `json:"model-class"`
	ModelName       *string `json:"model-name"`
}

// ParseRawConfig decodes the configuration document.
func ParseRawConfig(data []byte) (*RawConfig, error) {
	raw := &RawConfig{}
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("decoding kernel config: %w", err)
	}
	return raw, nil
}

// Descriptor is the validated, immutable model configuration. In fixed mode
// Class and Name identify the one model built at init; in runtime-selection
// mode they stay unset and arrive per frame instead.
type Descriptor struct {
	Class                 Class
	Name                  string
	Path                  string // Root directory holding one subdirectory per model
	Format                nn.PixelFormat
	NeedPreprocess        bool
	RuntimeModelSelection bool
	PerformanceTest       bool
	DebugLevel            int
}

// ResolveDescriptor validates a raw configuration into a Descriptor.
// Every failure names the offending key. In fixed mode the named model's
// artifacts are verified on disk before we return.
func ResolveDescriptor(raw *RawConfig, logger logs.Log) (*Descriptor, error) {
	desc := &Descriptor{
		Format:         nn.FormatBGR8,
		NeedPreprocess: true,
		DebugLevel:     DebugLevelWarning,
	}
	if raw.DebugLevel != nil {
		desc.DebugLevel = *raw.DebugLevel
	}
	if raw.RunTimeModel != nil {
		desc.RuntimeModelSelection = *raw.RunTimeModel
	}
	if raw.PerformanceTest != nil {
		desc.PerformanceTest = *raw.PerformanceTest
	}
	if raw.NeedPreprocess != nil {
		desc.NeedPreprocess = *raw.NeedPreprocess
	}

	if raw.ModelFormat == nil {
		logger.Warnf("model-format not specified, taking BGR as default")
	} else {
		desc.Format = nn.ParsePixelFormat(*raw.ModelFormat)
		if desc.Format == nn.FormatUnknown {
			return nil, fmt.Errorf("%w: model-format %q", ErrUnsupportedFormat, *raw.ModelFormat)
		}
	}

	if raw.ModelPath == nil {
		desc.Path = DefaultModelPath
		logger.Warnf("model-path not specified, using default path %v", desc.Path)
	} else {
		desc.Path = *raw.ModelPath
	}
	if stat, err := os.Stat(desc.Path); err != nil || !stat.IsDir() {
		return nil, fmt.Errorf("%w: model-path %q", ErrModelPathNotFound, desc.Path)
	}

	if desc.RuntimeModelSelection {
		// Class and name arrive per frame.
		logger.Infof("runtime model selection enabled")
		return desc, nil
	}

	if raw.ModelClass == nil {
		return nil, fmt.Errorf("%w: model-class not specified", ErrUnknownModelClass)
	}
	class, err := ClassFromString(*raw.ModelClass)
	if err != nil {
		return nil, err
	}
	desc.Class = class

	if raw.ModelName == nil {
		return nil, fmt.Errorf("%w: model-name not specified", ErrModelArtifactNotFound)
	}
	desc.Name = *raw.ModelName

	if _, err := ResolveArtifacts(desc.Path, desc.Name); err != nil {
		return nil, err
	}
	return desc, nil
}
