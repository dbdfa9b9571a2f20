package nnmodel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyclopcam/nnkernel/pkg/nnlabel"
)

// Artifacts locates the on-disk files of one model. Layout per model is
// <modelPath>/<modelName>/ containing:
//
//	<modelName>.prototxt   mandatory descriptor
//	<modelName>.xmodel     serialized graph (preferred)
//	<modelName>.elf        legacy compiled artifact (fallback)
//	label.json             optional labels
type Artifacts struct {
	Dir            string
	DescriptorPath string
	GraphPath      string
	Legacy         bool // True when GraphPath is the legacy .elf form
	LabelPath      string
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolveArtifacts validates the artifact set of a model.
// The descriptor file is mandatory regardless of which graph form is present,
// and its absence fails before we even look for the graph.
func ResolveArtifacts(modelPath, modelName string) (Artifacts, error) {
	dir := filepath.Join(modelPath, modelName)
	art := Artifacts{
		Dir:            dir,
		DescriptorPath: filepath.Join(dir, modelName+".prototxt"),
		LabelPath:      filepath.Join(dir, nnlabel.FileName),
	}

	if !fileExists(art.DescriptorPath) {
		return Artifacts{}, fmt.Errorf("%w: %v", ErrModelArtifactNotFound, art.DescriptorPath)
	}

	xmodel := filepath.Join(dir, modelName+".xmodel")
	elf := filepath.Join(dir, modelName+".elf")
	if fileExists(xmodel) {
		art.GraphPath = xmodel
	} else if fileExists(elf) {
		art.GraphPath = elf
		art.Legacy = true
	} else {
		return Artifacts{}, fmt.Errorf("%w: neither %v nor %v exists", ErrModelArtifactNotFound, xmodel, elf)
	}
	return art, nil
}

// HasLabels returns true if the model ships a label file.
func (a *Artifacts) HasLabels() bool {
	return fileExists(a.LabelPath)
}
