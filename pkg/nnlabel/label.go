// Package nnlabel loads the class-label table that ships alongside a model's
// artifacts as label.json. Labels annotate detection and classification
// results with human-readable names.
package nnlabel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrLabelLoad is wrapped by every error returned from Load.
// A failed load never yields a partial table.
var ErrLabelLoad = errors.New("label load failed")

// FileName is the well-known name of the label file inside a model directory.
const FileName = "label.json"

// Record is one class label.
type Record struct {
	Index       int    `json:"label"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Table is the ordered label set of one model. Slot i holds the record whose
// declared index is i; the table length always equals the declared num-labels.
type Table struct {
	ModelName string
	Records   []Record
}

type labelFile struct {
	ModelName string            `json:"model-name"`
	NumLabels *int              `json:"num-labels"`
	Labels    []json.RawMessage `json:"labels"`
}

type labelEntry struct {
	Index       *int    `json:"label"`
	Name        *string `json:"name"`
	DisplayName *string `json:"display_name"`
}

// Load parses a label.json file. Any defect in the file fails the whole load:
// a declared count that mismatches the array length, a missing field, or a
// duplicate or out-of-range index.
func Load(filename string) (*Table, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLabelLoad, err)
	}
	file := labelFile{}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v: %v", ErrLabelLoad, filename, err)
	}
	if file.NumLabels == nil {
		return nil, fmt.Errorf("%w: num-labels not found in %v", ErrLabelLoad, filename)
	}
	numLabels := *file.NumLabels
	if numLabels < 0 {
		return nil, fmt.Errorf("%w: negative num-labels in %v", ErrLabelLoad, filename)
	}
	if numLabels != len(file.Labels) {
		return nil, fmt.Errorf("%w: num-labels (%v) != labels array size (%v) in %v", ErrLabelLoad, numLabels, len(file.Labels), filename)
	}

	table := &Table{
		ModelName: file.ModelName,
		Records:   make([]Record, numLabels),
	}
	seen := make([]bool, numLabels)
	for i, rawEntry := range file.Labels {
		entry := labelEntry{}
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			return nil, fmt.Errorf("%w: label entry %v in %v: %v", ErrLabelLoad, i, filename, err)
		}
		if entry.Index == nil {
			return nil, fmt.Errorf("%w: label index not found for entry %v in %v", ErrLabelLoad, i, filename)
		}
		if entry.Name == nil {
			return nil, fmt.Errorf("%w: name not found for entry %v in %v", ErrLabelLoad, i, filename)
		}
		if entry.DisplayName == nil {
			return nil, fmt.Errorf("%w: display_name not found for entry %v in %v", ErrLabelLoad, i, filename)
		}
		idx := *entry.Index
		if idx < 0 || idx >= numLabels {
			return nil, fmt.Errorf("%w: label index %v out of range [0, %v) in %v", ErrLabelLoad, idx, numLabels, filename)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: duplicate label index %v in %v", ErrLabelLoad, idx, filename)
		}
		seen[idx] = true
		table.Records[idx] = Record{
			Index:       idx,
			Name:        *entry.Name,
			DisplayName: *entry.DisplayName,
		}
	}
	return table, nil
}

// Len returns the number of labels in the table.
func (t *Table) Len() int {
	return len(t.Records)
}

// Lookup returns the record for a class index. An out-of-range class gets a
// synthesized numeric record, so callers can always annotate a detection.
func (t *Table) Lookup(class int) Record {
	if t != nil && class >= 0 && class < len(t.Records) {
		return t.Records[class]
	}
	name := "class-" + strconv.Itoa(class)
	return Record{Index: class, Name: name, DisplayName: name}
}
