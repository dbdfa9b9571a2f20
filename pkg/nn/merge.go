package nn

import (
	flatbush "github.com/bmharper/flatbush-go"
)

// DefaultMergeIoU is the IoU at which two same-class boxes are considered
// duplicates of one object.
const DefaultMergeIoU = 0.45

// MergeDuplicateBoxes merges detections of the same class whose boxes overlap
// with an IoU of at least minIoU. Accelerator output frequently contains the
// same object twice with slightly different bounding boxes; we keep a single
// detection with the union of the boxes and the max of the confidences.
// The input order is preserved for the detections that survive.
func MergeDuplicateBoxes(input []ObjectDetection, minIoU float32) []ObjectDetection {
	if len(input) < 2 {
		return input
	}

	// Create spatial index to avoid O(N^2) comparisons
	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(input))
	for _, b := range input {
		fb.Add(b.Box.X, b.Box.Y, b.Box.X2(), b.Box.Y2())
	}
	fb.Finish()

	merged := make([]ObjectDetection, len(input))
	copy(merged, input)

	// Objects that have been folded into another object
	deleted := map[int]bool{}
	nChanged := 1

	for nChanged != 0 {
		nChanged = 0
		for i := range merged {
			if deleted[i] {
				continue
			}
			for _, j := range fb.Search(merged[i].Box.X, merged[i].Box.Y, merged[i].Box.X2(), merged[i].Box.Y2()) {
				if i == j || deleted[j] {
					continue
				}
				if merged[j].Class != merged[i].Class {
					continue
				}
				if merged[i].Box.IOU(merged[j].Box) >= minIoU {
					merged[i].Box = merged[i].Box.Union(merged[j].Box)
					merged[i].Confidence = max(merged[i].Confidence, merged[j].Confidence)
					deleted[j] = true
					nChanged++
				}
			}
		}
	}

	retain := make([]ObjectDetection, 0, len(merged))
	for i := range merged {
		if !deleted[i] {
			retain = append(retain, merged[i])
		}
	}
	return retain
}
