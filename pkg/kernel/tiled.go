package kernel

import (
	"github.com/bmharper/tiledinference"
	"github.com/cyclopcam/nnkernel/pkg/nn"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
)

// DispatchTiled is Dispatch for frames much larger than the model's native
// input: the frame is split into overlapping tiles, each tile is run through
// the model, and boxes are merged across tile seams. If the frame is no
// larger than the model input, this degenerates into a single run, so it is
// safe to call on any frame. Tiling only makes sense for detector output;
// classification and re-identification results from a tile would be
// meaningless, so those families should use Dispatch.
func (k *Kernel) DispatchTiled(frame *Frame) error {
	return k.dispatch(frame, true)
}

// This should probably be some multiple of the model size, but in practice
// model inputs stay small enough that a fixed padding works fine.
const tileMinPadding = 32

func tiledRun(model nnmodel.Model, img nn.ImageView) ([]nn.ObjectDetection, error) {
	tiling := tiledinference.MakeTiling(img.CropWidth, img.CropHeight, model.RequiredWidth(), model.RequiredHeight(), tileMinPadding)

	allObjects := []nn.ObjectDetection{}
	allBoxes := []tiledinference.Box{}

	// Dispatch is serial by contract, so the tiles run one after the other.
	for ty := 0; ty < tiling.NumY; ty++ {
		for tx := 0; tx < tiling.NumX; tx++ {
			objects, boxes, err := runTile(model, tiling, tx, ty, img)
			if err != nil {
				return nil, err
			}
			allObjects = append(allObjects, objects...)
			allBoxes = append(allBoxes, boxes...)
		}
	}

	finalClip := nn.Rect{
		X:      0,
		Y:      0,
		Width:  int32(img.CropWidth),
		Height: int32(img.CropHeight),
	}

	if tiling.IsSingle() {
		for i := range allObjects {
			allObjects[i].Box = allObjects[i].Box.Intersection(finalClip)
		}
		return allObjects, nil
	}

	merged := []nn.ObjectDetection{}
	groups, mergedBoxes := tiledinference.MergeBoxes(tiling, allBoxes, nil)
	for igroup, group := range groups {
		// Start with the first object in the group
		newObj := allObjects[group[0]]
		r := mergedBoxes[igroup]

		// Use the merged box, which can be larger than the first object in the group
		newObj.Box = nn.Rect{X: int32(r.Rect.X1), Y: int32(r.Rect.Y1), Width: int32(r.Rect.Width()), Height: int32(r.Rect.Height())}
		newObj.Box = newObj.Box.Intersection(finalClip)

		// Use max(confidence) from all objects in the group
		for _, el := range group[1:] {
			newObj.Confidence = max(newObj.Confidence, allObjects[el].Confidence)
		}

		merged = append(merged, newObj)
	}
	return merged, nil
}

// runTile runs the model on one tile and returns two parallel arrays: the
// detections translated into frame coordinates, and the tile-tagged boxes the
// cross-seam merge needs.
func runTile(model nnmodel.Model, tiling tiledinference.Tiling, tx, ty int, img nn.ImageView) ([]nn.ObjectDetection, []tiledinference.Box, error) {
	tileRect := tiling.TileRect(tx, ty)
	crop := img.Crop(int(tileRect.X1), int(tileRect.Y1), int(tileRect.X2), int(tileRect.Y2))
	result, err := model.Run(crop)
	if err != nil {
		return nil, nil, err
	}
	objects := result.Objects
	boxes := []tiledinference.Box{}
	for i, obj := range objects {
		box := tiledinference.Box{
			Rect: tiledinference.Rect{
				X1: obj.Box.X,
				Y1: obj.Box.Y,
				X2: obj.Box.X2(),
				Y2: obj.Box.Y2(),
			},
			Class: int32(obj.Class),
			Tile:  tiling.MakeTileIndex(tx, ty),
		}
		box.Rect.Offset(tileRect.X1, tileRect.Y1)
		objects[i].Box.Offset(tileRect.X1, tileRect.Y1)
		boxes = append(boxes, box)
	}
	return objects, boxes, nil
}
