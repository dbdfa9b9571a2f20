package nnmodel

import "fmt"

// Class identifies a model family. The set is closed: every family we can run
// is enumerated here, and its variant registers itself with the catalog.
type Class int

const (
	ClassUnknown Class = iota
	ClassClassification
	ClassYoloV2
	ClassYoloV3
	ClassSSD
	ClassTFSSD
	ClassRefineDet
	ClassFaceDetect
	ClassReID
)

var classNames = map[Class]string{
	ClassClassification: "CLASSIFICATION",
	ClassYoloV2:         "YOLOV2",
	ClassYoloV3:         "YOLOV3",
	ClassSSD:            "SSD",
	ClassTFSSD:          "TFSSD",
	ClassRefineDet:      "REFINEDET",
	ClassFaceDetect:     "FACEDETECT",
	ClassReID:           "REID",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ClassFromString resolves a configured model-class string (eg "YOLOV3").
func ClassFromString(name string) (Class, error) {
	for class, className := range classNames {
		if className == name {
			return class, nil
		}
	}
	return ClassUnknown, fmt.Errorf("%w: %q", ErrUnknownModelClass, name)
}
