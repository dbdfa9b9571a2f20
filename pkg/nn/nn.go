// Package nn holds the primitives shared by every inference model variant:
// pixel formats, zero-copy image views over host frame buffers, and the
// structured results that get attached to a frame after a model has run.
package nn

import (
	"strings"
	"time"

	"github.com/bmharper/cimg/v2"
)

// PixelFormat is the in-memory channel order of a frame or model input.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	FormatRGB8
	FormatBGR8
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGB8:
		return "RGB8"
	case FormatBGR8:
		return "BGR8"
	}
	return "Unknown"
}

// NChan returns the number of channels per pixel (3 for both supported formats).
func (f PixelFormat) NChan() int {
	return 3
}

// ParsePixelFormat maps a configured format string onto a PixelFormat.
// Matching is by prefix, so "RGB", "RGBx", "RGB8" all resolve to FormatRGB8.
func ParsePixelFormat(name string) PixelFormat {
	if strings.HasPrefix(name, "RGB") {
		return FormatRGB8
	} else if strings.HasPrefix(name, "BGR") {
		return FormatBGR8
	}
	return FormatUnknown
}

// ImageView is a zero-copy view into a frame buffer owned by the host pipeline.
// The buffer is wrapped with its declared stride, never copied. A view may be
// a crop of the frame; use WrapFrame to view the whole frame, and Crop to get
// a sub-view.
// The view must not be retained after the dispatch call that created it returns.
type ImageView struct {
	Pixels      []byte // The whole frame buffer
	Format      PixelFormat
	Stride      int // Bytes per row, >= ImageWidth * NChan
	ImageWidth  int // Width of the frame held in Pixels
	ImageHeight int // Height of the frame held in Pixels
	CropX       int
	CropY       int
	CropWidth   int
	CropHeight  int
}

// WrapFrame returns a view of an entire frame buffer.
func WrapFrame(format PixelFormat, pixels []byte, width, height, stride int) ImageView {
	return ImageView{
		Pixels:      pixels,
		Format:      format,
		Stride:      stride,
		ImageWidth:  width,
		ImageHeight: height,
		CropX:       0,
		CropY:       0,
		CropWidth:   width,
		CropHeight:  height,
	}
}

// Crop returns a crop of the crop (new crop is relative to the existing one).
// If any parameter is out of bounds, we panic.
func (v ImageView) Crop(x1, y1, x2, y2 int) ImageView {
	nc := v
	nc.CropX = v.CropX + x1
	nc.CropY = v.CropY + y1
	nc.CropWidth = x2 - x1
	nc.CropHeight = y2 - y1
	if nc.CropX < 0 || nc.CropY < 0 || nc.CropWidth < 0 || nc.CropHeight < 0 ||
		nc.CropX+nc.CropWidth > v.ImageWidth || nc.CropY+nc.CropHeight > v.ImageHeight {
		panic("ImageView crop out of bounds")
	}
	return nc
}

// Row returns the pixels of row y of the crop.
func (v ImageView) Row(y int) []byte {
	start := (v.CropY+y)*v.Stride + v.CropX*v.Format.NChan()
	return v.Pixels[start : start+v.CropWidth*v.Format.NChan()]
}

// ToCImg wraps the view as a cimg image, sharing the underlying buffer.
// Only valid for a whole-frame view; crops carry their offset in CropX/CropY,
// which cimg's strided wrap cannot express.
func (v ImageView) ToCImg() *cimg.Image {
	format := cimg.PixelFormatRGB
	if v.Format == FormatBGR8 {
		format = cimg.PixelFormatBGR
	}
	return cimg.WrapImageStrided(v.ImageWidth, v.ImageHeight, format, v.Pixels, v.Stride)
}

// ObjectDetection is an object that a neural network has found in an image.
type ObjectDetection struct {
	Class      int     `json:"class"`
	Confidence float32 `json:"confidence"`
	Box        Rect    `json:"box"`
	Label      string  `json:"label,omitempty"` // Display name from the model's label table, if one is loaded
}

// Classification is one entry of a whole-image classification result.
type Classification struct {
	Class       int     `json:"class"`
	Confidence  float32 `json:"confidence"`
	Name        string  `json:"name,omitempty"`
	DisplayName string  `json:"displayName,omitempty"`
}

// DetectionResult is the structured output of one inference call.
// It is owned by the model until attached to the frame's metadata, after
// which the frame's metadata container owns it.
type DetectionResult struct {
	ModelClass      string            `json:"modelClass"`
	ModelName       string            `json:"modelName"`
	ImageWidth      int               `json:"imageWidth"`
	ImageHeight     int               `json:"imageHeight"`
	FramePTS        time.Time         `json:"framePTS,omitzero"`
	Objects         []ObjectDetection `json:"objects,omitempty"`
	Classifications []Classification  `json:"classifications,omitempty"`
	Embedding       []float32         `json:"embedding,omitempty"`
}
