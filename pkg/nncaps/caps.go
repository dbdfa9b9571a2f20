// Package nncaps derives the input capabilities a kernel advertises to the
// host pipeline for its active model. Negotiation is advertise-only: nothing
// here converts or scales, it only describes what is acceptable, in
// descending preference order.
package nncaps

import (
	"fmt"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/nnkernel/pkg/nn"
)

// Bounds of the fallback tier. Frames inside these bounds are accepted, with
// the understanding that an upstream scale/convert step will bring them to
// the model's native input.
const (
	FallbackMinWidth  = 1
	FallbackMaxWidth  = 1920
	FallbackMinHeight = 1
	FallbackMaxHeight = 1024
)

// Tier is one acceptable input description.
type Tier struct {
	MinWidth  int
	MaxWidth  int // Equal to MinWidth for an exact tier
	MinHeight int
	MaxHeight int
	Formats   []nn.PixelFormat
}

// Exact reports whether the tier pins a single resolution.
func (t *Tier) Exact() bool {
	return t.MinWidth == t.MaxWidth && t.MinHeight == t.MaxHeight
}

func (t *Tier) accepts(width, height int, format nn.PixelFormat) bool {
	if width < t.MinWidth || width > t.MaxWidth || height < t.MinHeight || height > t.MaxHeight {
		return false
	}
	for _, f := range t.Formats {
		if f == format {
			return true
		}
	}
	return false
}

func (t *Tier) String() string {
	formats := make([]string, len(t.Formats))
	for i, f := range t.Formats {
		formats[i] = f.String()
	}
	if t.Exact() {
		return fmt.Sprintf("%vx%v %v", t.MinWidth, t.MinHeight, strings.Join(formats, "/"))
	}
	return fmt.Sprintf("[%v..%v]x[%v..%v] %v", t.MinWidth, t.MaxWidth, t.MinHeight, t.MaxHeight, strings.Join(formats, "/"))
}

// Caps is the published capability set of one model, tiers in descending
// preference order.
type Caps struct {
	Tiers []Tier
}

// RequiredSize is the contract nncaps needs from a model: its fixed native
// input resolution.
type RequiredSize interface {
	RequiredWidth() int
	RequiredHeight() int
}

// Negotiate publishes the two capability tiers for a model:
// tier 0 is an exact match at the model's native resolution in the
// descriptor's format (the zero-copy, no-scale path), tier 1 accepts a
// bounded range in either supported format, signalling that upstream scaling
// or conversion is required.
func Negotiate(model RequiredSize, format nn.PixelFormat) *Caps {
	return &Caps{
		Tiers: []Tier{
			{
				MinWidth:  model.RequiredWidth(),
				MaxWidth:  model.RequiredWidth(),
				MinHeight: model.RequiredHeight(),
				MaxHeight: model.RequiredHeight(),
				Formats:   []nn.PixelFormat{format},
			},
			{
				MinWidth:  FallbackMinWidth,
				MaxWidth:  FallbackMaxWidth,
				MinHeight: FallbackMinHeight,
				MaxHeight: FallbackMaxHeight,
				Formats:   []nn.PixelFormat{nn.FormatBGR8, nn.FormatRGB8},
			},
		},
	}
}

// Accepts returns the index of the most preferred tier that accepts the given
// input, or -1 if no tier does.
func (c *Caps) Accepts(width, height int, format nn.PixelFormat) int {
	for i := range c.Tiers {
		if c.Tiers[i].accepts(width, height, format) {
			return i
		}
	}
	return -1
}

// Print dumps the tiers to the log, most preferred first.
func (c *Caps) Print(logger logs.Log) {
	for i := range c.Tiers {
		logger.Infof("caps[%v]: %v", i, c.Tiers[i].String())
	}
}
