package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/akamensky/argparse"
	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/nnkernel/pkg/dpu"
	"github.com/cyclopcam/nnkernel/pkg/kernel"
	"github.com/cyclopcam/nnkernel/pkg/nn"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
)

// nnkernel feeds raw packed frames from a file through one kernel instance
// and emits the attached detections as JSON. It stands in for the host
// pipeline, so it's the tool for validating a model directory and a kernel
// config without a video pipeline around it. Inference runs on the stub
// accelerator; a hardware deployment supplies its own dpu.Loader.

func check(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func main() {
	parser := argparse.NewParser("nnkernel", "Run the video inference kernel over raw frames from a file")
	configPath := parser.String("c", "config", &argparse.Options{Help: "Kernel config JSON file", Required: true})
	input := parser.String("i", "input", &argparse.Options{Help: "Raw frame file (packed frames, 3 bytes per pixel)", Required: true})
	width := parser.Int("", "width", &argparse.Options{Help: "Frame width", Required: true})
	height := parser.Int("", "height", &argparse.Options{Help: "Frame height", Required: true})
	formatStr := parser.String("f", "format", &argparse.Options{Help: "Frame pixel format (RGB or BGR)", Required: false, Default: "BGR"})
	output := parser.String("o", "output", &argparse.Options{Help: "Output JSON file (default stdout)", Required: false, Default: ""})
	tiled := parser.Flag("", "tiled", &argparse.Options{Help: "Tile frames larger than the model input", Required: false})
	resize := parser.Flag("", "resize", &argparse.Options{Help: "Scale frames to the model's native input size before dispatch", Required: false})
	maxFrames := parser.Int("", "maxframes", &argparse.Options{Help: "Stop after this many frames (0 = all)", Required: false, Default: 0})
	frameClass := parser.String("", "frame-class", &argparse.Options{Help: "Per-frame model class (runtime-selection mode)", Required: false, Default: ""})
	frameModel := parser.String("", "frame-model", &argparse.Options{Help: "Per-frame model name (runtime-selection mode)", Required: false, Default: ""})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	check(err)

	format := nn.ParsePixelFormat(*formatStr)
	if format == nn.FormatUnknown {
		check(fmt.Errorf("unknown frame format %q", *formatStr))
	}

	var modelSelect *kernel.ModelSelection
	if *frameClass != "" || *frameModel != "" {
		class, err := nnmodel.ClassFromString(*frameClass)
		check(err)
		modelSelect = &kernel.ModelSelection{Class: class, Name: *frameModel}
	}

	config, err := os.ReadFile(*configPath)
	check(err)

	k, err := kernel.New(config, &dpu.StubLoader{}, logger)
	check(err)
	defer k.Deinit()

	src, err := os.Open(*input)
	check(err)
	defer src.Close()

	frameSize := *width * *height * format.NChan()
	buf := make([]byte, frameSize)
	results := []*nn.DetectionResult{}
	dropped := 0
	for frameIdx := 0; *maxFrames == 0 || frameIdx < *maxFrames; frameIdx++ {
		_, err := io.ReadFull(src, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			logger.Warnf("Trailing partial frame in %v dropped", *input)
			break
		}
		check(err)

		frame := &kernel.Frame{
			Pixels: buf,
			Width:  *width,
			Height: *height,
			Format: format,
			Meta:   &kernel.ResultSink{},
		}
		frame.ModelSelect = modelSelect

		if *resize {
			if caps := k.Caps(); caps != nil && caps.Accepts(*width, *height, format) != 0 {
				native := caps.Tiers[0]
				scaled := scaleFrame(frame, native.MinWidth, native.MinHeight)
				frame = scaled
				frame.ModelSelect = modelSelect
			}
		}

		if *tiled {
			err = k.DispatchTiled(frame)
		} else {
			err = k.Dispatch(frame)
		}
		if err != nil {
			// Per-frame failure: drop the frame, keep going.
			dropped++
			continue
		}
		results = append(results, frame.Meta.(*kernel.ResultSink).Result)
	}

	if dropped > 0 {
		logger.Warnf("%v frames dropped", dropped)
	}

	dst := os.Stdout
	if *output != "" {
		dst, err = os.Create(*output)
		check(err)
		defer dst.Close()
	}
	encoder := json.NewEncoder(dst)
	encoder.SetIndent("", "  ")
	check(encoder.Encode(results))
}

// scaleFrame resizes a frame to the model's native input, returning a new
// tightly-packed frame. The sink carries over so results land in one place.
func scaleFrame(frame *kernel.Frame, toWidth, toHeight int) *kernel.Frame {
	src := nn.WrapFrame(frame.Format, frame.Pixels, frame.Width, frame.Height, frame.Width*frame.Format.NChan()).ToCImg()
	dst := cimg.ResizeNew(src, toWidth, toHeight, nil)
	return &kernel.Frame{
		Pixels: dst.Pixels,
		Width:  dst.Width,
		Height: dst.Height,
		Format: frame.Format,
		PTS:    frame.PTS,
		Meta:   frame.Meta,
	}
}
