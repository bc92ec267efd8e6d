// Package screenshot turns the PPU's RGB frame buffer into PNG images. It
// has no window system dependencies so the debugger and the headless
// backend can use it anywhere.
package screenshot

import (
	"image"
	"image/png"
	"io"
	"os"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
)

// Frame dimensions in pixels.
const (
	Width  = 256
	Height = 240
)

// captionHeight is the band added below the frame when a caption is set.
const captionHeight = 16

// ErrFrameSize is returned for buffers that are not Width*Height*3 bytes.
var ErrFrameSize = errors.New("frame buffer has the wrong size")

// Options control how a frame is rendered.
type Options struct {
	// Scale is the integer magnification. Values below 1 mean 1.
	Scale int

	// Caption is drawn in a band under the picture when not empty.
	Caption string
}

// Image copies an RGB frame into an RGBA image.
func Image(frame []uint8) (*image.RGBA, error) {
	if len(frame) != Width*Height*3 {
		return nil, errors.Wrapf(ErrFrameSize, "%d bytes", len(frame))
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	for i, o := 0, 0; i < len(frame); i, o = i+3, o+4 {
		img.Pix[o] = frame[i]
		img.Pix[o+1] = frame[i+1]
		img.Pix[o+2] = frame[i+2]
		img.Pix[o+3] = 0xFF
	}
	return img, nil
}

// Render scales the frame and adds the caption band.
func Render(frame []uint8, opts Options) (*image.RGBA, error) {
	src, err := Image(frame)
	if err != nil {
		return nil, err
	}

	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}

	w, h := Width*scale, Height*scale
	band := 0
	if opts.Caption != "" {
		band = captionHeight * scale
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h+band))
	draw.NearestNeighbor.Scale(dst, image.Rect(0, 0, w, h), src, src.Bounds(), draw.Src, nil)

	if band > 0 {
		dc := gg.NewContextForRGBA(dst)
		dc.SetColor(colornames.Black)
		dc.DrawRectangle(0, float64(h), float64(w), float64(band))
		dc.Fill()
		dc.SetColor(colornames.White)
		dc.DrawStringAnchored(opts.Caption, 4, float64(h)+float64(band)/2, 0, 0.35)
	}
	return dst, nil
}

// Encode writes the frame as PNG.
func Encode(w io.Writer, frame []uint8, opts Options) error {
	img, err := Render(frame, opts)
	if err != nil {
		return err
	}
	return errors.Wrap(png.Encode(w, img), "encode PNG")
}

// Save writes the frame as a PNG file.
func Save(path string, frame []uint8, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create screenshot")
	}
	if err := Encode(f, frame, opts); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close screenshot")
}
