// Package imageio provides raster image loading and saving for the
// generation pipeline.
//
// Images are carried through the pipeline as packed 8-bit RGB buffers
// (the format the inference engine consumes and produces). Decoding of
// standard formats is delegated to the stdlib codecs; scaling and pixel
// format normalization use golang.org/x/image/draw.
package imageio

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Image errors
var (
	ErrEmptyImage        = errors.New("imageio: empty image")
	ErrInvalidDimensions = errors.New("imageio: invalid dimensions")
	ErrUnsupportedFormat = errors.New("imageio: unsupported image format")
)

// Channels is the number of color channels in pipeline images.
// The engine works on packed RGB without alpha.
const Channels = 3

// Image is a packed 8-bit RGB raster image.
//
// Pix holds Width*Height*Channels bytes in row-major order. This is the
// exchange format between the image codecs and the engine facade.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed RGB image of the given size.
func New(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Image{
		Width:    width,
		Height:   height,
		Channels: Channels,
		Pix:      make([]uint8, width*height*Channels),
	}, nil
}

// Validate checks that the image buffer is consistent with its dimensions.
func (m *Image) Validate() error {
	if m == nil || len(m.Pix) == 0 {
		return ErrEmptyImage
	}
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, m.Width, m.Height)
	}
	if m.Channels != Channels {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, m.Channels)
	}
	if want := m.Width * m.Height * m.Channels; len(m.Pix) != want {
		return fmt.Errorf("%w: pixel buffer is %d bytes, want %d", ErrInvalidDimensions, len(m.Pix), want)
	}
	return nil
}

// fromGoImage converts a decoded stdlib image to a packed RGB Image.
// Alpha is dropped by compositing onto the raw channel values.
func fromGoImage(src image.Image) *Image {
	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)

	out := &Image{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: Channels,
		Pix:      make([]uint8, bounds.Dx()*bounds.Dy()*Channels),
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			s := rgba.PixOffset(x, y)
			d := (y*out.Width + x) * Channels
			out.Pix[d+0] = rgba.Pix[s+0]
			out.Pix[d+1] = rgba.Pix[s+1]
			out.Pix[d+2] = rgba.Pix[s+2]
		}
	}
	return out
}

// toGoImage converts a packed RGB Image to an opaque stdlib NRGBA image
// for encoding.
func (m *Image) toGoImage() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			s := (y*m.Width + x) * Channels
			d := out.PixOffset(x, y)
			out.Pix[d+0] = m.Pix[s+0]
			out.Pix[d+1] = m.Pix[s+1]
			out.Pix[d+2] = m.Pix[s+2]
			out.Pix[d+3] = 0xff
		}
	}
	return out
}

// Resize scales the image to width x height using bilinear filtering.
// Returns the receiver unchanged when the size already matches.
func Resize(m *Image, width, height int) (*Image, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if m.Width == width && m.Height == height {
		return m, nil
	}

	src := m.toGoImage()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := &Image{
		Width:    width,
		Height:   height,
		Channels: Channels,
		Pix:      make([]uint8, width*height*Channels),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			s := dst.PixOffset(x, y)
			d := (y*width + x) * Channels
			out.Pix[d+0] = dst.Pix[s+0]
			out.Pix[d+1] = dst.Pix[s+1]
			out.Pix[d+2] = dst.Pix[s+2]
		}
	}
	return out, nil
}
