package imageio

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// jpegQuality is the encoder quality for .jpg/.jpeg outputs.
const jpegQuality = 90

// Load reads an image file and returns it as a packed RGB Image.
//
// PNG, JPEG and GIF are decoded with the stdlib codecs. Binary PPM (P6)
// is parsed directly since the stdlib has no PPM support.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".ppm") {
		img, err := decodePPM(bufio.NewReader(f))
		if err != nil {
			return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
		}
		return img, nil
	}

	src, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}
	return fromGoImage(src), nil
}

// Save writes the image to path, choosing the codec from the file
// extension (.png, .jpg, .jpeg, .ppm). Unknown extensions are an error
// so a typo'd output path fails instead of silently picking a format.
func Save(m *Image, path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".ppm":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	switch ext {
	case ".png":
		err = png.Encode(w, m.toGoImage())
	case ".jpg", ".jpeg":
		err = jpeg.Encode(w, m.toGoImage(), &jpeg.Options{Quality: jpegQuality})
	case ".ppm":
		err = encodePPM(w, m)
	}
	if err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("imageio: write %s: %w", path, err)
	}
	return nil
}

// decodePPM parses a binary PPM (P6) stream with 8-bit samples.
func decodePPM(r *bufio.Reader) (*Image, error) {
	magic, err := ppmToken(r)
	if err != nil {
		return nil, err
	}
	if magic != "P6" {
		return nil, fmt.Errorf("%w: PPM magic %q", ErrUnsupportedFormat, magic)
	}

	var width, height, maxVal int
	for _, dst := range []*int{&width, &height, &maxVal} {
		tok, err := ppmToken(r)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Sscanf(tok, "%d", dst); err != nil {
			return nil, fmt.Errorf("%w: PPM header token %q", ErrUnsupportedFormat, tok)
		}
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if maxVal != 255 {
		return nil, fmt.Errorf("%w: PPM maxval %d (only 255 supported)", ErrUnsupportedFormat, maxVal)
	}

	img := &Image{
		Width:    width,
		Height:   height,
		Channels: Channels,
		Pix:      make([]uint8, width*height*Channels),
	}
	if _, err := io.ReadFull(r, img.Pix); err != nil {
		return nil, fmt.Errorf("imageio: PPM pixel data: %w", err)
	}
	return img, nil
}

// ppmToken reads the next whitespace-delimited header token, skipping
// '#' comment lines.
func ppmToken(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if sb.Len() > 0 && err == io.EOF {
				return sb.String(), nil
			}
			return "", fmt.Errorf("imageio: PPM header: %w", err)
		}
		switch {
		case b == '#':
			if _, err := r.ReadString('\n'); err != nil && err != io.EOF {
				return "", fmt.Errorf("imageio: PPM header: %w", err)
			}
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			if sb.Len() > 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteByte(b)
		}
	}
}

// encodePPM writes the image as binary PPM (P6) with 8-bit samples.
func encodePPM(w io.Writer, m *Image) error {
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", m.Width, m.Height); err != nil {
		return err
	}
	_, err := w.Write(m.Pix)
	return err
}
