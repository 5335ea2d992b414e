// Package tensorio reads the headerless binary tensor files the CLI
// accepts as external inputs: precomputed text embeddings and initial
// latent noise.
//
// Both formats are flat arrays of little-endian IEEE-754 32-bit floats
// with no header; the logical shape is inferred purely from the file
// size. Files are fully read into memory before any buffer is returned,
// so callers never see partial data.
package tensorio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// floatSize is the on-disk size of one float32 sample.
const floatSize = 4

// ErrShortRead indicates a file reported one size but delivered fewer
// bytes, e.g. because it was truncated mid-read.
var ErrShortRead = errors.New("tensorio: short read")

// Embeddings is a loaded text-embedding tensor of logical shape
// [1, SeqLen, Dim].
type Embeddings struct {
	// Data holds SeqLen*Dim floats in row-major order.
	Data []float32
	// SeqLen is the inferred token count.
	SeqLen int
	// Dim is the per-token embedding width the shape was inferred with.
	Dim int
}

// ByteSize returns the number of file bytes the tensor occupied.
func (e *Embeddings) ByteSize() int64 {
	return int64(len(e.Data)) * floatSize
}

// LoadEmbeddings reads a raw float32 embeddings file. The sequence
// length is floor(fileSize / (dim*4)); a trailing partial token is
// silently dropped. Callers needing an exact multiple must check the
// file size themselves.
func LoadEmbeddings(path string, dim int) (*Embeddings, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("tensorio: invalid embedding dim %d", dim)
	}

	raw, err := readAll(path)
	if err != nil {
		return nil, err
	}

	seqLen := len(raw) / (dim * floatSize)
	data := decodeFloats(raw[:seqLen*dim*floatSize])

	return &Embeddings{Data: data, SeqLen: seqLen, Dim: dim}, nil
}

// LoadNoise reads a raw float32 noise file as a flat array of
// floor(fileSize/4) floats.
func LoadNoise(path string) ([]float32, error) {
	raw, err := readAll(path)
	if err != nil {
		return nil, err
	}
	count := len(raw) / floatSize
	return decodeFloats(raw[:count*floatSize]), nil
}

// readAll reads the whole file into memory, distinguishing open
// failures from short reads against the stat-reported size.
func readAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tensorio: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("tensorio: stat %s: %w", path, err)
	}

	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("tensorio: read %s: %w (%w)", path, err, ErrShortRead)
	}
	return buf, nil
}

// decodeFloats converts little-endian float32 bytes. len(raw) must be
// a multiple of 4.
func decodeFloats(raw []byte) []float32 {
	out := make([]float32, len(raw)/floatSize)
	for i := range out {
		bits := binary.LittleEndian.Uint32(raw[i*floatSize:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
