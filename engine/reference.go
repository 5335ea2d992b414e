// Package engine provides the facade over the FLUX inference engine.
//
// This file contains the reference implementation: a pure Go backend
// that exercises the full facade contract (model directory loading,
// seed handling, all four generation entry points, progress event
// delivery, resource lifecycle) without the tensor math. Output pixels
// are derived deterministically from the resolved seed and the inputs,
// so identical runs produce identical images.
//
// Real accelerated backends implement the same Engine/Context
// interfaces behind build tags.
package engine

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"fluxgen/imageio"
)

// Transformer geometry of the reference model, used to shape substep
// progress events the way the real forward pass does.
const (
	referenceDoubleBlocks = 8
	referenceSingleBlocks = 24
)

// Reference is the pure Go Engine implementation.
type Reference struct{}

// NewReference returns the reference engine.
func NewReference() *Reference {
	return &Reference{}
}

// Load validates the model directory and returns a generation context.
// The directory must exist and contain at least one .safetensors file.
func (e *Reference) Load(dir string) (Context, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &EngineError{Op: "Load", Message: fmt.Sprintf("model directory not found: %s", dir), Err: ErrModelNotFound}
		}
		return nil, &EngineError{Op: "Load", Message: fmt.Sprintf("cannot access model directory: %s", dir), Err: err}
	}
	if !info.IsDir() {
		return nil, &EngineError{Op: "Load", Message: fmt.Sprintf("not a directory: %s", dir), Err: ErrModelNotFound}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &EngineError{Op: "Load", Message: fmt.Sprintf("cannot read model directory: %s", dir), Err: err}
	}
	var weights []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".safetensors") {
			weights = append(weights, entry.Name())
		}
	}
	if len(weights) == 0 {
		return nil, &EngineError{
			Op:      "Load",
			Message: fmt.Sprintf("no .safetensors files in %s", dir),
			Err:     ErrModelLoadFailed,
		}
	}

	return &referenceContext{dir: dir, weights: weights, seed: -1}, nil
}

// referenceContext is a loaded reference model.
type referenceContext struct {
	dir     string
	weights []string
	seed    int64
	cb      Callbacks
	closed  bool
}

func (c *referenceContext) SetSeed(seed int64) {
	c.seed = seed
}

func (c *referenceContext) SetCallbacks(cb Callbacks) {
	c.cb = cb
}

func (c *referenceContext) ClearCallbacks() {
	c.cb = Callbacks{}
}

func (c *referenceContext) Info() string {
	return fmt.Sprintf("FLUX.2 reference backend: %s (%d weight files)", c.dir, len(c.weights))
}

// Close releases the context. Safe to call multiple times.
func (c *referenceContext) Close() error {
	c.closed = true
	c.cb = Callbacks{}
	return nil
}

func (c *referenceContext) Generate(prompt string, params Params) (*imageio.Image, error) {
	return c.run("Generate", params, mixString(c.seed, prompt), nil)
}

func (c *referenceContext) GenerateWithEmbeddings(embeddings []float32, seqLen int, params Params) (*imageio.Image, error) {
	if seqLen <= 0 || len(embeddings) < seqLen*TextDim {
		return nil, &EngineError{
			Op:      "GenerateWithEmbeddings",
			Message: fmt.Sprintf("embeddings buffer holds %d floats, need %d for %d tokens", len(embeddings), seqLen*TextDim, seqLen),
			Err:     ErrGenerationFailed,
		}
	}
	return c.run("GenerateWithEmbeddings", params, mixFloats(c.seed, embeddings), nil)
}

func (c *referenceContext) GenerateWithEmbeddingsAndNoise(embeddings []float32, seqLen int, noise []float32, params Params) (*imageio.Image, error) {
	if seqLen <= 0 || len(embeddings) < seqLen*TextDim {
		return nil, &EngineError{
			Op:      "GenerateWithEmbeddingsAndNoise",
			Message: fmt.Sprintf("embeddings buffer holds %d floats, need %d for %d tokens", len(embeddings), seqLen*TextDim, seqLen),
			Err:     ErrGenerationFailed,
		}
	}
	if len(noise) == 0 {
		return nil, &EngineError{
			Op:      "GenerateWithEmbeddingsAndNoise",
			Message: "noise buffer is empty",
			Err:     ErrGenerationFailed,
		}
	}
	return c.run("GenerateWithEmbeddingsAndNoise", params, mixFloats(mixFloats(c.seed, embeddings), noise), nil)
}

func (c *referenceContext) Img2Img(prompt string, input *imageio.Image, params Params) (*imageio.Image, error) {
	if err := input.Validate(); err != nil {
		return nil, &EngineError{Op: "Img2Img", Message: "invalid input image", Err: err}
	}
	if input.Width != params.Width || input.Height != params.Height {
		return nil, &EngineError{
			Op:      "Img2Img",
			Message: fmt.Sprintf("input is %dx%d but requested output is %dx%d", input.Width, input.Height, params.Width, params.Height),
			Err:     ErrGenerationFailed,
		}
	}
	return c.run("Img2Img", params, mixString(c.seed, prompt), input)
}

// run is the single blocking generation loop shared by all entry
// points. It emits step and substep events through the registered
// callbacks and fills the output deterministically from the mixed
// seed. When init is non-nil the output is blended toward it by
// (1 - strength), matching img2img semantics.
func (c *referenceContext) run(op string, params Params, mixedSeed int64, init *imageio.Image) (*imageio.Image, error) {
	if c.closed {
		return nil, &EngineError{Op: op, Message: "context already freed", Err: ErrContextClosed}
	}
	if err := params.Validate(); err != nil {
		return nil, &EngineError{Op: op, Message: "invalid parameters", Err: err}
	}

	for step := 1; step <= params.NumSteps; step++ {
		if c.cb.Step != nil {
			c.cb.Step(step, params.NumSteps)
		}
		c.emitSubsteps()
	}

	out, err := imageio.New(params.Width, params.Height)
	if err != nil {
		return nil, &EngineError{Op: op, Message: "allocating output", Err: err}
	}

	rng := rand.New(rand.NewSource(mixedSeed ^ int64(params.NumSteps)<<32))
	for i := range out.Pix {
		out.Pix[i] = uint8(rng.Intn(256))
	}

	if init != nil {
		// Blend toward the init image: strength 0 keeps the input,
		// strength 1 keeps the denoised output.
		s := params.Strength
		for i := range out.Pix {
			out.Pix[i] = uint8(s*float64(out.Pix[i]) + (1-s)*float64(init.Pix[i]) + 0.5)
		}
	}

	return out, nil
}

// emitSubsteps walks one forward pass worth of substep events.
func (c *referenceContext) emitSubsteps() {
	if c.cb.Substep == nil {
		return
	}
	for i := 0; i < referenceDoubleBlocks; i++ {
		c.cb.Substep(SubstepDoubleBlock, i, referenceDoubleBlocks)
	}
	for i := 0; i < referenceSingleBlocks; i++ {
		c.cb.Substep(SubstepSingleBlock, i, referenceSingleBlocks)
	}
	c.cb.Substep(SubstepFinalLayer, 0, 1)
}

// mixString folds a string into the seed with FNV-1a so different
// prompts produce different images under the same seed.
func mixString(seed int64, s string) int64 {
	h := uint64(1469598103934665603)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return seed ^ int64(h)
}

// mixFloats folds a float buffer into the seed.
func mixFloats(seed int64, buf []float32) int64 {
	h := uint64(1469598103934665603)
	h ^= uint64(len(buf))
	h *= 1099511628211
	// Sampling a prefix is enough to distinguish inputs cheaply.
	n := len(buf)
	if n > 1024 {
		n = 1024
	}
	for i := 0; i < n; i++ {
		h ^= uint64(int32(buf[i] * 65536))
		h *= 1099511628211
	}
	return seed ^ int64(h)
}

// Ensure the reference types satisfy the facade interfaces.
var (
	_ Engine  = (*Reference)(nil)
	_ Context = (*referenceContext)(nil)
)
