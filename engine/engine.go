// Package engine defines the facade over the FLUX inference engine.
//
// The engine is an external collaborator with a narrow, blocking API:
// load a model directory, run one of the generation entry points, free
// the context. This package defines the contract (interfaces, parameter
// and event types, typed errors) without committing callers to a
// particular backend. The interface allows for multiple implementations:
//   - Real CGo-backed implementation (CUDA / Metal builds)
//   - Reference implementation for testing and development
//   - Mock implementations for unit tests
package engine

import (
	"fluxgen/imageio"
)

// TextDim is the per-token embedding width of the text encoder. The
// embeddings file loader infers sequence length from file size using
// this constant.
const TextDim = 7680

// SubstepKind identifies which part of the transformer forward pass a
// substep progress event belongs to.
type SubstepKind int

const (
	// SubstepDoubleBlock is one double-stream transformer block.
	SubstepDoubleBlock SubstepKind = iota
	// SubstepSingleBlock is one single-stream transformer block.
	SubstepSingleBlock
	// SubstepFinalLayer is the final projection layer.
	SubstepFinalLayer
)

// String returns the human-readable name of the substep kind.
func (k SubstepKind) String() string {
	switch k {
	case SubstepDoubleBlock:
		return "double_block"
	case SubstepSingleBlock:
		return "single_block"
	case SubstepFinalLayer:
		return "final_layer"
	default:
		return "unknown"
	}
}

// Callbacks is the progress event sink registered around a generation
// call. Both callbacks are invoked synchronously on the calling
// goroutine from inside the blocking generate call, so implementations
// must be reentrant-safe with respect to that call and must not block.
// Either field may be nil.
type Callbacks struct {
	// Step marks the start of sampling step `step` of `total`.
	// Steps are 1-based and strictly increasing within one call.
	Step func(step, total int)

	// Substep marks progress inside one step's forward pass.
	Substep func(kind SubstepKind, index, total int)
}

// Engine loads models and hands out generation contexts.
type Engine interface {
	// Load loads the model from a safetensors directory.
	// The returned context must be closed by the caller.
	Load(dir string) (Context, error)
}

// Context is a loaded model ready to generate images.
//
// Contexts are not safe for concurrent use: the CLI runs exactly one
// generation per invocation and all progress callbacks are delivered
// on the calling goroutine.
type Context interface {
	// SetSeed sets the sampler seed for subsequent generation calls.
	SetSeed(seed int64)

	// SetCallbacks registers progress callbacks for subsequent
	// generation calls. ClearCallbacks removes them; events emitted
	// with no callbacks registered are dropped by the engine.
	SetCallbacks(cb Callbacks)
	ClearCallbacks()

	// Generate runs text-to-image generation with the built-in text
	// encoder. Blocks until the image is complete or generation fails.
	Generate(prompt string, params Params) (*imageio.Image, error)

	// GenerateWithEmbeddings runs text-to-image generation from
	// precomputed text embeddings of shape [1, seqLen, TextDim].
	GenerateWithEmbeddings(embeddings []float32, seqLen int, params Params) (*imageio.Image, error)

	// GenerateWithEmbeddingsAndNoise additionally supplies the initial
	// latent noise instead of sampling it from the seed.
	GenerateWithEmbeddingsAndNoise(embeddings []float32, seqLen int, noise []float32, params Params) (*imageio.Image, error)

	// Img2Img runs image-to-image generation, denoising from the input
	// image at the configured strength.
	Img2Img(prompt string, input *imageio.Image, params Params) (*imageio.Image, error)

	// Info returns a one-line human-readable model description.
	Info() string

	// Close releases the model context. Safe to call multiple times.
	Close() error
}
