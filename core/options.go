package core

import (
	"fluxgen/engine"
)

// Options are the validated inputs for one generation run, assembled
// by the CLI layer from flags, environment, and the defaults file.
type Options struct {
	// ModelDir is the safetensors model directory. Required.
	ModelDir string

	// Prompt is the text prompt. Required unless EmbeddingsPath is set.
	Prompt string

	// OutputPath is where the generated image is written. Required.
	OutputPath string

	// InputPath selects img2img mode when non-empty.
	InputPath string

	// EmbeddingsPath selects external-embeddings mode when non-empty
	// (and InputPath is empty).
	EmbeddingsPath string

	// NoisePath optionally supplies latent noise alongside embeddings.
	NoisePath string

	// Params are the generation parameters. Params.Seed may be -1.
	Params engine.Params

	// WidthSet and HeightSet record whether the caller explicitly
	// requested a size. Img2img only overrides dimensions that were
	// not explicitly set; this is caller-supplied state, never
	// inferred from equality with defaults.
	WidthSet  bool
	HeightSet bool

	// Verbose enables progress reporting and diagnostics.
	Verbose bool
}

// Validate checks the run preconditions. Each unmet precondition is a
// distinct ArgumentError. Validation runs before any resource is
// acquired, so a bad invocation never loads the model.
func (o *Options) Validate() error {
	if o.ModelDir == "" {
		return ErrArgument("model directory (-d) is required")
	}
	if o.Prompt == "" && o.EmbeddingsPath == "" {
		return ErrArgument("prompt (-p) or embeddings file (-e) is required")
	}
	if o.OutputPath == "" {
		return ErrArgument("output path (-o) is required")
	}
	if err := o.Params.Validate(); err != nil {
		return ErrArgumentf("%v", err)
	}
	return nil
}
