package core

// ModeKind identifies one of the three mutually exclusive generation
// strategies.
type ModeKind int

const (
	// ModePromptOnly generates from the prompt via the built-in text
	// encoder.
	ModePromptOnly ModeKind = iota
	// ModeEmbeddings generates from precomputed text embeddings,
	// optionally with externally supplied latent noise.
	ModeEmbeddings
	// ModeImg2Img denoises from an input image at the configured
	// strength.
	ModeImg2Img
)

// String returns the mode name used in logs and history records.
func (k ModeKind) String() string {
	switch k {
	case ModePromptOnly:
		return "prompt"
	case ModeEmbeddings:
		return "embeddings"
	case ModeImg2Img:
		return "img2img"
	default:
		return "unknown"
	}
}

// Mode is the tagged generation-mode variant, constructed exactly once
// per run before any resource is acquired. Only the fields of the
// selected kind are populated.
type Mode struct {
	Kind           ModeKind
	InputPath      string // ModeImg2Img
	EmbeddingsPath string // ModeEmbeddings
	NoisePath      string // ModeEmbeddings, optional
}

// SelectMode picks the generation mode from the optional inputs.
// Priority order, first match wins: input image, embeddings file,
// prompt. Selection is exclusive: an input image suppresses an
// embeddings path, and a noise path only takes effect alongside an
// embeddings path.
func SelectMode(inputPath, embeddingsPath, noisePath string) Mode {
	switch {
	case inputPath != "":
		return Mode{Kind: ModeImg2Img, InputPath: inputPath}
	case embeddingsPath != "":
		return Mode{Kind: ModeEmbeddings, EmbeddingsPath: embeddingsPath, NoisePath: noisePath}
	default:
		return Mode{Kind: ModePromptOnly}
	}
}
