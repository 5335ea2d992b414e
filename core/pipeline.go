package core

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"fluxgen/engine"
	"fluxgen/history"
	"fluxgen/imageio"
	"fluxgen/logging"
	"fluxgen/progress"
	"fluxgen/tensorio"
)

// Pipeline drives one generation run end to end: seed resolution, mode
// selection, model loading, the single blocking generation call with
// progress reporting, image persistence, and the best-effort history
// record.
//
// Execution is fully sequential; there is exactly one job per
// invocation. Every resource acquired for the run (model context,
// input image, tensor buffers, generated image) is released on every
// exit path, and none is released twice.
type Pipeline struct {
	// Engine is the inference engine facade. Required.
	Engine engine.Engine

	// Log receives structured diagnostics. Required.
	Log *logging.Logger

	// Stderr receives the seed line and progress output. Required.
	// The seed is written here unconditionally so any run can be
	// reproduced.
	Stderr io.Writer

	// History optionally records completed runs. May be nil.
	History *history.Store

	// Now is the clock used for seed resolution. Defaults to time.Now.
	Now func() time.Time
}

// Result describes a completed run.
type Result struct {
	OutputPath     string
	Seed           SeedResolution
	Mode           Mode
	Width          int
	Height         int
	LoadTime       time.Duration
	GenerationTime time.Duration
}

// Run executes one generation run. It returns a *RunError on failure;
// no failure is retried and no partial output survives.
func (p *Pipeline) Run(opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}

	// Seed and mode are resolved before any resource is acquired.
	seed := ResolveSeedAt(opts.Params.Seed, now())
	mode := SelectMode(opts.InputPath, opts.EmbeddingsPath, opts.NoisePath)

	p.Log.Debug("run configured",
		zap.String("mode", mode.Kind.String()),
		zap.Int("width", opts.Params.Width),
		zap.Int("height", opts.Params.Height),
		zap.Int("steps", opts.Params.NumSteps),
		zap.Float64("guidance", opts.Params.GuidanceScale),
		zap.Int64("seed_requested", seed.Requested),
	)

	p.Log.Info("loading model", zap.String("dir", opts.ModelDir))
	loadStart := now()
	mctx, err := p.Engine.Load(opts.ModelDir)
	if err != nil {
		return nil, ErrModelLoad(opts.ModelDir, err)
	}
	defer mctx.Close()
	loadTime := now().Sub(loadStart)
	p.Log.Info("model loaded",
		zap.Duration("load_time", loadTime),
		zap.String("model", mctx.Info()),
	)

	// Always print the seed so runs can be reproduced.
	fmt.Fprintf(p.Stderr, "Seed: %d\n", seed.Resolved)
	mctx.SetSeed(seed.Resolved)

	// Arm the reporter around the single blocking generation call.
	// Verbose runs render progress; otherwise generation is silent.
	var reporter *progress.Reporter
	if opts.Verbose {
		reporter = progress.NewReporter(p.Stderr)
		reporter.Arm()
		mctx.SetCallbacks(engine.Callbacks{
			Step:    reporter.Step,
			Substep: reporter.Substep,
		})
	}

	genStart := now()
	output, genErr := p.generate(mctx, mode, opts)
	genTime := now().Sub(genStart)

	// Disarm immediately after the call returns, success or failure,
	// so the terminal is never left mid-line and late events are
	// dropped rather than rendered.
	if reporter != nil {
		mctx.ClearCallbacks()
		reporter.Disarm()
	}

	if genErr != nil {
		return nil, genErr
	}
	if output == nil {
		return nil, ErrGeneration(mode.Kind.String(), engine.ErrGenerationFailed)
	}

	p.Log.Info("image generated",
		zap.Duration("generation_time", genTime),
		zap.Int("width", output.Width),
		zap.Int("height", output.Height),
		zap.Int("channels", output.Channels),
	)

	p.Log.Info("saving image", zap.String("path", opts.OutputPath))
	if err := imageio.Save(output, opts.OutputPath); err != nil {
		return nil, ErrImageSave(opts.OutputPath, err)
	}

	result := &Result{
		OutputPath:     opts.OutputPath,
		Seed:           seed,
		Mode:           mode,
		Width:          output.Width,
		Height:         output.Height,
		LoadTime:       loadTime,
		GenerationTime: genTime,
	}

	p.recordHistory(opts, result)

	return result, nil
}

// generate dispatches to the mode-specific engine entry point, loading
// whatever external inputs the mode needs first. Mutates
// opts.Params locally only (Options is passed by value).
func (p *Pipeline) generate(mctx engine.Context, mode Mode, opts Options) (*imageio.Image, error) {
	switch mode.Kind {
	case ModeImg2Img:
		return p.generateImg2Img(mctx, mode, opts)
	case ModeEmbeddings:
		return p.generateEmbeddings(mctx, mode, opts)
	default:
		p.Log.Info("generating", zap.String("prompt", opts.Prompt))
		img, err := mctx.Generate(opts.Prompt, opts.Params)
		if err != nil {
			return nil, ErrGeneration(mode.Kind.String(), err)
		}
		return img, nil
	}
}

func (p *Pipeline) generateImg2Img(mctx engine.Context, mode Mode, opts Options) (*imageio.Image, error) {
	p.Log.Info("loading input image", zap.String("path", mode.InputPath))
	input, err := imageio.Load(mode.InputPath)
	if err != nil {
		return nil, ErrImageLoad(mode.InputPath, err)
	}
	p.Log.Info("input image loaded",
		zap.Int("width", input.Width),
		zap.Int("height", input.Height),
		zap.Int("channels", input.Channels),
	)

	// Adopt the input image's dimensions unless the caller explicitly
	// requested a size; an explicitly requested size resizes the input
	// instead.
	if !opts.WidthSet {
		opts.Params.Width = input.Width
	}
	if !opts.HeightSet {
		opts.Params.Height = input.Height
	}
	if input.Width != opts.Params.Width || input.Height != opts.Params.Height {
		p.Log.Info("resizing input image",
			zap.Int("width", opts.Params.Width),
			zap.Int("height", opts.Params.Height),
		)
		input, err = imageio.Resize(input, opts.Params.Width, opts.Params.Height)
		if err != nil {
			return nil, ErrImageLoad(mode.InputPath, err)
		}
	}

	p.Log.Info("generating",
		zap.String("prompt", opts.Prompt),
		zap.Float64("strength", opts.Params.Strength),
	)
	img, err := mctx.Img2Img(opts.Prompt, input, opts.Params)
	if err != nil {
		return nil, ErrGeneration(mode.Kind.String(), err)
	}
	return img, nil
}

func (p *Pipeline) generateEmbeddings(mctx engine.Context, mode Mode, opts Options) (*imageio.Image, error) {
	p.Log.Info("loading embeddings", zap.String("path", mode.EmbeddingsPath))
	emb, err := tensorio.LoadEmbeddings(mode.EmbeddingsPath, engine.TextDim)
	if err != nil {
		return nil, ErrEmbeddingsFile(mode.EmbeddingsPath, err)
	}
	p.Log.Info("embeddings loaded",
		zap.Int("tokens", emb.SeqLen),
		zap.Int("dim", emb.Dim),
		zap.Float64("size_mb", float64(emb.ByteSize())/(1024.0*1024.0)),
	)

	if mode.NoisePath == "" {
		img, err := mctx.GenerateWithEmbeddings(emb.Data, emb.SeqLen, opts.Params)
		if err != nil {
			return nil, ErrGeneration(mode.Kind.String(), err)
		}
		return img, nil
	}

	p.Log.Info("loading noise", zap.String("path", mode.NoisePath))
	noise, err := tensorio.LoadNoise(mode.NoisePath)
	if err != nil {
		return nil, ErrNoiseFile(mode.NoisePath, err)
	}
	p.Log.Info("noise loaded",
		zap.Int("floats", len(noise)),
		zap.Float64("size_kb", float64(len(noise)*4)/1024.0),
	)

	img, err := mctx.GenerateWithEmbeddingsAndNoise(emb.Data, emb.SeqLen, noise, opts.Params)
	if err != nil {
		return nil, ErrGeneration(mode.Kind.String(), err)
	}
	return img, nil
}

// recordHistory inserts the completed run into the history store, if
// one is configured. It runs after the image is persisted and a
// failure here only warns, never fails the run.
func (p *Pipeline) recordHistory(opts Options, result *Result) {
	if p.History == nil {
		return
	}

	run, err := p.History.RecordRun(history.Run{
		Mode:       result.Mode.Kind.String(),
		Prompt:     opts.Prompt,
		Seed:       result.Seed.Resolved,
		Width:      result.Width,
		Height:     result.Height,
		Steps:      opts.Params.NumSteps,
		Guidance:   opts.Params.GuidanceScale,
		Strength:   opts.Params.Strength,
		OutputPath: result.OutputPath,
		DurationMS: result.GenerationTime.Milliseconds(),
	})
	if err != nil {
		p.Log.Warn("failed to record run history", zap.Error(err))
		return
	}
	p.Log.Debug("run recorded", zap.String("run_id", run.ID))
}
