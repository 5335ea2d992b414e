// fluxgen generates images with a FLUX.2 klein model from the command
// line.
//
// Usage:
//
//	fluxgen -d model/ -p "a cat on a rainbow" -o cat.png
//	fluxgen -d model/ -p "oil painting style" -i photo.png -o art.png -t 0.7
//	fluxgen -d model/ -e embeddings.bin -n noise.bin -o out.png -v
//
// Standard output carries nothing but the final output path (and only
// in non-verbose mode), so the tool composes cleanly in pipelines. The
// resolved seed and all diagnostics go to standard error.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"fluxgen/core"
	"fluxgen/engine"
	"fluxgen/history"
	"fluxgen/logging"
	"fluxgen/shutdown"
)

const (
	appName    = "fluxgen"
	appVersion = "1.0.0"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	opts        core.Options
	showHelp    bool
	showVersion bool
}

// newFlagSet declares the flag surface. params carries the effective
// defaults (built-ins overlaid with the YAML defaults file) so that
// help output shows what an omitted flag will actually do.
func newFlagSet(cf *cliFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.SortFlags = false

	p := &cf.opts.Params
	fs.StringVarP(&cf.opts.ModelDir, "dir", "d", "", "path to model directory (safetensors)")
	fs.StringVarP(&cf.opts.Prompt, "prompt", "p", "", "text prompt for generation")
	fs.StringVarP(&cf.opts.OutputPath, "output", "o", "", "output image path (.png, .jpg, .ppm)")
	fs.IntVarP(&p.Width, "width", "W", p.Width, "output width")
	fs.IntVarP(&p.Height, "height", "H", p.Height, "output height")
	fs.IntVarP(&p.NumSteps, "steps", "s", p.NumSteps, "number of sampling steps")
	fs.Float64VarP(&p.GuidanceScale, "guidance", "g", p.GuidanceScale, "guidance scale")
	fs.Int64VarP(&p.Seed, "seed", "S", -1, "random seed (-1 for random)")
	fs.StringVarP(&cf.opts.InputPath, "input", "i", "", "input image for img2img")
	fs.Float64VarP(&p.Strength, "strength", "t", p.Strength, "img2img strength (0.0-1.0)")
	fs.StringVarP(&cf.opts.EmbeddingsPath, "embeddings", "e", "", "load text embeddings from binary file")
	fs.StringVarP(&cf.opts.NoisePath, "noise", "n", "", "load initial noise from binary file")
	fs.BoolVarP(&cf.opts.Verbose, "verbose", "v",
		core.ParseBoolEnv(core.EnvVerbose, false), "enable verbose output")
	fs.BoolVarP(&cf.showHelp, "help", "h", false, "show this help")
	fs.BoolVarP(&cf.showVersion, "version", "V", false, "show version")

	fs.SetOutput(os.Stderr)
	fs.Usage = func() { printUsage(fs) }
	return fs
}

func run(args []string) int {
	// Load .env if present; absence is not an error for a CLI tool.
	_ = godotenv.Load()

	fileCfg, err := core.LoadDefaultFileConfig()
	if err != nil {
		errorf("Error: %v", err)
		return core.ExitCodeError
	}

	cf := cliFlags{}
	cf.opts.Params = engine.DefaultParams()
	fileCfg.ApplyDefaults(&cf.opts.Params)

	fs := newFlagSet(&cf)
	if err := fs.Parse(args); err != nil {
		// pflag has already printed the error and usage to stderr.
		return core.ExitCodeError
	}
	cf.opts.WidthSet = fs.Changed("width")
	cf.opts.HeightSet = fs.Changed("height")

	if cf.showHelp {
		printUsage(fs)
		return core.ExitCodeSuccess
	}
	if cf.showVersion {
		printVersion()
		return core.ExitCodeSuccess
	}

	// Fail fast on bad arguments, before the logger or any resource
	// exists, the way a user expects a CLI to behave.
	if err := cf.opts.Validate(); err != nil {
		errorf("Error: %v", err)
		fmt.Fprintln(os.Stderr)
		printUsage(fs)
		return core.ExitCodeError
	}

	logger, err := logging.NewLogger(cf.opts.Verbose, fileCfg.LogFilePath())
	if err != nil {
		errorf("Error: failed to initialize logger: %v", err)
		return core.ExitCodeError
	}
	defer logger.Sync()

	if cf.opts.Verbose {
		printBanner(cf.opts)
	}

	// Run history is best-effort: a broken history database must not
	// stop image generation.
	var store *history.Store
	if path := fileCfg.HistoryDBPath(); path != "" {
		store, err = history.Open(path)
		if err != nil {
			logger.Warn("run history disabled", zap.Error(err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	// Ctrl+C mid-run discards any partially written output and exits
	// with the conventional signal code.
	handler := shutdown.New(logger)
	handler.OnExit(shutdown.RemoveFile(logger, cf.opts.OutputPath))
	handler.OnExit(func() { logger.Sync() })
	handler.Start()
	defer handler.Stop()

	pipeline := &core.Pipeline{
		Engine:  engine.NewReference(),
		Log:     logger,
		Stderr:  os.Stderr,
		History: store,
	}

	result, err := pipeline.Run(cf.opts)
	if err != nil {
		errorf("Error: %v", err)
		return core.ExitCodeForError(err)
	}

	if cf.opts.Verbose {
		logger.Info("done",
			zap.String("output", result.OutputPath),
			zap.Int64("seed", result.Seed.Resolved),
			zap.Duration("generation_time", result.GenerationTime),
		)
	} else {
		// The one thing on stdout: the output path.
		fmt.Println(result.OutputPath)
	}
	return core.ExitCodeSuccess
}

// errorf prints a single error line to stderr, red when the terminal
// supports it.
func errorf(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, format+"\n", args...)
}

// printBanner writes the verbose run summary, mirroring what the run
// is about to do.
func printBanner(opts core.Options) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(os.Stderr, "%s - FLUX.2 klein image generator\n", appName)
	fmt.Fprintf(os.Stderr, "Model:    %s\n", opts.ModelDir)
	if opts.Prompt != "" {
		fmt.Fprintf(os.Stderr, "Prompt:   %s\n", opts.Prompt)
	}
	if opts.EmbeddingsPath != "" {
		fmt.Fprintf(os.Stderr, "Embeddings: %s\n", opts.EmbeddingsPath)
	}
	if opts.NoisePath != "" {
		fmt.Fprintf(os.Stderr, "Noise:    %s\n", opts.NoisePath)
	}
	fmt.Fprintf(os.Stderr, "Output:   %s\n", opts.OutputPath)
	fmt.Fprintf(os.Stderr, "Size:     %dx%d\n", opts.Params.Width, opts.Params.Height)
	fmt.Fprintf(os.Stderr, "Steps:    %d\n", opts.Params.NumSteps)
	fmt.Fprintf(os.Stderr, "Guidance: %.2f\n", opts.Params.GuidanceScale)
	if opts.InputPath != "" {
		fmt.Fprintf(os.Stderr, "Input:    %s\n", opts.InputPath)
		fmt.Fprintf(os.Stderr, "Strength: %.2f\n", opts.Params.Strength)
	}
	fmt.Fprintln(os.Stderr)
}

func printUsage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "%s - FLUX.2 klein image generation\n\n", appName)
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", appName)
	fmt.Fprintf(os.Stderr, "Options:\n%s\n", fs.FlagUsages())
	fmt.Fprintf(os.Stderr, "Examples:\n")
	fmt.Fprintf(os.Stderr, "  %s -d model/ -p \"a cat on a rainbow\" -o cat.png\n", appName)
	fmt.Fprintf(os.Stderr, "  %s -d model/ -p \"oil painting style\" -i photo.png -o art.png -t 0.7\n", appName)
	fmt.Fprintf(os.Stderr, "  %s -d model/ -e embeddings.bin -o out.png -v\n", appName)
}

func printVersion() {
	fmt.Fprintf(os.Stderr, "%s - FLUX.2 klein image generator\n", appName)
	fmt.Fprintf(os.Stderr, "Version: %s\n", appVersion)
}
