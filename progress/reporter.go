// Package progress renders two-level generation progress as an
// incremental terminal stream.
//
// The inference engine delivers step and substep events synchronously
// from inside its blocking generate call. The Reporter turns those
// events into one line per sampling step with per-block markers
// appended, and guarantees the terminal is never left mid-line: the
// pipeline arms the reporter immediately before the generate call and
// disarms it immediately after, on success and failure alike.
package progress

import (
	"fmt"
	"io"

	"fluxgen/engine"
)

// singleBlockStride bounds marker volume for models with many single
// blocks: only every singleBlockStride'th single-block event renders.
const singleBlockStride = 5

// Substep marker characters.
const (
	markerDoubleBlock = "d"
	markerSingleBlock = "s"
	markerFinalLayer  = "F"
)

// Reporter consumes engine progress events and writes a human-readable
// stream to w. It is owned by the pipeline for the lifetime of one
// generation call and must only be fed events between Arm and Disarm;
// events outside that window are dropped.
//
// Reporter is not safe for concurrent use. It does not need to be:
// events are delivered reentrantly on the goroutine that is blocked in
// the generate call.
type Reporter struct {
	w           io.Writer
	armed       bool
	currentStep int
}

// NewReporter returns a disarmed reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Arm resets the reporter and starts accepting events.
func (r *Reporter) Arm() {
	r.currentStep = 0
	r.armed = true
}

// Armed reports whether the reporter currently accepts events.
func (r *Reporter) Armed() bool {
	return r.armed
}

// Step handles the start of sampling step `step` of `total`. If a
// previous step's line is still open it is terminated first.
func (r *Reporter) Step(step, total int) {
	if !r.armed {
		return
	}
	if r.currentStep > 0 {
		fmt.Fprintln(r.w)
	}
	r.currentStep = step
	fmt.Fprintf(r.w, "Step %d/%d ", step, total)
}

// Substep handles progress inside one step's forward pass, appending a
// marker to the open step line. Single-block events render only every
// fifth event to keep output bounded.
func (r *Reporter) Substep(kind engine.SubstepKind, index, total int) {
	if !r.armed {
		return
	}
	switch kind {
	case engine.SubstepDoubleBlock:
		io.WriteString(r.w, markerDoubleBlock)
	case engine.SubstepSingleBlock:
		if (index+1)%singleBlockStride == 0 {
			io.WriteString(r.w, markerSingleBlock)
		}
	case engine.SubstepFinalLayer:
		io.WriteString(r.w, markerFinalLayer)
	}
}

// Disarm stops accepting events and closes any open step line with a
// trailing newline. Safe to call on an already-disarmed reporter.
func (r *Reporter) Disarm() {
	if r.armed && r.currentStep > 0 {
		fmt.Fprintln(r.w)
	}
	r.currentStep = 0
	r.armed = false
}
