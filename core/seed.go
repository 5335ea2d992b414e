package core

import (
	"time"
)

// SeedResolution records which seed a run asked for and which seed it
// actually used. The resolved seed is reported to the user before
// generation, unconditionally, so any run can be reproduced later by
// passing Resolved as the explicit seed.
type SeedResolution struct {
	// Requested is the seed from the command line; -1 means "pick one".
	Requested int64
	// Resolved is the concrete seed handed to the engine.
	Resolved int64
}

// Random reports whether the seed was picked rather than requested.
func (s SeedResolution) Random() bool {
	return s.Requested < 0
}

// ResolveSeed resolves the seed for one run. A negative request
// resolves to the current wall-clock time at second granularity.
func ResolveSeed(requested int64) SeedResolution {
	return ResolveSeedAt(requested, time.Now())
}

// ResolveSeedAt is ResolveSeed with an injected clock.
func ResolveSeedAt(requested int64, now time.Time) SeedResolution {
	if requested >= 0 {
		return SeedResolution{Requested: requested, Resolved: requested}
	}
	return SeedResolution{Requested: requested, Resolved: now.Unix()}
}
