// Package shutdown maps interrupt signals onto the CLI's exit
// discipline.
//
// A generation run is a single blocking call with no cancellation
// point, so the handler does not try to unwind it. On the first SIGINT
// or SIGTERM it runs the registered cleanups (removing a partial
// output file, flushing logs) and exits with the conventional
// 128+signal code. A second signal skips the cleanups and exits
// immediately.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"fluxgen/core"
	"fluxgen/logging"
)

// forceAfter is the signal count at which cleanups are skipped and the
// process exits immediately.
const forceAfter = 2

// ExitCodeForSignal maps a termination signal to its exit code.
func ExitCodeForSignal(sig os.Signal) int {
	if sig == syscall.SIGTERM {
		return core.ExitCodeSIGTERM
	}
	return core.ExitCodeSIGINT
}

// Handler watches for termination signals during one CLI run.
//
// The zero value is not usable; construct with New and call Start once.
type Handler struct {
	log     *logging.Logger
	signals chan os.Signal

	mu       sync.Mutex
	count    int
	cleanups []func()

	// exit is swappable for tests.
	exit func(int)
}

// New returns a handler logging through log.
func New(log *logging.Logger) *Handler {
	return &Handler{
		log:     log,
		signals: make(chan os.Signal, forceAfter),
		exit:    os.Exit,
	}
}

// OnExit registers a cleanup to run before a signal-triggered exit.
// Cleanups run in reverse registration order, mirroring defer.
func (h *Handler) OnExit(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, fn)
}

// Start subscribes to SIGINT and SIGTERM and begins watching in a
// background goroutine. Call Stop when the run finishes normally.
func (h *Handler) Start() {
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)
	go h.watch()
}

// Stop unsubscribes from signals. Pending signals already received
// still take effect.
func (h *Handler) Stop() {
	signal.Stop(h.signals)
}

func (h *Handler) watch() {
	for sig := range h.signals {
		h.handle(sig)
	}
}

// handle processes one signal delivery.
func (h *Handler) handle(sig os.Signal) {
	h.mu.Lock()
	h.count++
	count := h.count
	cleanups := h.cleanups
	h.mu.Unlock()

	if count >= forceAfter {
		h.exit(core.ExitCodeError)
		return
	}

	h.log.Warn("interrupted, cleaning up",
		zap.String("signal", sig.String()),
	)
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	h.exit(ExitCodeForSignal(sig))
}

// RemoveFile returns a cleanup that deletes path if it exists, for
// discarding a partially written output image. A missing file is not
// an error.
func RemoveFile(log *logging.Logger, path string) func() {
	return func() {
		if path == "" {
			return
		}
		err := os.Remove(path)
		switch {
		case err == nil:
			log.Info("removed partial output", zap.String("path", path))
		case os.IsNotExist(err):
		default:
			log.Warn("failed to remove partial output",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
}
