package core

import (
	"testing"
)

func TestExitCodeName_KnownCodes(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitCodeSuccess, "success"},
		{ExitCodeError, "error"},
		{ExitCodeSIGINT, "interrupted (SIGINT)"},
		{ExitCodeSIGTERM, "terminated (SIGTERM)"},
		{42, "unknown"},
	}

	for _, tt := range tests {
		if got := ExitCodeName(tt.code); got != tt.want {
			t.Errorf("ExitCodeName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestExitCodeForError(t *testing.T) {
	if got := ExitCodeForError(nil); got != ExitCodeSuccess {
		t.Errorf("ExitCodeForError(nil) = %d, want %d", got, ExitCodeSuccess)
	}
	if got := ExitCodeForError(ErrArgument("missing")); got != ExitCodeError {
		t.Errorf("ExitCodeForError(ArgumentError) = %d, want %d", got, ExitCodeError)
	}
	if got := ExitCodeForError(ErrGeneration("prompt", nil)); got != ExitCodeError {
		t.Errorf("ExitCodeForError(GenerationError) = %d, want %d", got, ExitCodeError)
	}
}

func TestIsSignalExit(t *testing.T) {
	if !IsSignalExit(ExitCodeSIGINT) || !IsSignalExit(ExitCodeSIGTERM) {
		t.Error("IsSignalExit = false for signal exit codes")
	}
	if IsSignalExit(ExitCodeSuccess) || IsSignalExit(ExitCodeError) {
		t.Error("IsSignalExit = true for non-signal exit codes")
	}
}
