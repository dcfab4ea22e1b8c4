package model

import "testing"

func TestMapEngineStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		statusID int
		want     CodeState
	}{
		{"in queue", 1, StateQueued},
		{"processing", 2, StateQueued},
		{"accepted", 3, StateAccepted},
		{"wrong answer", 4, StateWrongAnswer},
		{"time limit", 5, StateTimeLimitExceeded},
		{"compile error", 6, StateCompileError},
		{"sigsegv", 7, StateRuntimeError},
		{"nonzero exit", 11, StateRuntimeError},
		{"engine failure", 13, StateInternalError},
		{"exec format", 14, StateRuntimeError},
		{"memory limit", 15, StateMemoryLimitExceeded},
		{"output limit", 16, StateOutputLimitExceeded},
		{"unmapped id", 99, StateInternalError},
		{"zero id", 0, StateInternalError},
		{"negative id", -1, StateInternalError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := MapEngineStatus(tc.statusID); got != tc.want {
				t.Fatalf("MapEngineStatus(%d) = %s, want %s", tc.statusID, got, tc.want)
			}
		})
	}
}

func TestCodeStateIsTerminal(t *testing.T) {
	t.Parallel()

	if StateQueued.IsTerminal() {
		t.Fatal("QUEUED must not be terminal")
	}
	if CodeState("").IsTerminal() {
		t.Fatal("empty state must not be terminal")
	}
	terminals := []CodeState{
		StateAccepted, StateWrongAnswer, StateCompileError, StateRuntimeError,
		StateTimeLimitExceeded, StateMemoryLimitExceeded, StateOutputLimitExceeded,
		StateInternalError,
	}
	for _, state := range terminals {
		if !state.IsTerminal() {
			t.Fatalf("%s must be terminal", state)
		}
	}
}

func TestCodeStateIsScoring(t *testing.T) {
	t.Parallel()

	if !StateAccepted.IsScoring() || !StateWrongAnswer.IsScoring() {
		t.Fatal("ACCEPTED and WRONG_ANSWER must be scoring states")
	}
	nonScoring := []CodeState{
		StateQueued, StateCompileError, StateRuntimeError,
		StateTimeLimitExceeded, StateMemoryLimitExceeded, StateOutputLimitExceeded,
		StateInternalError,
	}
	for _, state := range nonScoring {
		if state.IsScoring() {
			t.Fatalf("%s must not be scoring", state)
		}
	}
}
