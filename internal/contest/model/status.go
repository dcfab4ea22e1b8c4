package model

// Status ids reported by the execution engine. The table is configuration
// data owned by this service; the engine itself is a black box.
const (
	engineStatusInQueue    = 1
	engineStatusProcessing = 2
)

var engineStatusTable = map[int]CodeState{
	3:  StateAccepted,
	4:  StateWrongAnswer,
	5:  StateTimeLimitExceeded,
	6:  StateCompileError,
	7:  StateRuntimeError, // SIGSEGV
	8:  StateRuntimeError, // SIGXFSZ
	9:  StateRuntimeError, // SIGFPE
	10: StateRuntimeError, // SIGABRT
	11: StateRuntimeError, // non-zero exit
	12: StateRuntimeError, // other signal
	13: StateInternalError,
	14: StateRuntimeError, // exec format error
	15: StateMemoryLimitExceeded,
	16: StateOutputLimitExceeded,
}

// MapEngineStatus converts an engine status id to a CodeState.
// Ids 1 and 2 mean the engine is still working: they map to StateQueued and
// cause no transition. Unmapped ids fall through to INTERNAL_ERROR, a
// generic non-scoring terminal state.
func MapEngineStatus(statusID int) CodeState {
	if statusID == engineStatusInQueue || statusID == engineStatusProcessing {
		return StateQueued
	}
	if state, ok := engineStatusTable[statusID]; ok {
		return state
	}
	return StateInternalError
}
