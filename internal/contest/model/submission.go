// Package model defines the contest domain records and the submission
// state machine.
package model

import "time"

// CodeState is the lifecycle state of a submission.
type CodeState string

const (
	// StateQueued is the only initial state, assigned at creation time.
	// The time a submission spends inside the execution service is not
	// stored as a separate state.
	StateQueued CodeState = "QUEUED"

	// Scoring terminal states. Only these two feed the score aggregator.
	StateAccepted    CodeState = "ACCEPTED"
	StateWrongAnswer CodeState = "WRONG_ANSWER"

	// Non-scoring terminal states. They end the lifecycle but never
	// change a team's score.
	StateCompileError        CodeState = "COMPILE_ERROR"
	StateRuntimeError        CodeState = "RUNTIME_ERROR"
	StateTimeLimitExceeded   CodeState = "TIME_LIMIT_EXCEEDED"
	StateMemoryLimitExceeded CodeState = "MEMORY_LIMIT_EXCEEDED"
	StateOutputLimitExceeded CodeState = "OUTPUT_LIMIT_EXCEEDED"
	StateInternalError       CodeState = "INTERNAL_ERROR"
)

// IsTerminal reports whether the state is absorbing. Terminal submissions
// never transition again; redelivered callbacks become no-ops.
func (s CodeState) IsTerminal() bool {
	return s != "" && s != StateQueued
}

// IsScoring reports whether a terminal state feeds the score aggregator.
func (s CodeState) IsScoring() bool {
	return s == StateAccepted || s == StateWrongAnswer
}

// Submission is one team's attempt at one problem.
type Submission struct {
	ID int64 `json:"id"`

	// Token is the correlation key issued by the execution service.
	// Unique once assigned.
	Token string `json:"token"`

	TeamID    int64  `json:"team_id"`
	ProblemID int64  `json:"problem_id"`
	Language  int    `json:"language"`
	Code      string `json:"code"`

	State CodeState `json:"state"`

	// Points is non-zero only once State is a scoring terminal state.
	Points int `json:"points"`

	// Best marks the team's highest-scoring submission for this problem.
	Best bool `json:"best"`

	CreatedAt time.Time `json:"created_at"`
	JudgedAt  time.Time `json:"judged_at,omitempty"`
}
