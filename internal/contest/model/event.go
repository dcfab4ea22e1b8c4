package model

// ResultEventType discriminates result events on the wire.
type ResultEventType string

const (
	// ResultEventTerminal is emitted once per submission when it reaches
	// a terminal state.
	ResultEventTerminal ResultEventType = "submission.terminal"
)

// ResultEvent is published to the broker after a terminal transition so
// downstream consumers (scoreboards, notifications) can react without
// polling.
type ResultEvent struct {
	Type         ResultEventType `json:"type"`
	SubmissionID int64           `json:"submission_id"`
	Token        string          `json:"token"`
	TeamID       int64           `json:"team_id"`
	ProblemID    int64           `json:"problem_id"`
	State        CodeState       `json:"state"`
	Points       int             `json:"points"`
	Best         bool            `json:"best"`
	CreatedAt    int64           `json:"created_at"`
}
