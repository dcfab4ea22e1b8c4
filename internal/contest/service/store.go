package service

import (
	"context"
	"time"

	"coderena/internal/common/db"
	"coderena/internal/contest/model"
)

// SubmissionStore is the persistence surface the services need for
// submissions. *repository.SubmissionRepository satisfies it.
type SubmissionStore interface {
	Create(ctx context.Context, sub *model.Submission) error
	FindByToken(ctx context.Context, token string) (*model.Submission, error)
	FindByIDForUpdate(ctx context.Context, tx db.Transaction, id int64) (*model.Submission, error)
	MarkTerminal(ctx context.Context, tx db.Transaction, id int64, state model.CodeState, points int, judgedAt time.Time) (bool, error)
	BestPointsFor(ctx context.Context, tx db.Transaction, teamID, problemID, excludeID int64) (int, error)
	ReassignBest(ctx context.Context, tx db.Transaction, teamID, problemID int64) error
	InvalidateToken(ctx context.Context, token string)
}

// ProblemStore reads problems with their judge data.
type ProblemStore interface {
	FindOneForJudge(ctx context.Context, id int64) (*model.Problem, error)
}

// TeamStore reads teams and applies score deltas.
type TeamStore interface {
	FindOneByID(ctx context.Context, id int64) (*model.Team, error)
	AddPoints(ctx context.Context, tx db.Transaction, teamID int64, delta int) (int, error)
}
