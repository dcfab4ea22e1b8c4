// Package repository persists contest records over the db and cache
// abstractions.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	cachex "coderena/internal/common/cache"
	"coderena/internal/common/db"
	"coderena/internal/contest/model"
	appErr "coderena/pkg/errors"
	"coderena/pkg/utils/logger"

	"go.uber.org/zap"
)

const submissionKeyPrefix = "contest:submission:"

const (
	defaultSubmissionCacheTTL      = 10 * time.Minute
	defaultSubmissionCacheEmptyTTL = 2 * time.Minute
)

// SubmissionRepository handles submission persistence. Token lookups go
// through the cache; the cache entry is dropped on every state change so
// readers never see a stale terminal state for long.
type SubmissionRepository struct {
	database db.Database
	cache    cachex.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewSubmissionRepository creates a new repository.
func NewSubmissionRepository(database db.Database, cacheClient cachex.Cache, ttl, emptyTTL time.Duration) *SubmissionRepository {
	if ttl <= 0 {
		ttl = defaultSubmissionCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultSubmissionCacheEmptyTTL
	}
	return &SubmissionRepository{
		database: database,
		cache:    cacheClient,
		ttl:      ttl,
		emptyTTL: emptyTTL,
	}
}

// Create inserts a new submission and fills in its id.
func (r *SubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	if sub == nil {
		return appErr.ValidationError("submission", "required")
	}
	if sub.Token == "" {
		return appErr.ValidationError("token", "required")
	}

	query := `INSERT INTO submissions
		(token, team_id, problem_id, language, code, state, points, best, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?)`
	res, err := r.database.Exec(ctx, query,
		sub.Token, sub.TeamID, sub.ProblemID, sub.Language, sub.Code, string(sub.State), sub.CreatedAt)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return appErr.Wrapf(err, appErr.SubmissionCreateFailed, "duplicate submission token")
		}
		return appErr.Wrapf(err, appErr.DatabaseError, "insert submission failed")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "read submission id failed")
	}
	sub.ID = id
	return nil
}

// FindByToken returns the submission the engine token belongs to, going
// through the cache first.
func (r *SubmissionRepository) FindByToken(ctx context.Context, token string) (*model.Submission, error) {
	if token == "" {
		return nil, appErr.ValidationError("token", "required")
	}
	if r.cache == nil {
		return r.findByTokenFromDB(ctx, token)
	}

	sub, err := cachex.GetWithCached[*model.Submission](
		ctx,
		r.cache,
		submissionKeyPrefix+token,
		cachex.JitterTTL(r.ttl),
		cachex.JitterTTL(r.emptyTTL),
		func(s *model.Submission) bool { return s == nil },
		marshalSubmission,
		unmarshalSubmission,
		func(ctx context.Context) (*model.Submission, error) {
			sub, err := r.findByTokenFromDB(ctx, token)
			if err != nil {
				if appErr.Is(err, appErr.UnknownToken) {
					return nil, nil
				}
				return nil, err
			}
			return sub, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, appErr.New(appErr.UnknownToken)
	}
	return sub, nil
}

// FindByIDForUpdate re-reads a submission inside tx with a row lock.
func (r *SubmissionRepository) FindByIDForUpdate(ctx context.Context, tx db.Transaction, id int64) (*model.Submission, error) {
	query := selectSubmission + ` WHERE id = ? FOR UPDATE`
	return r.scanSubmission(db.GetQuerier(r.database, tx).QueryRow(ctx, query, id))
}

// MarkTerminal moves a submission from QUEUED to the given terminal state.
// It reports false when the row was already terminal, which is how
// redelivered callbacks collapse into no-ops.
func (r *SubmissionRepository) MarkTerminal(ctx context.Context, tx db.Transaction, id int64, state model.CodeState, points int, judgedAt time.Time) (bool, error) {
	if !state.IsTerminal() {
		return false, appErr.ValidationError("state", "terminal_required")
	}
	query := `UPDATE submissions SET state = ?, points = ?, judged_at = ?
		WHERE id = ? AND state = ?`
	res, err := db.GetQuerier(r.database, tx).Exec(ctx, query,
		string(state), points, judgedAt, id, string(model.StateQueued))
	if err != nil {
		return false, appErr.Wrapf(err, appErr.DatabaseError, "mark submission terminal failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, appErr.Wrapf(err, appErr.DatabaseError, "mark submission terminal failed")
	}
	return affected > 0, nil
}

// BestPointsFor returns the highest points among the team's scoring
// submissions for the problem, excluding the given submission id.
func (r *SubmissionRepository) BestPointsFor(ctx context.Context, tx db.Transaction, teamID, problemID, excludeID int64) (int, error) {
	query := `SELECT COALESCE(MAX(points), 0) FROM submissions
		WHERE team_id = ? AND problem_id = ? AND id <> ? AND state IN (?, ?)`
	var points int
	err := db.GetQuerier(r.database, tx).QueryRow(ctx, query,
		teamID, problemID, excludeID,
		string(model.StateAccepted), string(model.StateWrongAnswer)).Scan(&points)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.DatabaseError, "query best points failed")
	}
	return points, nil
}

// ReassignBest recomputes the best flag for the team/problem pair. Exactly
// one scoring submission ends up flagged; ties go to the earliest one.
func (r *SubmissionRepository) ReassignBest(ctx context.Context, tx db.Transaction, teamID, problemID int64) error {
	querier := db.GetQuerier(r.database, tx)

	clearQuery := `UPDATE submissions SET best = 0
		WHERE team_id = ? AND problem_id = ? AND best = 1`
	if _, err := querier.Exec(ctx, clearQuery, teamID, problemID); err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "clear best flag failed")
	}

	set := `UPDATE submissions SET best = 1
		WHERE team_id = ? AND problem_id = ? AND state IN (?, ?)
		ORDER BY points DESC, id ASC LIMIT 1`
	if _, err := querier.Exec(ctx, set, teamID, problemID,
		string(model.StateAccepted), string(model.StateWrongAnswer)); err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "set best flag failed")
	}
	return nil
}

// InvalidateToken drops the cached entry for the token.
func (r *SubmissionRepository) InvalidateToken(ctx context.Context, token string) {
	if r.cache == nil || token == "" {
		return
	}
	if err := r.cache.Del(ctx, submissionKeyPrefix+token); err != nil {
		logger.Warn(ctx, "invalidate submission cache failed",
			zap.String("token", token), zap.Error(err))
	}
}

const selectSubmission = `SELECT id, token, team_id, problem_id, language, code, state, points, best, created_at, judged_at
	FROM submissions`

func (r *SubmissionRepository) findByTokenFromDB(ctx context.Context, token string) (*model.Submission, error) {
	query := selectSubmission + ` WHERE token = ?`
	sub, err := r.scanSubmission(r.database.QueryRow(ctx, query, token))
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *SubmissionRepository) scanSubmission(row db.Row) (*model.Submission, error) {
	var sub model.Submission
	var state string
	var judgedAt sql.NullTime
	err := row.Scan(&sub.ID, &sub.Token, &sub.TeamID, &sub.ProblemID,
		&sub.Language, &sub.Code, &state, &sub.Points, &sub.Best,
		&sub.CreatedAt, &judgedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, appErr.New(appErr.UnknownToken)
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "scan submission failed")
	}
	sub.State = model.CodeState(state)
	if judgedAt.Valid {
		sub.JudgedAt = judgedAt.Time
	}
	return &sub, nil
}

func marshalSubmission(sub *model.Submission) string {
	if sub == nil {
		return ""
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalSubmission(data string) (*model.Submission, error) {
	var sub model.Submission
	if err := json.Unmarshal([]byte(data), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
