package repository

import (
	"context"
	"encoding/json"
	"time"

	cachex "coderena/internal/common/cache"
	"coderena/internal/common/db"
	"coderena/internal/contest/model"
	appErr "coderena/pkg/errors"
)

const problemKeyPrefix = "contest:problem:"

const (
	defaultProblemCacheTTL      = 30 * time.Minute
	defaultProblemCacheEmptyTTL = 5 * time.Minute
)

// ProblemRepository handles problem reads. Problems change rarely during a
// contest, so lookups lean hard on the cache.
type ProblemRepository struct {
	database db.Database
	cache    cachex.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewProblemRepository creates a new repository.
func NewProblemRepository(database db.Database, cacheClient cachex.Cache, ttl, emptyTTL time.Duration) *ProblemRepository {
	if ttl <= 0 {
		ttl = defaultProblemCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultProblemCacheEmptyTTL
	}
	return &ProblemRepository{
		database: database,
		cache:    cacheClient,
		ttl:      ttl,
		emptyTTL: emptyTTL,
	}
}

// FindOneForJudge returns the problem with its judge data (input and
// expected output included).
func (r *ProblemRepository) FindOneForJudge(ctx context.Context, id int64) (*model.Problem, error) {
	if id <= 0 {
		return nil, appErr.ValidationError("problem_id", "required")
	}
	if r.cache == nil {
		return r.findOneFromDB(ctx, id)
	}

	problem, err := cachex.GetWithCached[*model.Problem](
		ctx,
		r.cache,
		problemKeyPrefix+formatID(id),
		cachex.JitterTTL(r.ttl),
		cachex.JitterTTL(r.emptyTTL),
		func(p *model.Problem) bool { return p == nil },
		marshalProblem,
		unmarshalProblem,
		func(ctx context.Context) (*model.Problem, error) {
			problem, err := r.findOneFromDB(ctx, id)
			if err != nil {
				if appErr.Is(err, appErr.ProblemNotFound) {
					return nil, nil
				}
				return nil, err
			}
			return problem, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, appErr.New(appErr.ProblemNotFound)
	}
	return problem, nil
}

func (r *ProblemRepository) findOneFromDB(ctx context.Context, id int64) (*model.Problem, error) {
	query := `SELECT id, name, max_points, input, expected_output, description_url, download_url
		FROM problems WHERE id = ?`
	var problem model.Problem
	err := r.database.QueryRow(ctx, query, id).Scan(
		&problem.ID, &problem.Name, &problem.MaxPoints,
		&problem.Input, &problem.ExpectedOutput,
		&problem.DescriptionURL, &problem.DownloadURL)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, appErr.New(appErr.ProblemNotFound)
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "query problem failed")
	}
	return &problem, nil
}

func marshalProblem(problem *model.Problem) string {
	if problem == nil {
		return ""
	}
	data, err := json.Marshal(problem)
	if err != nil {
		return ""
	}
	return string(data)
}

func unmarshalProblem(data string) (*model.Problem, error) {
	var problem model.Problem
	if err := json.Unmarshal([]byte(data), &problem); err != nil {
		return nil, err
	}
	return &problem, nil
}
