package repository

import (
	"context"
	"strconv"

	"coderena/internal/common/db"
	"coderena/internal/contest/model"
	appErr "coderena/pkg/errors"
)

// TeamRepository handles team reads and score writes. Team points are hot
// rows during a contest, so there is no caching here; the leaderboard
// mirror in redis covers the read load instead.
type TeamRepository struct {
	database db.Database
}

// NewTeamRepository creates a new repository.
func NewTeamRepository(database db.Database) *TeamRepository {
	return &TeamRepository{database: database}
}

// FindOneByID returns the team.
func (r *TeamRepository) FindOneByID(ctx context.Context, id int64) (*model.Team, error) {
	if id <= 0 {
		return nil, appErr.ValidationError("team_id", "required")
	}
	query := `SELECT id, name, points FROM teams WHERE id = ?`
	var team model.Team
	err := r.database.QueryRow(ctx, query, id).Scan(&team.ID, &team.Name, &team.Points)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, appErr.New(appErr.TeamNotFound)
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "query team failed")
	}
	return &team, nil
}

// AddPoints applies a score delta to the team inside tx and returns the
// resulting total.
func (r *TeamRepository) AddPoints(ctx context.Context, tx db.Transaction, teamID int64, delta int) (int, error) {
	querier := db.GetQuerier(r.database, tx)

	res, err := querier.Exec(ctx, `UPDATE teams SET points = points + ? WHERE id = ?`, delta, teamID)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.DatabaseError, "update team points failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.DatabaseError, "update team points failed")
	}
	if affected == 0 {
		return 0, appErr.New(appErr.TeamNotFound)
	}

	var total int
	if err := querier.QueryRow(ctx, `SELECT points FROM teams WHERE id = ?`, teamID).Scan(&total); err != nil {
		return 0, appErr.Wrapf(err, appErr.DatabaseError, "read team points failed")
	}
	return total, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
