package service

import (
	"context"
	"strconv"
	"time"

	cachex "coderena/internal/common/cache"
	"coderena/internal/common/db"
	"coderena/internal/contest/model"
	appErr "coderena/pkg/errors"
	"coderena/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	scoreLockKeyPrefix = "contest:score:lock:"
	leaderboardKey     = "contest:leaderboard"

	defaultLockTTL      = 5 * time.Second
	defaultLockAttempts = 3
	defaultLockBackoff  = 50 * time.Millisecond
)

// ScoreServiceConfig holds score service settings.
type ScoreServiceConfig struct {
	LockTTL      time.Duration `yaml:"lockTTL"`
	LockAttempts int           `yaml:"lockAttempts"`
	LockBackoff  time.Duration `yaml:"lockBackoff"`
}

// ScoreService applies terminal transitions and keeps team scores
// consistent with them.
//
// A team's score is the sum over problems of its best submission's points.
// Every transition is applied under a per-(team, problem) lock plus a row
// lock on the submission, so concurrent callbacks for the same pair
// serialize and each terminal transition is applied exactly once.
type ScoreService struct {
	database    db.Database
	cache       cachex.Cache
	submissions SubmissionStore
	teams       TeamStore

	lockTTL      time.Duration
	lockAttempts int
	lockBackoff  time.Duration
}

// NewScoreService creates a new score service.
func NewScoreService(
	cfg ScoreServiceConfig,
	database db.Database,
	cacheClient cachex.Cache,
	submissions SubmissionStore,
	teams TeamStore,
) *ScoreService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	if cfg.LockAttempts <= 0 {
		cfg.LockAttempts = defaultLockAttempts
	}
	if cfg.LockBackoff <= 0 {
		cfg.LockBackoff = defaultLockBackoff
	}
	return &ScoreService{
		database:     database,
		cache:        cacheClient,
		submissions:  submissions,
		teams:        teams,
		lockTTL:      cfg.LockTTL,
		lockAttempts: cfg.LockAttempts,
		lockBackoff:  cfg.LockBackoff,
	}
}

// TerminalResult reports what ApplyTerminal did.
type TerminalResult struct {
	// Applied is false when the submission was already terminal and the
	// call collapsed into a no-op.
	Applied bool

	// Submission is the row as of this call, terminal either way.
	Submission *model.Submission

	// Delta is the score credited to the team, never negative.
	Delta int

	// TeamPoints is the team's total after the transition. Only set when
	// Applied is true and the state is a scoring one.
	TeamPoints int
}

// ApplyTerminal moves the submission into the given terminal state and,
// for scoring states, credits the team with the improvement over its prior
// best for the problem. A submission that already reached a terminal state
// is left untouched.
func (s *ScoreService) ApplyTerminal(ctx context.Context, sub *model.Submission, state model.CodeState, points int) (TerminalResult, error) {
	if sub == nil {
		return TerminalResult{}, appErr.ValidationError("submission", "required")
	}
	if !state.IsTerminal() {
		return TerminalResult{}, appErr.ValidationError("state", "terminal_required")
	}

	lockKey := scoreLockKey(sub.TeamID, sub.ProblemID)
	if err := s.acquireLock(ctx, lockKey); err != nil {
		return TerminalResult{}, err
	}
	defer func() {
		if err := s.releaseLock(ctx, lockKey); err != nil {
			logger.Warn(ctx, "release score lock failed",
				zap.String("key", lockKey), zap.Error(err))
		}
	}()

	var result TerminalResult
	err := s.database.Transaction(ctx, func(tx db.Transaction) error {
		fresh, err := s.submissions.FindByIDForUpdate(ctx, tx, sub.ID)
		if err != nil {
			return err
		}
		if fresh.State.IsTerminal() {
			result = TerminalResult{Applied: false, Submission: fresh}
			return nil
		}

		now := time.Now()
		moved, err := s.submissions.MarkTerminal(ctx, tx, fresh.ID, state, points, now)
		if err != nil {
			return err
		}
		if !moved {
			result = TerminalResult{Applied: false, Submission: fresh}
			return nil
		}
		fresh.State = state
		fresh.Points = points
		fresh.JudgedAt = now

		result = TerminalResult{Applied: true, Submission: fresh}
		if !state.IsScoring() {
			return nil
		}

		prior, err := s.submissions.BestPointsFor(ctx, tx, fresh.TeamID, fresh.ProblemID, fresh.ID)
		if err != nil {
			return err
		}
		if points > prior {
			delta := points - prior
			total, err := s.teams.AddPoints(ctx, tx, fresh.TeamID, delta)
			if err != nil {
				return err
			}
			result.Delta = delta
			result.TeamPoints = total
			fresh.Best = true
		}
		return s.submissions.ReassignBest(ctx, tx, fresh.TeamID, fresh.ProblemID)
	})
	if err != nil {
		return TerminalResult{}, err
	}

	if result.Applied {
		s.submissions.InvalidateToken(ctx, sub.Token)
		if result.Delta > 0 {
			s.mirrorLeaderboard(ctx, sub.TeamID, result.TeamPoints)
		}
	}
	return result, nil
}

// LeaderboardScore reads a team's mirrored score, for health checks and
// debugging rather than for anything authoritative.
func (s *ScoreService) LeaderboardScore(ctx context.Context, teamID int64) (float64, error) {
	if s.cache == nil {
		return 0, appErr.New(appErr.CacheError).WithMessage("cache is not configured")
	}
	return s.cache.ZScore(ctx, leaderboardKey, formatTeamID(teamID))
}

func (s *ScoreService) acquireLock(ctx context.Context, key string) error {
	if s.cache == nil {
		return nil
	}
	for attempt := 0; attempt < s.lockAttempts; attempt++ {
		ok, err := s.cache.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			return appErr.Wrapf(err, appErr.CacheError, "acquire score lock failed")
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return appErr.Wrap(ctx.Err(), appErr.LockFailed)
		case <-time.After(s.lockBackoff):
		}
	}
	return appErr.New(appErr.LockFailed).WithDetail("key", key)
}

func (s *ScoreService) releaseLock(ctx context.Context, key string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Unlock(ctx, key)
}

// mirrorLeaderboard pushes the team's new total into the sorted set. The
// database stays authoritative; losing a mirror write only stales the
// scoreboard until the next one.
func (s *ScoreService) mirrorLeaderboard(ctx context.Context, teamID int64, total int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.ZAdd(ctx, leaderboardKey, float64(total), formatTeamID(teamID)); err != nil {
		logger.Warn(ctx, "mirror leaderboard failed",
			zap.Int64("team_id", teamID), zap.Error(err))
	}
}

func scoreLockKey(teamID, problemID int64) string {
	return scoreLockKeyPrefix + formatTeamID(teamID) + ":" + formatTeamID(problemID)
}

func formatTeamID(id int64) string {
	return strconv.FormatInt(id, 10)
}

