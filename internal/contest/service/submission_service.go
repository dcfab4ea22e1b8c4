package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"time"

	"coderena/internal/common/storage"
	"coderena/internal/contest/executor"
	"coderena/internal/contest/language"
	"coderena/internal/contest/model"
	"coderena/internal/contest/referee"
	appErr "coderena/pkg/errors"
	"coderena/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultMaxCodeBytes  = 256 * 1024
	defaultArchiveBucket = "contest-sources"
)

// SubmissionServiceConfig holds submission service settings.
type SubmissionServiceConfig struct {
	// CallbackURL is the publicly reachable endpoint the engine reports
	// results to.
	CallbackURL string `yaml:"callbackURL"`

	// MaxCodeBytes caps the accepted source size.
	MaxCodeBytes int `yaml:"maxCodeBytes"`

	// ArchiveBucket is the object storage bucket for source archives.
	ArchiveBucket string `yaml:"archiveBucket"`
}

// SubmissionService orchestrates the submission lifecycle. Creation
// validates, dispatches to the engine, and persists the queued row; the
// callback path maps the engine's verdict, grades the output, and applies
// the terminal transition through the score service.
type SubmissionService struct {
	cfg         SubmissionServiceConfig
	submissions SubmissionStore
	problems    ProblemStore
	teams       TeamStore
	dispatcher  executor.Dispatcher
	ref         referee.Referee
	scores      *ScoreService
	publisher   ResultPublisher
	archive     storage.ObjectStorage
}

// NewSubmissionService creates a new submission service.
func NewSubmissionService(
	cfg SubmissionServiceConfig,
	submissions SubmissionStore,
	problems ProblemStore,
	teams TeamStore,
	dispatcher executor.Dispatcher,
	ref referee.Referee,
	scores *ScoreService,
	publisher ResultPublisher,
	archive storage.ObjectStorage,
) *SubmissionService {
	if cfg.MaxCodeBytes <= 0 {
		cfg.MaxCodeBytes = defaultMaxCodeBytes
	}
	if cfg.ArchiveBucket == "" {
		cfg.ArchiveBucket = defaultArchiveBucket
	}
	return &SubmissionService{
		cfg:         cfg,
		submissions: submissions,
		problems:    problems,
		teams:       teams,
		dispatcher:  dispatcher,
		ref:         ref,
		scores:      scores,
		publisher:   publisher,
		archive:     archive,
	}
}

// CreateSubmissionRequest is the intake payload.
type CreateSubmissionRequest struct {
	TeamID    int64  `json:"team_id"`
	ProblemID int64  `json:"problem_id"`
	Language  string `json:"language"`
	Code      string `json:"code"`
}

// Create validates the request, dispatches the run, and persists the
// queued submission. Nothing is persisted when validation or dispatch
// fails, so a rejected submission leaves no trace.
func (s *SubmissionService) Create(ctx context.Context, req CreateSubmissionRequest) (*model.Submission, error) {
	if req.Code == "" {
		return nil, appErr.ValidationError("code", "required")
	}
	if len(req.Code) > s.cfg.MaxCodeBytes {
		return nil, appErr.New(appErr.CodeTooLarge).
			WithDetail("max_bytes", s.cfg.MaxCodeBytes)
	}

	lang := language.Resolve(req.Language)
	if lang.ID == language.UnknownID {
		return nil, appErr.Newf(appErr.LanguageNotSupported, "language %q is not supported", req.Language).
			WithDetail("supported", language.Supported())
	}

	if _, err := s.teams.FindOneByID(ctx, req.TeamID); err != nil {
		return nil, err
	}
	problem, err := s.problems.FindOneForJudge(ctx, req.ProblemID)
	if err != nil {
		return nil, err
	}

	token, err := s.dispatcher.Dispatch(ctx, executor.DispatchRequest{
		SourceCode:     req.Code,
		LanguageID:     lang.ID,
		Stdin:          problem.Input,
		ExpectedOutput: problem.ExpectedOutput,
		CallbackURL:    s.cfg.CallbackURL,
	})
	if err != nil {
		logger.Error(ctx, "dispatch submission failed",
			zap.Int64("team_id", req.TeamID),
			zap.Int64("problem_id", req.ProblemID),
			zap.Error(err))
		return nil, err
	}

	s.archiveSource(ctx, token, lang.Label, req.Code)

	sub := &model.Submission{
		Token:     token,
		TeamID:    req.TeamID,
		ProblemID: req.ProblemID,
		Language:  lang.ID,
		Code:      req.Code,
		State:     model.StateQueued,
		CreatedAt: time.Now(),
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, err
	}

	logger.Info(ctx, "submission queued",
		zap.Int64("submission_id", sub.ID),
		zap.String("token", sub.Token),
		zap.Int64("team_id", sub.TeamID),
		zap.Int64("problem_id", sub.ProblemID),
		zap.String("language", lang.Label))
	return sub, nil
}

// CallbackRequest is the engine's result report. Output fields arrive
// base64 encoded.
type CallbackRequest struct {
	Token    string `json:"token"`
	StatusID int    `json:"status_id"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// HandleCallback applies an engine result report. The operation is
// idempotent: redelivered or duplicate reports for a terminal submission
// change nothing and still acknowledge. Reports for in-flight statuses are
// acknowledged without a transition.
func (s *SubmissionService) HandleCallback(ctx context.Context, cb CallbackRequest) (*model.Submission, error) {
	if cb.Token == "" {
		return nil, appErr.New(appErr.InvalidCallback).WithMessage("token is required")
	}

	sub, err := s.submissions.FindByToken(ctx, cb.Token)
	if err != nil {
		return nil, err
	}
	if sub.State.IsTerminal() {
		logger.Info(ctx, "duplicate callback ignored",
			zap.String("token", cb.Token),
			zap.String("state", string(sub.State)))
		return sub, nil
	}

	state := model.MapEngineStatus(cb.StatusID)
	if !state.IsTerminal() {
		logger.Debug(ctx, "in-flight callback acknowledged",
			zap.String("token", cb.Token),
			zap.Int("status_id", cb.StatusID))
		return sub, nil
	}

	points := 0
	if state.IsScoring() {
		problem, err := s.problems.FindOneForJudge(ctx, sub.ProblemID)
		if err != nil {
			return nil, err
		}
		points = s.ref.Evaluate(decodeOutput(cb.Stdout), problem.ExpectedOutput, problem.MaxPoints)
	}

	result, err := s.scores.ApplyTerminal(ctx, sub, state, points)
	if err != nil {
		return nil, err
	}
	if !result.Applied {
		return result.Submission, nil
	}

	s.publishTerminal(ctx, result)

	logger.Info(ctx, "submission judged",
		zap.Int64("submission_id", result.Submission.ID),
		zap.String("token", result.Submission.Token),
		zap.String("state", string(result.Submission.State)),
		zap.Int("points", result.Submission.Points),
		zap.Int("delta", result.Delta))
	return result.Submission, nil
}

// FindByToken returns the submission for the engine token.
func (s *SubmissionService) FindByToken(ctx context.Context, token string) (*model.Submission, error) {
	if token == "" {
		return nil, appErr.New(appErr.UnknownToken)
	}
	return s.submissions.FindByToken(ctx, token)
}

// archiveSource stores the source in object storage. The database row
// keeps its own copy, so a failed archive write is logged and tolerated.
func (s *SubmissionService) archiveSource(ctx context.Context, token, lang, code string) {
	if s.archive == nil {
		return
	}
	key := "submissions/" + token + "." + lang
	reader := bytes.NewReader([]byte(code))
	if err := s.archive.PutObject(ctx, s.cfg.ArchiveBucket, key, reader, int64(len(code)), "text/plain"); err != nil {
		logger.Warn(ctx, "archive source failed",
			zap.String("token", token), zap.Error(err))
	}
}

func (s *SubmissionService) publishTerminal(ctx context.Context, result TerminalResult) {
	if s.publisher == nil {
		return
	}
	sub := result.Submission
	event := model.ResultEvent{
		SubmissionID: sub.ID,
		Token:        sub.Token,
		TeamID:       sub.TeamID,
		ProblemID:    sub.ProblemID,
		State:        sub.State,
		Points:       sub.Points,
		Best:         sub.Best,
	}
	if err := s.publisher.PublishTerminal(ctx, event); err != nil {
		logger.Warn(ctx, "publish terminal event failed",
			zap.String("token", sub.Token), zap.Error(err))
	}
}

// decodeOutput decodes the engine's base64 payload, falling back to the
// raw bytes when it is not valid base64.
func decodeOutput(payload string) []byte {
	if payload == "" {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return []byte(payload)
	}
	return decoded
}
