package service_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"coderena/internal/common/db"
	"coderena/internal/contest/executor"
	"coderena/internal/contest/model"
	"coderena/internal/contest/referee"
	"coderena/internal/contest/service"
	appErr "coderena/pkg/errors"
)

// fakeDatabase runs transaction bodies directly against the in-memory
// fakes. Rollback is not modeled; tests only exercise committed paths.
type fakeDatabase struct{}

func (d *fakeDatabase) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (d *fakeDatabase) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row {
	return failRow{}
}

func (d *fakeDatabase) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	return nil, fmt.Errorf("not implemented")
}

func (d *fakeDatabase) Transaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	return fn(&fakeTransaction{})
}

func (d *fakeDatabase) Ping(ctx context.Context) error { return nil }
func (d *fakeDatabase) Close() error                   { return nil }

type failRow struct{}

func (failRow) Scan(dest ...interface{}) error { return fmt.Errorf("not implemented") }

type fakeTransaction struct{}

func (t *fakeTransaction) Query(ctx context.Context, query string, args ...interface{}) (db.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (t *fakeTransaction) QueryRow(ctx context.Context, query string, args ...interface{}) db.Row {
	return failRow{}
}

func (t *fakeTransaction) Exec(ctx context.Context, query string, args ...interface{}) (db.Result, error) {
	return nil, fmt.Errorf("not implemented")
}

func (t *fakeTransaction) Commit() error   { return nil }
func (t *fakeTransaction) Rollback() error { return nil }

type fakeSubmissionStore struct {
	mu          sync.Mutex
	nextID      int64
	byID        map[int64]*model.Submission
	byToken     map[string]*model.Submission
	invalidated []string
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{
		nextID:  1,
		byID:    make(map[int64]*model.Submission),
		byToken: make(map[string]*model.Submission),
	}
}

func (s *fakeSubmissionStore) Create(ctx context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[sub.Token]; ok {
		return appErr.New(appErr.SubmissionCreateFailed).WithMessage("duplicate token")
	}
	sub.ID = s.nextID
	s.nextID++
	stored := *sub
	s.byID[stored.ID] = &stored
	s.byToken[stored.Token] = &stored
	return nil
}

func (s *fakeSubmissionStore) FindByToken(ctx context.Context, token string) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byToken[token]
	if !ok {
		return nil, appErr.New(appErr.UnknownToken)
	}
	copied := *sub
	return &copied, nil
}

func (s *fakeSubmissionStore) FindByIDForUpdate(ctx context.Context, tx db.Transaction, id int64) (*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byID[id]
	if !ok {
		return nil, appErr.New(appErr.UnknownToken)
	}
	copied := *sub
	return &copied, nil
}

func (s *fakeSubmissionStore) MarkTerminal(ctx context.Context, tx db.Transaction, id int64, state model.CodeState, points int, judgedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.byID[id]
	if !ok || sub.State != model.StateQueued {
		return false, nil
	}
	sub.State = state
	sub.Points = points
	sub.JudgedAt = judgedAt
	return true, nil
}

func (s *fakeSubmissionStore) BestPointsFor(ctx context.Context, tx db.Transaction, teamID, problemID, excludeID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := 0
	for _, sub := range s.byID {
		if sub.TeamID != teamID || sub.ProblemID != problemID || sub.ID == excludeID {
			continue
		}
		if sub.State.IsScoring() && sub.Points > best {
			best = sub.Points
		}
	}
	return best, nil
}

func (s *fakeSubmissionStore) ReassignBest(ctx context.Context, tx db.Transaction, teamID, problemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *model.Submission
	for _, sub := range s.byID {
		if sub.TeamID != teamID || sub.ProblemID != problemID {
			continue
		}
		sub.Best = false
		if !sub.State.IsScoring() {
			continue
		}
		if best == nil || sub.Points > best.Points || (sub.Points == best.Points && sub.ID < best.ID) {
			best = sub
		}
	}
	if best != nil {
		best.Best = true
	}
	return nil
}

func (s *fakeSubmissionStore) InvalidateToken(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, token)
}

func (s *fakeSubmissionStore) get(id int64) model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.byID[id]
}

type fakeProblemStore struct {
	mu       sync.Mutex
	problems map[int64]*model.Problem
}

func newFakeProblemStore(problems ...*model.Problem) *fakeProblemStore {
	store := &fakeProblemStore{problems: make(map[int64]*model.Problem)}
	for _, problem := range problems {
		store.problems[problem.ID] = problem
	}
	return store
}

func (s *fakeProblemStore) FindOneForJudge(ctx context.Context, id int64) (*model.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	problem, ok := s.problems[id]
	if !ok {
		return nil, appErr.New(appErr.ProblemNotFound)
	}
	copied := *problem
	return &copied, nil
}

type fakeTeamStore struct {
	mu    sync.Mutex
	teams map[int64]*model.Team
}

func newFakeTeamStore(teams ...*model.Team) *fakeTeamStore {
	store := &fakeTeamStore{teams: make(map[int64]*model.Team)}
	for _, team := range teams {
		store.teams[team.ID] = team
	}
	return store
}

func (s *fakeTeamStore) FindOneByID(ctx context.Context, id int64) (*model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[id]
	if !ok {
		return nil, appErr.New(appErr.TeamNotFound)
	}
	copied := *team
	return &copied, nil
}

func (s *fakeTeamStore) AddPoints(ctx context.Context, tx db.Transaction, teamID int64, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return 0, appErr.New(appErr.TeamNotFound)
	}
	team.Points += delta
	return team.Points, nil
}

func (s *fakeTeamStore) points(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teams[id].Points
}

type fakeDispatcher struct {
	mu       sync.Mutex
	tokens   []string
	err      error
	requests []executor.DispatchRequest
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, req executor.DispatchRequest) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.requests = append(d.requests, req)
	token := fmt.Sprintf("token-%d", len(d.requests))
	if len(d.tokens) > 0 {
		token = d.tokens[0]
		d.tokens = d.tokens[1:]
	}
	return token, nil
}

func (d *fakeDispatcher) dispatched() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.ResultEvent
}

func (p *fakePublisher) PublishTerminal(ctx context.Context, event model.ResultEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []model.ResultEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ResultEvent(nil), p.events...)
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
}

func (a *fakeArchive) PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, bucket+"/"+objectKey)
	return nil
}

func (a *fakeArchive) GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not implemented")
}

// pointsFromStdout grades by reading the points straight out of the
// output, so tests steer scores through the callback payload.
func pointsFromStdout() referee.Referee {
	return referee.Func(func(actual []byte, expected string, maxPoints int) int {
		points, err := strconv.Atoi(strings.TrimSpace(string(actual)))
		if err != nil || points < 0 {
			return 0
		}
		if points > maxPoints {
			return maxPoints
		}
		return points
	})
}

func b64(value string) string {
	return base64.StdEncoding.EncodeToString([]byte(value))
}

// testEnv wires a submission service over the in-memory fakes.
type testEnv struct {
	submissions *fakeSubmissionStore
	problems    *fakeProblemStore
	teams       *fakeTeamStore
	dispatcher  *fakeDispatcher
	publisher   *fakePublisher
	archive     *fakeArchive
	scores      *service.ScoreService
	svc         *service.SubmissionService
}

func newTestEnv(problems []*model.Problem, teams []*model.Team) *testEnv {
	env := &testEnv{
		submissions: newFakeSubmissionStore(),
		problems:    newFakeProblemStore(problems...),
		teams:       newFakeTeamStore(teams...),
		dispatcher:  &fakeDispatcher{},
		publisher:   &fakePublisher{},
		archive:     &fakeArchive{},
	}
	env.scores = service.NewScoreService(service.ScoreServiceConfig{},
		&fakeDatabase{}, nil, env.submissions, env.teams)
	env.svc = service.NewSubmissionService(
		service.SubmissionServiceConfig{CallbackURL: "http://contest/api/v1/submissions/callback"},
		env.submissions, env.problems, env.teams,
		env.dispatcher, pointsFromStdout(), env.scores, env.publisher, env.archive)
	return env
}
