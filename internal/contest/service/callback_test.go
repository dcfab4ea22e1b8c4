package service_test

import (
	"context"
	"sync"
	"testing"

	"coderena/internal/contest/model"
	"coderena/internal/contest/service"
	appErr "coderena/pkg/errors"
)

const (
	statusAccepted     = 3
	statusWrongAnswer  = 4
	statusCompileError = 6
	statusProcessing   = 2
)

func mustCreate(t *testing.T, env *testEnv, req service.CreateSubmissionRequest) *model.Submission {
	t.Helper()
	sub, err := env.svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return sub
}

func mustCallback(t *testing.T, env *testEnv, token string, statusID int, stdout string) *model.Submission {
	t.Helper()
	sub, err := env.svc.HandleCallback(context.Background(), service.CallbackRequest{
		Token:    token,
		StatusID: statusID,
		Stdout:   stdout,
	})
	if err != nil {
		t.Fatalf("HandleCallback failed: %v", err)
	}
	return sub
}

func TestCallbackAcceptedScores(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	sub := mustCreate(t, env, createRequest())

	judged := mustCallback(t, env, sub.Token, statusAccepted, b64("70"))
	if judged.State != model.StateAccepted || judged.Points != 70 {
		t.Fatalf("judged = %s/%d, want ACCEPTED/70", judged.State, judged.Points)
	}
	if got := env.teams.points(1); got != 70 {
		t.Fatalf("team points = %d, want 70", got)
	}
	if !env.submissions.get(sub.ID).Best {
		t.Fatal("only scoring submission must carry the best flag")
	}

	events := env.publisher.published()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	if events[0].Token != sub.Token || events[0].State != model.StateAccepted || events[0].Points != 70 {
		t.Fatalf("published event = %+v", events[0])
	}
}

func TestCallbackIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	sub := mustCreate(t, env, createRequest())

	mustCallback(t, env, sub.Token, statusAccepted, b64("70"))
	for i := 0; i < 3; i++ {
		again := mustCallback(t, env, sub.Token, statusAccepted, b64("70"))
		if again.State != model.StateAccepted || again.Points != 70 {
			t.Fatalf("redelivery %d changed submission: %s/%d", i, again.State, again.Points)
		}
	}

	if got := env.teams.points(1); got != 70 {
		t.Fatalf("team points after redeliveries = %d, want 70", got)
	}
	if got := len(env.publisher.published()); got != 1 {
		t.Fatalf("published %d events after redeliveries, want 1", got)
	}
}

func TestCallbackConflictingRedelivery(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	sub := mustCreate(t, env, createRequest())

	mustCallback(t, env, sub.Token, statusAccepted, b64("70"))
	again := mustCallback(t, env, sub.Token, statusWrongAnswer, b64("10"))
	if again.State != model.StateAccepted || again.Points != 70 {
		t.Fatalf("conflicting redelivery changed submission: %s/%d", again.State, again.Points)
	}
	if got := env.teams.points(1); got != 70 {
		t.Fatalf("team points = %d, want 70", got)
	}
}

func TestCallbackScoreImproves(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})

	first := mustCreate(t, env, createRequest())
	mustCallback(t, env, first.Token, statusWrongAnswer, b64("40"))
	if got := env.teams.points(1); got != 40 {
		t.Fatalf("team points after first = %d, want 40", got)
	}

	second := mustCreate(t, env, createRequest())
	mustCallback(t, env, second.Token, statusAccepted, b64("70"))
	if got := env.teams.points(1); got != 70 {
		t.Fatalf("team points after improvement = %d, want 70", got)
	}

	if env.submissions.get(first.ID).Best {
		t.Fatal("beaten submission must lose the best flag")
	}
	if !env.submissions.get(second.ID).Best {
		t.Fatal("improving submission must gain the best flag")
	}
}

func TestCallbackScoreRegresses(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})

	first := mustCreate(t, env, createRequest())
	mustCallback(t, env, first.Token, statusAccepted, b64("70"))

	second := mustCreate(t, env, createRequest())
	mustCallback(t, env, second.Token, statusWrongAnswer, b64("40"))

	if got := env.teams.points(1); got != 70 {
		t.Fatalf("team points after regression = %d, want 70", got)
	}
	if !env.submissions.get(first.ID).Best {
		t.Fatal("prior best must keep the best flag")
	}
	if env.submissions.get(second.ID).Best {
		t.Fatal("worse submission must not take the best flag")
	}
}

func TestCallbackScoresSumAcrossProblems(t *testing.T) {
	t.Parallel()

	problems := []*model.Problem{
		defaultProblem(),
		{ID: 2, Name: "max", MaxPoints: 100, Input: "5 9\n", ExpectedOutput: "9\n"},
	}
	env := newTestEnv(problems, []*model.Team{defaultTeam()})

	first := mustCreate(t, env, createRequest())
	mustCallback(t, env, first.Token, statusAccepted, b64("40"))

	req := createRequest()
	req.ProblemID = 2
	second := mustCreate(t, env, req)
	mustCallback(t, env, second.Token, statusAccepted, b64("50"))

	if got := env.teams.points(1); got != 90 {
		t.Fatalf("team points = %d, want 40+50=90", got)
	}
	if !env.submissions.get(first.ID).Best || !env.submissions.get(second.ID).Best {
		t.Fatal("each problem keeps its own best submission")
	}
}

func TestCallbackNonScoringTerminal(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	sub := mustCreate(t, env, createRequest())

	judged := mustCallback(t, env, sub.Token, statusCompileError, "")
	if judged.State != model.StateCompileError || judged.Points != 0 {
		t.Fatalf("judged = %s/%d, want COMPILE_ERROR/0", judged.State, judged.Points)
	}
	if got := env.teams.points(1); got != 0 {
		t.Fatalf("non-scoring terminal changed team points to %d", got)
	}
	if env.submissions.get(sub.ID).Best {
		t.Fatal("non-scoring submission must not take the best flag")
	}
	if got := len(env.publisher.published()); got != 1 {
		t.Fatalf("published %d events, want 1", got)
	}
}

func TestCallbackInFlightStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	sub := mustCreate(t, env, createRequest())

	acked := mustCallback(t, env, sub.Token, statusProcessing, "")
	if acked.State != model.StateQueued {
		t.Fatalf("in-flight report transitioned state to %s", acked.State)
	}
	if got := len(env.publisher.published()); got != 0 {
		t.Fatalf("in-flight report published %d events", got)
	}

	// The real verdict still lands afterwards.
	judged := mustCallback(t, env, sub.Token, statusAccepted, b64("30"))
	if judged.State != model.StateAccepted || judged.Points != 30 {
		t.Fatalf("judged = %s/%d, want ACCEPTED/30", judged.State, judged.Points)
	}
}

func TestCallbackUnmappedStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	sub := mustCreate(t, env, createRequest())

	judged := mustCallback(t, env, sub.Token, 99, "")
	if judged.State != model.StateInternalError {
		t.Fatalf("unmapped status mapped to %s, want INTERNAL_ERROR", judged.State)
	}
	if got := env.teams.points(1); got != 0 {
		t.Fatalf("unmapped status changed team points to %d", got)
	}
}

func TestCallbackUnknownToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	_, err := env.svc.HandleCallback(context.Background(), service.CallbackRequest{
		Token:    "never-issued",
		StatusID: statusAccepted,
	})
	if !appErr.Is(err, appErr.UnknownToken) {
		t.Fatalf("err = %v, want UnknownToken", err)
	}
}

func TestCallbackMissingToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	_, err := env.svc.HandleCallback(context.Background(), service.CallbackRequest{StatusID: statusAccepted})
	if !appErr.Is(err, appErr.InvalidCallback) {
		t.Fatalf("err = %v, want InvalidCallback", err)
	}
}

func TestCallbackConcurrentRedeliveries(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]*model.Problem{defaultProblem()}, []*model.Team{defaultTeam()})
	sub := mustCreate(t, env, createRequest())

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = env.svc.HandleCallback(context.Background(), service.CallbackRequest{
				Token:    sub.Token,
				StatusID: statusAccepted,
				Stdout:   b64("70"),
			})
		}()
	}
	wg.Wait()

	if got := env.teams.points(1); got != 70 {
		t.Fatalf("team points after concurrent redeliveries = %d, want 70", got)
	}
	judged := env.submissions.get(sub.ID)
	if judged.State != model.StateAccepted || judged.Points != 70 {
		t.Fatalf("submission = %s/%d, want ACCEPTED/70", judged.State, judged.Points)
	}
}
