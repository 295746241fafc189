package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
)

func seedJobGraph(t *testing.T, jobs *stubJobRepo, apps *stubApplicationRepo, hires *stubHireRepo, convs *stubConversationRepo, msgs *stubMessageRepo) {
	t.Helper()
	j := job("j1", "e1", time.Now().UTC())
	if err := jobs.Create(context.Background(), &j); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	_ = apps.Create(context.Background(), &domain.Application{ID: "a1", JobID: "j1", WorkerID: "w1", Status: domain.ApplicationApplied})
	_ = apps.Create(context.Background(), &domain.Application{ID: "a2", JobID: "j1", WorkerID: "w2", Status: domain.ApplicationApplied})
	hires.hires["h1"] = domain.Hire{ID: "h1", JobID: "j1", WorkerProfileID: "w1", EmployerProfileID: "e1"}
	_ = convs.Create(context.Background(), &domain.Conversation{ID: "c1", JobID: "j1", EmployerID: "e1", WorkerID: "w1"})
	msgs.add(domain.Message{ID: "m1", ConversationID: "c1", SenderID: "w1", Text: "hi"})
	msgs.add(domain.Message{ID: "m2", ConversationID: "c1", SenderID: "e1", Text: "hello"})
}

func newCascade(jobs *stubJobRepo, apps *stubApplicationRepo, hires *stubHireRepo, convs *stubConversationRepo, msgs *stubMessageRepo, guard *stubGuard) *CascadingDeleteCoordinator {
	return NewCascadingDeleteCoordinator(apps, hires, convs, msgs, jobs, guard, discardLogger)
}

func TestDeleteJobAndRelated_RemovesEverything(t *testing.T) {
	jobs, apps, hires := newStubJobRepo(), newStubApplicationRepo(), newStubHireRepo()
	convs, msgs := newStubConversationRepo(), newStubMessageRepo()
	seedJobGraph(t, jobs, apps, hires, convs, msgs)

	coord := newCascade(jobs, apps, hires, convs, msgs, newStubGuard())
	if err := coord.DeleteJobAndRelated(context.Background(), "j1"); err != nil {
		t.Fatalf("cascade failed: %v", err)
	}

	if n := len(apps.byJob("j1")); n != 0 {
		t.Fatalf("%d applications left", n)
	}
	if n := len(hires.byJob("j1")); n != 0 {
		t.Fatalf("%d hires left", n)
	}
	if cs, _ := convs.ListByJob(context.Background(), "j1"); len(cs) != 0 {
		t.Fatalf("%d conversations left", len(cs))
	}
	if n := len(msgs.byConversation("c1")); n != 0 {
		t.Fatalf("%d messages left", n)
	}
	if _, err := jobs.FindByID(context.Background(), "j1"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("job still readable: %v", err)
	}
}

func TestDeleteJobAndRelated_PartialFailureNamesRemainingSteps(t *testing.T) {
	jobs, apps, hires := newStubJobRepo(), newStubApplicationRepo(), newStubHireRepo()
	convs, msgs := newStubConversationRepo(), newStubMessageRepo()
	seedJobGraph(t, jobs, apps, hires, convs, msgs)

	hires.deleteErr = errors.New("store unavailable")
	coord := newCascade(jobs, apps, hires, convs, msgs, newStubGuard())

	err := coord.DeleteJobAndRelated(context.Background(), "j1")
	var pf *domain.PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if len(pf.Completed) != 1 || pf.Completed[0] != StepApplications {
		t.Fatalf("completed = %v", pf.Completed)
	}
	want := []string{StepHires, StepConversations, StepJob}
	if len(pf.Remaining) != len(want) {
		t.Fatalf("remaining = %v", pf.Remaining)
	}
	for i, name := range want {
		if pf.Remaining[i] != name {
			t.Fatalf("remaining = %v, want %v", pf.Remaining, want)
		}
	}
	// the job document must still exist: children go before the parent
	if _, ferr := jobs.FindByID(context.Background(), "j1"); ferr != nil {
		t.Fatalf("job deleted before its children: %v", ferr)
	}
}

func TestDeleteJobAndRelated_ReinvocationAfterPartialFailureConverges(t *testing.T) {
	jobs, apps, hires := newStubJobRepo(), newStubApplicationRepo(), newStubHireRepo()
	convs, msgs := newStubConversationRepo(), newStubMessageRepo()
	seedJobGraph(t, jobs, apps, hires, convs, msgs)

	hires.deleteErr = errors.New("store unavailable")
	coord := newCascade(jobs, apps, hires, convs, msgs, newStubGuard())

	if err := coord.DeleteJobAndRelated(context.Background(), "j1"); err == nil {
		t.Fatalf("expected partial failure")
	}

	// store recovers; re-invocation completes the remaining steps
	hires.deleteErr = nil
	if err := coord.DeleteJobAndRelated(context.Background(), "j1"); err != nil {
		t.Fatalf("re-invocation failed: %v", err)
	}

	if _, err := jobs.FindByID(context.Background(), "j1"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("job survived re-invocation")
	}
	if n := len(hires.byJob("j1")); n != 0 {
		t.Fatalf("%d hires left after re-invocation", n)
	}
}

func TestDeleteJobAndRelated_IdempotentOnAbsentJob(t *testing.T) {
	jobs, apps, hires := newStubJobRepo(), newStubApplicationRepo(), newStubHireRepo()
	convs, msgs := newStubConversationRepo(), newStubMessageRepo()

	coord := newCascade(jobs, apps, hires, convs, msgs, newStubGuard())
	if err := coord.DeleteJobAndRelated(context.Background(), "ghost"); err != nil {
		t.Fatalf("deleting an absent graph must be a no-op, got %v", err)
	}
}

func TestDeleteJobAndRelated_ConcurrentInvocationRejected(t *testing.T) {
	jobs, apps, hires := newStubJobRepo(), newStubApplicationRepo(), newStubHireRepo()
	convs, msgs := newStubConversationRepo(), newStubMessageRepo()
	seedJobGraph(t, jobs, apps, hires, convs, msgs)

	guard := newStubGuard()
	if ok, _ := guard.Acquire(context.Background(), "cascade:j1"); !ok {
		t.Fatalf("setup: could not pre-acquire guard")
	}

	coord := newCascade(jobs, apps, hires, convs, msgs, guard)
	err := coord.DeleteJobAndRelated(context.Background(), "j1")
	if !errors.Is(err, domain.ErrOperationInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}
	if len(apps.byJob("j1")) != 2 {
		t.Fatalf("nothing may be deleted while the guard is held")
	}
}
