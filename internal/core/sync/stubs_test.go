package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories. Watch methods hand back subscriptions the
// tests publish into manually, so snapshot timing is fully controlled.
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

type stubGuard struct {
	mu         sync.Mutex
	held       map[string]bool
	acquireErr error
	acquired   []string
	released   []string
}

func newStubGuard() *stubGuard {
	return &stubGuard{held: make(map[string]bool)}
}

func (g *stubGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquireErr != nil {
		return false, g.acquireErr
	}
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	g.acquired = append(g.acquired, key)
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	g.released = append(g.released, key)
	return nil
}

type stubProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
	subs     map[string]*stream.Subscription[domain.Profile]
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{
		profiles: make(map[string]domain.Profile),
		subs:     make(map[string]*stream.Subscription[domain.Profile]),
	}
}

func (r *stubProfileRepo) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := p
	return &clone, nil
}

func (r *stubProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = *p
	return nil
}

func (r *stubProfileRepo) Watch(_ context.Context, id string) (*stream.Subscription[domain.Profile], error) {
	sub := stream.NewSubscription[domain.Profile](nil)
	r.mu.Lock()
	r.subs[id] = sub
	r.mu.Unlock()
	return sub, nil
}

// push delivers a profile snapshot to the watcher of p.ID.
func (r *stubProfileRepo) push(p domain.Profile) {
	r.mu.Lock()
	r.profiles[p.ID] = p
	sub := r.subs[p.ID]
	r.mu.Unlock()
	if sub != nil {
		sub.Publish(stream.Snapshot[domain.Profile]{Docs: []domain.Profile{p}})
	}
}

type stubJobRepo struct {
	mu              sync.Mutex
	jobs            map[string]domain.Job
	addApplicantErr error
	deleteErr       error
	ownerSubs       map[string][]*stream.Subscription[domain.Job]
	openSubs        []*stream.Subscription[domain.Job]
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{
		jobs:      make(map[string]domain.Job),
		ownerSubs: make(map[string][]*stream.Subscription[domain.Job]),
	}
}

func (r *stubJobRepo) FindByID(_ context.Context, id string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	clone := j
	return &clone, nil
}

func (r *stubJobRepo) Create(_ context.Context, j *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = *j
	return nil
}

func (r *stubJobRepo) AddApplicant(_ context.Context, jobID, workerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addApplicantErr != nil {
		return r.addApplicantErr
	}
	j, ok := r.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if !j.HasApplicant(workerID) {
		j.Applicants = append(j.Applicants, workerID)
		r.jobs[jobID] = j
	}
	return nil
}

func (r *stubJobRepo) Delete(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.jobs, jobID) // absent is a no-op
	return nil
}

func (r *stubJobRepo) WatchByOwner(_ context.Context, owner string) (*stream.Subscription[domain.Job], error) {
	sub := stream.NewSubscription[domain.Job](nil)
	r.mu.Lock()
	r.ownerSubs[owner] = append(r.ownerSubs[owner], sub)
	r.mu.Unlock()
	return sub, nil
}

func (r *stubJobRepo) WatchOpen(_ context.Context) (*stream.Subscription[domain.Job], error) {
	sub := stream.NewSubscription[domain.Job](nil)
	r.mu.Lock()
	r.openSubs = append(r.openSubs, sub)
	r.mu.Unlock()
	return sub, nil
}

func (r *stubJobRepo) pushOwner(owner string, jobs []domain.Job) {
	r.mu.Lock()
	subs := append([]*stream.Subscription[domain.Job]{}, r.ownerSubs[owner]...)
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Publish(stream.Snapshot[domain.Job]{Docs: jobs})
	}
}

func (r *stubJobRepo) pushOpen(jobs []domain.Job) {
	r.mu.Lock()
	subs := append([]*stream.Subscription[domain.Job]{}, r.openSubs...)
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Publish(stream.Snapshot[domain.Job]{Docs: jobs})
	}
}

type stubApplicationRepo struct {
	mu         sync.Mutex
	apps       map[string]domain.Application
	createErr  error
	deleteErr  error
	workerSubs map[string][]*stream.Subscription[domain.Application]
}

func newStubApplicationRepo() *stubApplicationRepo {
	return &stubApplicationRepo{
		apps:       make(map[string]domain.Application),
		workerSubs: make(map[string][]*stream.Subscription[domain.Application]),
	}
}

func (r *stubApplicationRepo) Create(_ context.Context, a *domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.apps[a.ID] = *a
	return nil
}

func (r *stubApplicationRepo) DeleteByJob(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for id, a := range r.apps {
		if a.JobID == jobID {
			delete(r.apps, id)
		}
	}
	return nil
}

func (r *stubApplicationRepo) WatchByWorker(_ context.Context, workerID string) (*stream.Subscription[domain.Application], error) {
	sub := stream.NewSubscription[domain.Application](nil)
	r.mu.Lock()
	r.workerSubs[workerID] = append(r.workerSubs[workerID], sub)
	r.mu.Unlock()
	return sub, nil
}

func (r *stubApplicationRepo) pushWorker(workerID string, apps []domain.Application) {
	r.mu.Lock()
	subs := append([]*stream.Subscription[domain.Application]{}, r.workerSubs[workerID]...)
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Publish(stream.Snapshot[domain.Application]{Docs: apps})
	}
}

func (r *stubApplicationRepo) byJob(jobID string) []domain.Application {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Application
	for _, a := range r.apps {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out
}

type stubHireRepo struct {
	mu        sync.Mutex
	hires     map[string]domain.Hire
	deleteErr error
}

func newStubHireRepo() *stubHireRepo {
	return &stubHireRepo{hires: make(map[string]domain.Hire)}
}

func (r *stubHireRepo) ListByWorker(_ context.Context, workerID string) ([]domain.Hire, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Hire
	for _, h := range r.hires {
		if h.WorkerProfileID == workerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *stubHireRepo) DeleteByJob(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for id, h := range r.hires {
		if h.JobID == jobID {
			delete(r.hires, id)
		}
	}
	return nil
}

func (r *stubHireRepo) byJob(jobID string) []domain.Hire {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Hire
	for _, h := range r.hires {
		if h.JobID == jobID {
			out = append(out, h)
		}
	}
	return out
}

type stubConversationRepo struct {
	mu              sync.Mutex
	convs           map[string]domain.Conversation
	participantSubs map[string][]*stream.Subscription[domain.Conversation]
	beforeCreate    func() // test hook: runs inside Create, before the insert
}

func newStubConversationRepo() *stubConversationRepo {
	return &stubConversationRepo{
		convs:           make(map[string]domain.Conversation),
		participantSubs: make(map[string][]*stream.Subscription[domain.Conversation]),
	}
}

func (r *stubConversationRepo) FindByTriple(_ context.Context, jobID, employerID, workerID string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.convs {
		if c.JobID == jobID && c.EmployerID == employerID && c.WorkerID == workerID {
			clone := c
			return &clone, nil
		}
	}
	return nil, domain.ErrConversationNotFound
}

func (r *stubConversationRepo) Create(_ context.Context, c *domain.Conversation) error {
	if r.beforeCreate != nil {
		r.beforeCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.convs {
		if existing.JobID == c.JobID && existing.EmployerID == c.EmployerID && existing.WorkerID == c.WorkerID {
			return domain.ErrConversationExists
		}
	}
	r.convs[c.ID] = *c
	return nil
}

func (r *stubConversationRepo) ListByJob(_ context.Context, jobID string) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Conversation
	for _, c := range r.convs {
		if c.JobID == jobID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *stubConversationRepo) DeleteByJob(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.convs {
		if c.JobID == jobID {
			delete(r.convs, id)
		}
	}
	return nil
}

func (r *stubConversationRepo) WatchByParticipant(_ context.Context, profileID string) (*stream.Subscription[domain.Conversation], error) {
	sub := stream.NewSubscription[domain.Conversation](nil)
	r.mu.Lock()
	r.participantSubs[profileID] = append(r.participantSubs[profileID], sub)
	r.mu.Unlock()
	return sub, nil
}

func (r *stubConversationRepo) pushParticipant(profileID string, convs []domain.Conversation) {
	r.mu.Lock()
	subs := append([]*stream.Subscription[domain.Conversation]{}, r.participantSubs[profileID]...)
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Publish(stream.Snapshot[domain.Conversation]{Docs: convs})
	}
}

type stubMessageRepo struct {
	mu       sync.Mutex
	msgs     map[string]domain.Message
	convSubs map[string][]*stream.Subscription[domain.Message]
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{
		msgs:     make(map[string]domain.Message),
		convSubs: make(map[string][]*stream.Subscription[domain.Message]),
	}
}

func (r *stubMessageRepo) Watch(_ context.Context, conversationID string) (*stream.Subscription[domain.Message], error) {
	sub := stream.NewSubscription[domain.Message](nil)
	r.mu.Lock()
	r.convSubs[conversationID] = append(r.convSubs[conversationID], sub)
	r.mu.Unlock()
	return sub, nil
}

func (r *stubMessageRepo) MarkRead(_ context.Context, conversationID, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.msgs {
		if m.ConversationID != conversationID || !m.UnreadBy(profileID) {
			continue
		}
		m.ReadBy = append(m.ReadBy, profileID)
		r.msgs[id] = m
	}
	return nil
}

func (r *stubMessageRepo) DeleteByConversation(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.msgs {
		if m.ConversationID == conversationID {
			delete(r.msgs, id)
		}
	}
	return nil
}

// push delivers the current messages of a conversation to its watchers.
func (r *stubMessageRepo) push(conversationID string) {
	r.mu.Lock()
	var docs []domain.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			docs = append(docs, m)
		}
	}
	subs := append([]*stream.Subscription[domain.Message]{}, r.convSubs[conversationID]...)
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Publish(stream.Snapshot[domain.Message]{Docs: docs})
	}
}

func (r *stubMessageRepo) add(m domain.Message) {
	r.mu.Lock()
	r.msgs[m.ID] = m
	r.mu.Unlock()
}

func (r *stubMessageRepo) byConversation(conversationID string) []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out
}

// newTestRepos wires a complete stub store.
func newTestRepos() (Repos, *stubProfileRepo, *stubJobRepo, *stubApplicationRepo, *stubHireRepo, *stubConversationRepo, *stubMessageRepo) {
	profiles := newStubProfileRepo()
	jobs := newStubJobRepo()
	apps := newStubApplicationRepo()
	hires := newStubHireRepo()
	convs := newStubConversationRepo()
	msgs := newStubMessageRepo()
	repos := Repos{
		Profiles:      profiles,
		Jobs:          jobs,
		Applications:  apps,
		Hires:         hires,
		Conversations: convs,
		Messages:      msgs,
	}
	return repos, profiles, jobs, apps, hires, convs, msgs
}
