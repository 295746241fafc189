package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/ports"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

// Repos bundles the store-facing dependencies a session needs.
type Repos struct {
	Profiles      ports.ProfileRepository
	Jobs          ports.JobRepository
	Applications  ports.ApplicationRepository
	Hires         ports.HireRepository
	Conversations ports.ConversationRepository
	Messages      ports.MessageRepository
}

// UpdateKind tags a projection-change notification pushed to listeners.
type UpdateKind string

const (
	UpdateProfile UpdateKind = "profile"
	UpdateJobs    UpdateKind = "jobs"
	UpdateUnread  UpdateKind = "unread"
)

// Update is one projection-change notification. Listeners re-read the
// session's accessors for the actual state; a dropped Update only delays,
// never corrupts, a view.
type Update struct {
	Kind        UpdateKind `json:"kind"`
	TotalUnread int        `json:"total_unread"`
}

type canceller interface{ Cancel() }

// Session owns all live state of one signed-in profile: the profile
// subscription, the role-dependent job projection, the conversation watch
// and unread tracker, and every cancellation token. It replaces the mobile
// source's ambient global profile context with an explicitly constructed
// object: init on sign-in, teardown on sign-out, injected where needed.
//
// All projection state is only ever written by subscription snapshots. An
// epoch counter fences the role projection: activation bumps the epoch, and
// a snapshot carrying a stale epoch is discarded instead of applied — the
// stale-write-after-teardown and stale-write-after-role-switch races.
type Session struct {
	mu    sync.Mutex
	uid   string
	repos Repos
	apply *ApplicationCoordinator
	log   zerolog.Logger

	ctx       context.Context
	cancelCtx context.CancelFunc
	closed    bool

	profile    domain.Profile
	profileSub *stream.Subscription[domain.Profile]

	epoch    int
	roleSubs []canceller
	owned    []domain.Job         // employer projection
	open     []domain.Job         // worker projection input
	myApps   []domain.Application // worker projection input
	feed     []JobView            // worker projection (joined)

	convSub *stream.Subscription[domain.Conversation]
	unread  *UnreadTracker

	listeners map[int]chan Update
	nextID    int
}

// openSession loads the profile, wires the profile and conversation
// subscriptions, and activates the role projection. Called by the Manager.
func openSession(ctx context.Context, uid string, repos Repos, apply *ApplicationCoordinator, log zerolog.Logger) (*Session, error) {
	profile, err := repos.Profiles.FindByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		uid:       uid,
		repos:     repos,
		apply:     apply,
		log:       log.With().Str("profile_id", uid).Logger(),
		ctx:       sctx,
		cancelCtx: cancel,
		profile:   *profile,
		unread:    NewUnreadTracker(uid, repos.Messages, log),
		listeners: make(map[int]chan Update),
	}
	s.unread.OnChange(func(total int) { s.emit(Update{Kind: UpdateUnread, TotalUnread: total}) })

	profileSub, err := repos.Profiles.Watch(sctx, uid)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open session: watch profile: %w", err)
	}
	s.profileSub = profileSub
	go s.consumeProfile(profileSub)

	convSub, err := repos.Conversations.WatchByParticipant(sctx, uid)
	if err != nil {
		profileSub.Cancel()
		cancel()
		return nil, fmt.Errorf("open session: watch conversations: %w", err)
	}
	s.convSub = convSub
	go s.consumeConversations(convSub)

	if err := s.activate(); err != nil {
		s.Logout()
		return nil, err
	}

	s.log.Info().Str("role", profile.Role).Msg("session opened")
	return s, nil
}

// activate tears down the current role projection and rebuilds it from the
// profile's role. A role switch must come through here: the query shape
// depends on the role, so existing projections are replaced, never patched.
func (s *Session) activate() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.epoch++
	epoch := s.epoch
	role := s.profile.Role
	old := s.roleSubs
	s.roleSubs = nil
	s.owned, s.open, s.myApps, s.feed = nil, nil, nil, nil
	s.mu.Unlock()

	for _, c := range old {
		c.Cancel()
	}

	switch role {
	case domain.RoleEmployer:
		sub, err := s.repos.Jobs.WatchByOwner(s.ctx, s.uid)
		if err != nil {
			return fmt.Errorf("activate employer projection: %w", err)
		}
		s.trackRoleSub(sub)
		go s.consumeOwnedJobs(epoch, sub)

	case domain.RoleWorker:
		jobSub, err := s.repos.Jobs.WatchOpen(s.ctx)
		if err != nil {
			return fmt.Errorf("activate worker projection: %w", err)
		}
		s.trackRoleSub(jobSub)

		appSub, err := s.repos.Applications.WatchByWorker(s.ctx, s.uid)
		if err != nil {
			jobSub.Cancel()
			return fmt.Errorf("activate worker projection: %w", err)
		}
		s.trackRoleSub(appSub)

		go s.consumeOpenJobs(epoch, jobSub)
		go s.consumeApplications(epoch, appSub)

	default:
		return fmt.Errorf("activate: %w: unknown role %q", domain.ErrPermissionDenied, role)
	}
	return nil
}

func (s *Session) trackRoleSub(c canceller) {
	s.mu.Lock()
	s.roleSubs = append(s.roleSubs, c)
	s.mu.Unlock()
}

// applyAt runs fn under the session lock only when the session is live and
// epoch is still current. Reports whether fn ran.
func (s *Session) applyAt(epoch int, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || epoch != s.epoch {
		return false
	}
	fn()
	return true
}

func (s *Session) consumeProfile(sub *stream.Subscription[domain.Profile]) {
	for snap := range sub.C() {
		if snap.Err != nil {
			s.log.Error().Err(snap.Err).Msg("profile subscription terminated")
			return
		}
		if len(snap.Docs) == 0 {
			continue
		}
		next := snap.Docs[0]

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		roleChanged := next.Role != s.profile.Role
		s.profile = next
		s.mu.Unlock()

		s.emit(Update{Kind: UpdateProfile})
		if roleChanged {
			s.log.Info().Str("role", next.Role).Msg("role switched, re-activating projections")
			if err := s.activate(); err != nil {
				s.log.Error().Err(err).Msg("re-activation after role switch failed")
			}
		}
	}
}

func (s *Session) consumeOwnedJobs(epoch int, sub *stream.Subscription[domain.Job]) {
	for snap := range sub.C() {
		if snap.Err != nil {
			s.log.Error().Err(snap.Err).Msg("owned-jobs subscription terminated")
			return
		}
		jobs := sanitizeJobs(snap.Docs, s.log)
		if !s.applyAt(epoch, func() { s.owned = jobs }) {
			return
		}
		s.emit(Update{Kind: UpdateJobs})
	}
}

func (s *Session) consumeOpenJobs(epoch int, sub *stream.Subscription[domain.Job]) {
	for snap := range sub.C() {
		if snap.Err != nil {
			s.log.Error().Err(snap.Err).Msg("open-jobs subscription terminated")
			return
		}
		jobs := sanitizeJobs(snap.Docs, s.log)
		if !s.applyAt(epoch, func() {
			s.open = jobs
			s.feed = BuildWorkerFeed(s.open, s.myApps)
		}) {
			return
		}
		s.emit(Update{Kind: UpdateJobs})
	}
}

func (s *Session) consumeApplications(epoch int, sub *stream.Subscription[domain.Application]) {
	for snap := range sub.C() {
		if snap.Err != nil {
			s.log.Error().Err(snap.Err).Msg("applications subscription terminated")
			return
		}
		apps := snap.Docs
		if !s.applyAt(epoch, func() {
			s.myApps = apps
			s.feed = BuildWorkerFeed(s.open, s.myApps)
		}) {
			return
		}
		s.emit(Update{Kind: UpdateJobs})
	}
}

func (s *Session) consumeConversations(sub *stream.Subscription[domain.Conversation]) {
	for snap := range sub.C() {
		if snap.Err != nil {
			s.log.Error().Err(snap.Err).Msg("conversation subscription terminated")
			return
		}
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		s.unread.SetConversations(s.ctx, snap.Docs)
	}
}

// Profile returns a copy of the current profile document.
func (s *Session) Profile() domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Jobs returns the current role projection: the employer's own jobs, or the
// worker's application-annotated open-job feed.
func (s *Session) Jobs() []JobView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.Role == domain.RoleEmployer {
		return BuildEmployerList(s.owned)
	}
	out := make([]JobView, len(s.feed))
	copy(out, s.feed)
	return out
}

// NextUpcoming returns the employer's next upcoming job at or after now.
func (s *Session) NextUpcoming(now time.Time) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.Role != domain.RoleEmployer {
		return domain.Job{}, false
	}
	return NextUpcoming(s.owned, now)
}

// ApplyToJob routes apply-to-job through the coordinator using the current
// view-local status of the job. The projection itself is untouched here; it
// converges through resubscription.
func (s *Session) ApplyToJob(ctx context.Context, jobID, coverLetter string) error {
	s.mu.Lock()
	profile := s.profile
	var view *JobView
	for i := range s.feed {
		if s.feed[i].ID == jobID {
			v := s.feed[i]
			view = &v
			break
		}
	}
	s.mu.Unlock()

	if view == nil {
		return domain.ErrJobNotFound
	}
	return s.apply.Apply(ctx, &profile, *view, coverLetter)
}

// RefreshJobs re-runs role activation from scratch, forcing fresh
// subscriptions and an immediate first snapshot.
func (s *Session) RefreshJobs() error {
	return s.activate()
}

// Hires lists the worker's engagements straight from the store (read-only,
// no subscription).
func (s *Session) Hires(ctx context.Context) ([]domain.Hire, error) {
	return s.repos.Hires.ListByWorker(ctx, s.uid)
}

// Unread exposes the tracker for handlers.
func (s *Session) Unread() *UnreadTracker { return s.unread }

// Subscribe registers a projection-update listener. The returned stop
// function unregisters it; updates are dropped, not queued, for slow
// listeners.
func (s *Session) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 8)
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.listeners[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		if l, ok := s.listeners[id]; ok {
			delete(s.listeners, id)
			close(l)
		}
		s.mu.Unlock()
	}
}

func (s *Session) emit(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.listeners {
		select {
		case ch <- u:
		default:
		}
	}
}

// Logout cancels every subscription owned by the session before clearing
// state — this ordering is what keeps a stale subscription from writing into
// state after sign-out. Idempotent.
func (s *Session) Logout() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.epoch++ // fence any in-flight snapshot application
	subs := append([]canceller{}, s.roleSubs...)
	if s.profileSub != nil {
		subs = append(subs, s.profileSub)
	}
	if s.convSub != nil {
		subs = append(subs, s.convSub)
	}
	s.roleSubs = nil
	listeners := s.listeners
	s.listeners = make(map[int]chan Update)
	s.mu.Unlock()

	for _, c := range subs {
		c.Cancel()
	}
	s.unread.Close()
	s.cancelCtx()

	s.mu.Lock()
	s.owned, s.open, s.myApps, s.feed = nil, nil, nil, nil
	s.mu.Unlock()

	for _, ch := range listeners {
		close(ch)
	}
	s.log.Info().Msg("session closed")
}
