package sync

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/ports"
	"github.com/lavoroapp/marketplace-api/internal/core/stream"
)

// UnreadTracker derives per-conversation and total unread counts from raw
// message subscriptions. A message is unread when its sender is not self and
// its read-set does not contain self. Counts are recomputed synchronously on
// every snapshot and never optimistically zeroed: marking a conversation
// read shows up only once the store delivers the next snapshot.
type UnreadTracker struct {
	mu       sync.Mutex
	self     string
	msgs     ports.MessageRepository
	log      zerolog.Logger
	counts   map[string]int
	subs     map[string]*stream.Subscription[domain.Message]
	onChange func(total int)
	closed   bool
}

func NewUnreadTracker(self string, msgs ports.MessageRepository, log zerolog.Logger) *UnreadTracker {
	return &UnreadTracker{
		self:   self,
		msgs:   msgs,
		log:    log,
		counts: make(map[string]int),
		subs:   make(map[string]*stream.Subscription[domain.Message]),
	}
}

// OnChange registers a callback invoked (outside the tracker lock is not
// guaranteed; keep it cheap) whenever the total changes.
func (t *UnreadTracker) OnChange(fn func(total int)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// SetConversations reconciles the tracked set: new conversations get a
// message subscription, vanished ones are cancelled and forgotten. Safe to
// call on every conversation-list snapshot.
func (t *UnreadTracker) SetConversations(ctx context.Context, convs []domain.Conversation) {
	want := make(map[string]bool, len(convs))
	for i := range convs {
		want[convs[i].ID] = true
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	for id, sub := range t.subs {
		if !want[id] {
			sub.Cancel()
			delete(t.subs, id)
			delete(t.counts, id)
		}
	}
	missing := make([]string, 0)
	for id := range want {
		if _, ok := t.subs[id]; !ok {
			missing = append(missing, id)
		}
	}
	t.mu.Unlock()

	for _, id := range missing {
		sub, err := t.msgs.Watch(ctx, id)
		if err != nil {
			t.log.Error().Err(err).Str("conversation_id", id).Msg("message watch failed")
			continue
		}
		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			sub.Cancel()
			return
		}
		t.subs[id] = sub
		t.mu.Unlock()
		go t.consume(id, sub)
	}
	t.notify()
}

func (t *UnreadTracker) consume(convID string, sub *stream.Subscription[domain.Message]) {
	for snap := range sub.C() {
		if snap.Err != nil {
			t.log.Error().Err(snap.Err).Str("conversation_id", convID).Msg("message subscription terminated")
			return
		}
		count := 0
		for i := range snap.Docs {
			if snap.Docs[i].UnreadBy(t.self) {
				count++
			}
		}

		t.mu.Lock()
		// discard snapshots from a superseded or cancelled subscription
		if t.closed || t.subs[convID] != sub {
			t.mu.Unlock()
			return
		}
		t.counts[convID] = count
		t.mu.Unlock()
		t.notify()
	}
}

// Count returns the unread count of one conversation.
func (t *UnreadTracker) Count(conversationID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[conversationID]
}

// Counts returns a copy of all per-conversation counts.
func (t *UnreadTracker) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.counts))
	for id, n := range t.counts {
		out[id] = n
	}
	return out
}

// Total returns the sum across all tracked conversations.
func (t *UnreadTracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalLocked()
}

func (t *UnreadTracker) totalLocked() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// MarkRead asks the store to add self to the read-set of every message in
// the conversation. The local count stays untouched until the next snapshot
// confirms the write.
func (t *UnreadTracker) MarkRead(ctx context.Context, conversationID string) error {
	return t.msgs.MarkRead(ctx, conversationID, t.self)
}

// Close cancels every message subscription. Idempotent.
func (t *UnreadTracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	subs := make([]*stream.Subscription[domain.Message], 0, len(t.subs))
	for _, sub := range t.subs {
		subs = append(subs, sub)
	}
	t.subs = make(map[string]*stream.Subscription[domain.Message])
	t.counts = make(map[string]int)
	t.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

func (t *UnreadTracker) notify() {
	t.mu.Lock()
	fn := t.onChange
	total := t.totalLocked()
	t.mu.Unlock()
	if fn != nil {
		fn(total)
	}
}
