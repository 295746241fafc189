package sync

import (
	"context"
	"testing"
	"time"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
)

func trackedConversation(t *testing.T, msgs *stubMessageRepo, self, convID string) *UnreadTracker {
	t.Helper()
	tracker := NewUnreadTracker(self, msgs, discardLogger)
	tracker.SetConversations(context.Background(), []domain.Conversation{
		{ID: convID, JobID: "j1", EmployerID: "e1", WorkerID: self},
	})
	return tracker
}

func TestUnread_CountsOnlyUnreadForeignMessages(t *testing.T) {
	msgs := newStubMessageRepo()
	msgs.add(domain.Message{ID: "m1", ConversationID: "c1", SenderID: "e1", Text: "unread"})
	msgs.add(domain.Message{ID: "m2", ConversationID: "c1", SenderID: "e1", Text: "read", ReadBy: []string{"w1"}})
	msgs.add(domain.Message{ID: "m3", ConversationID: "c1", SenderID: "w1", Text: "own message"})

	tracker := trackedConversation(t, msgs, "w1", "c1")
	defer tracker.Close()

	msgs.push("c1")
	waitFor(t, func() bool { return tracker.Count("c1") == 1 })

	if total := tracker.Total(); total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
}

func TestUnread_MarkReadZeroesOnNextSnapshotOnly(t *testing.T) {
	msgs := newStubMessageRepo()
	msgs.add(domain.Message{ID: "m1", ConversationID: "c1", SenderID: "e1", Text: "unread"})

	tracker := trackedConversation(t, msgs, "w1", "c1")
	defer tracker.Close()

	msgs.push("c1")
	waitFor(t, func() bool { return tracker.Count("c1") == 1 })

	if err := tracker.MarkRead(context.Background(), "c1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// no optimistic zeroing: the count holds until the store confirms
	if tracker.Count("c1") != 1 {
		t.Fatalf("count changed before the next snapshot")
	}

	msgs.push("c1")
	waitFor(t, func() bool { return tracker.Count("c1") == 0 })
}

func TestUnread_TotalSumsAcrossConversations(t *testing.T) {
	msgs := newStubMessageRepo()
	msgs.add(domain.Message{ID: "m1", ConversationID: "c1", SenderID: "e1"})
	msgs.add(domain.Message{ID: "m2", ConversationID: "c2", SenderID: "e2"})
	msgs.add(domain.Message{ID: "m3", ConversationID: "c2", SenderID: "e2"})

	tracker := NewUnreadTracker("w1", msgs, discardLogger)
	defer tracker.Close()
	tracker.SetConversations(context.Background(), []domain.Conversation{
		{ID: "c1", EmployerID: "e1", WorkerID: "w1"},
		{ID: "c2", EmployerID: "e2", WorkerID: "w1"},
	})

	msgs.push("c1")
	msgs.push("c2")
	waitFor(t, func() bool { return tracker.Total() == 3 })

	counts := tracker.Counts()
	if counts["c1"] != 1 || counts["c2"] != 2 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestUnread_RemovedConversationStopsCounting(t *testing.T) {
	msgs := newStubMessageRepo()
	msgs.add(domain.Message{ID: "m1", ConversationID: "c1", SenderID: "e1"})

	tracker := NewUnreadTracker("w1", msgs, discardLogger)
	defer tracker.Close()
	tracker.SetConversations(context.Background(), []domain.Conversation{{ID: "c1", EmployerID: "e1", WorkerID: "w1"}})

	msgs.push("c1")
	waitFor(t, func() bool { return tracker.Total() == 1 })

	// conversation vanishes (job deleted): its subscription is cancelled
	tracker.SetConversations(context.Background(), nil)
	if tracker.Total() != 0 {
		t.Fatalf("count survived conversation removal")
	}

	// a straggler snapshot from the cancelled subscription must be discarded
	msgs.push("c1")
	time.Sleep(20 * time.Millisecond)
	if tracker.Total() != 0 {
		t.Fatalf("stale snapshot applied after cancellation")
	}
}

func TestUnread_OnChangeFiresWithTotal(t *testing.T) {
	msgs := newStubMessageRepo()
	msgs.add(domain.Message{ID: "m1", ConversationID: "c1", SenderID: "e1"})

	tracker := NewUnreadTracker("w1", msgs, discardLogger)
	defer tracker.Close()

	totals := make(chan int, 8)
	tracker.OnChange(func(total int) { totals <- total })
	tracker.SetConversations(context.Background(), []domain.Conversation{{ID: "c1", EmployerID: "e1", WorkerID: "w1"}})

	msgs.push("c1")
	waitFor(t, func() bool {
		select {
		case total := <-totals:
			return total == 1
		default:
			return false
		}
	})
}
