package domain

import "time"

// Conversation is a chat channel scoped to one job and its two parties.
// Invariant: no two conversations share the (JobID, EmployerID, WorkerID)
// triple; once created a conversation is never recreated or duplicated.
type Conversation struct {
	ID         string    `json:"id" bson:"_id"`
	JobID      string    `json:"job_id" bson:"job_id"`
	EmployerID string    `json:"employer_id" bson:"employer_id"`
	WorkerID   string    `json:"worker_id" bson:"worker_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Participant reports whether profileID is one of the two parties.
func (c *Conversation) Participant(profileID string) bool {
	return c.EmployerID == profileID || c.WorkerID == profileID
}

// Message is a single chat message. ReadBy holds the profile ids that have
// seen it; the sender is included implicitly.
type Message struct {
	ID             string    `json:"id" bson:"_id"`
	ConversationID string    `json:"conversation_id" bson:"conversation_id"`
	SenderID       string    `json:"sender_id" bson:"sender_id"`
	Text           string    `json:"text" bson:"text"`
	ReadBy         []string  `json:"read_by" bson:"read_by"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// UnreadBy reports whether the message counts as unread for profileID:
// sent by someone else and not yet present in ReadBy.
func (m *Message) UnreadBy(profileID string) bool {
	if m.SenderID == profileID {
		return false
	}
	for _, id := range m.ReadBy {
		if id == profileID {
			return false
		}
	}
	return true
}
