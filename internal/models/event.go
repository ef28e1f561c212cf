package models

const (
	EventMatchCreated   = "match.created"
	EventMessageCreated = "message.created"
)

// Event is the payload pushed to realtime subscribers.
type Event struct {
	Type    string   `json:"type"`
	Match   *Match   `json:"match,omitempty"`
	Message *Message `json:"message,omitempty"`
}

func NewMatchEvent(m Match) Event {
	return Event{Type: EventMatchCreated, Match: &m}
}

func NewMessageEvent(msg Message) Event {
	return Event{Type: EventMessageCreated, Message: &msg}
}
