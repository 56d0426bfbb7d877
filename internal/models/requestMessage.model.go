package models

// RequestMessage is an append-only conversation entry. The full set of rows
// for a request is the durable negotiation history; the request's status
// field only reflects the latest state.
type RequestMessage struct {
	BaseModel
	RequestID   int           `gorm:"index;not null"     json:"requestId"`
	Sender      Actor         `gorm:"type:text;not null" json:"sender"`
	MessageType RequestAction `gorm:"type:text;not null" json:"messageType"`
	Body        *string       `gorm:"type:text"          json:"body,omitempty"`
}

// NormalizeMessageType maps free-form input to a known message type,
// falling back to note
func NormalizeMessageType(raw string) RequestAction {
	switch RequestAction(raw) {
	case ActionQuote, ActionAccept, ActionReject, ActionCounter, ActionDecline, ActionNote:
		return RequestAction(raw)
	}
	return ActionNote
}

// NormalizeSender maps free-form input to a known actor, falling back to client
func NormalizeSender(raw string) Actor {
	if Actor(raw) == ActorAdmin {
		return ActorAdmin
	}
	return ActorClient
}
