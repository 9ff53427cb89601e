package interview

import "time"

// TurnKind tags a conversation turn as either side of the exchange.
type TurnKind string

const (
	TurnQuestion TurnKind = "question"
	TurnResponse TurnKind = "response"
)

// Turn is one entry in the ordered conversation log. Index is set for
// questions only and counts from 1.
type Turn struct {
	ID        string    `json:"id,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Kind      TurnKind  `json:"kind"`
	Text      string    `json:"text"`
	Index     int       `json:"index,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot holds the most recently completed screen-text analysis. It is a
// single overwritten cell, never a queue.
type Snapshot struct {
	Text       string    `json:"text"`
	CapturedAt time.Time `json:"capturedAt"`
}
