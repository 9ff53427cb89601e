package interview

import (
	"encoding/json"
	"time"
)

// Frame is a single still image taken from a live screen stream.
type Frame struct {
	Base64     string    `json:"base64"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Clip is a finished voice recording encoded for transfer.
type Clip struct {
	Base64 string `json:"base64"`
	Format string `json:"format"`
}

// Evaluation is the remote service's final verdict. The orchestrator treats
// it as opaque; the server fills it with the rubric JSON.
type Evaluation struct {
	SessionID string          `json:"sessionId"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
}
