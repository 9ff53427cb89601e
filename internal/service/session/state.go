package session

// State names one node of the controller's turn-sequence state machine.
type State string

const (
	StateCreated    State = "created"
	StateStarting   State = "starting"
	StateAwaiting   State = "awaiting_response"
	StateRecording  State = "recording"
	StateTranscribe State = "transcribing"
	StateSubmitting State = "submitting"
	StateEnding     State = "ending"
	StateEvaluating State = "evaluating"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether no further forward transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
