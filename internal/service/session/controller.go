// Package session hosts the orchestration core of the interview: a single
// controller that sequences turns, drives the dialogue service, and composes
// the recording pipeline with the background screen sampler.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viva-ai/viva/internal/model/api"
	"github.com/viva-ai/viva/internal/model/interview"
)

var (
	// ErrEmptyResponse rejects blank submissions before any network call.
	ErrEmptyResponse = errors.New("response text is empty")
	// ErrInvalidState rejects an operation the current state does not allow.
	ErrInvalidState = errors.New("operation not valid in current state")
	// ErrTranscription marks a recoverable transcription failure; the caller
	// falls back to manual text entry.
	ErrTranscription = errors.New("transcription failed")
)

// Dialogue is the slice of the remote dialogue service the controller uses.
type Dialogue interface {
	StartInterview(ctx context.Context, req api.StartRequest) (api.StartResponse, error)
	TranscribeAudio(ctx context.Context, req api.TranscribeRequest) (api.TranscribeResponse, error)
	SubmitResponse(ctx context.Context, req api.RespondRequest) (api.RespondResponse, error)
	Evaluate(ctx context.Context, sessionID string) (api.EvaluateResponse, error)
}

// Recorder is the voice capture lifecycle the controller delegates to.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (interview.Clip, error)
	Abort()
}

// ScreenSampler runs unattended next to the controller and exposes the
// latest recognized screen text.
type ScreenSampler interface {
	Start(ctx context.Context, sessionID string) error
	Snapshot() interview.Snapshot
	Stop()
}

// Controller owns the session identity and the strictly ordered
// conversation log. All turn appends go through it, so no concurrent
// activity can corrupt turn order.
type Controller struct {
	dialogue Dialogue
	recorder Recorder
	sampler  ScreenSampler

	mu         sync.Mutex
	state      State
	session    interview.Session
	turns      []interview.Turn
	pending    string
	evaluation *interview.Evaluation
	teardown   sync.Once
}

// NewController composes the orchestration core from its collaborators.
func NewController(dialogue Dialogue, recorder Recorder, sampler ScreenSampler) *Controller {
	return &Controller{
		dialogue: dialogue,
		recorder: recorder,
		sampler:  sampler,
		state:    StateCreated,
	}
}

// Start opens the session, records the first question as turn index 1 and
// launches background screen sampling. A failure here is fatal: the
// controller moves to Failed with no partial turns.
func (c *Controller) Start(ctx context.Context, presenterName, subject string) (interview.Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCreated {
		return interview.Turn{}, fmt.Errorf("start: %w", ErrInvalidState)
	}
	c.state = StateStarting

	sessionID := uuid.NewString()
	resp, err := c.dialogue.StartInterview(ctx, api.StartRequest{
		SessionID:     sessionID,
		PresenterName: presenterName,
		Subject:       subject,
	})
	if err != nil {
		c.state = StateFailed
		return interview.Turn{}, fmt.Errorf("start interview: %w", err)
	}
	if resp.SessionID != "" {
		sessionID = resp.SessionID
	}

	c.session = interview.Session{
		ID:            sessionID,
		PresenterName: presenterName,
		Subject:       subject,
		Status:        interview.StatusActive,
	}

	index := resp.QuestionNumber
	if index <= 0 {
		index = 1
	}
	question := c.appendQuestion(resp.Question, index)
	c.state = StateAwaiting

	// Sampling is best effort: a denied screen never blocks the interview.
	if err := c.sampler.Start(ctx, sessionID); err != nil {
		log.Printf("[session] screen sampling unavailable: %v", err)
	}

	return question, nil
}

// BeginRecording starts voice capture for the pending answer. Screen
// sampling continues alongside. A duplicate start or an unavailable
// microphone leaves the state unchanged.
func (c *Controller) BeginRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaiting && c.state != StateRecording {
		return fmt.Errorf("begin recording: %w", ErrInvalidState)
	}
	// A start while already recording is rejected by the pipeline itself,
	// leaving the live recording untouched.
	if err := c.recorder.Start(ctx); err != nil {
		return err
	}
	c.state = StateRecording
	return nil
}

// EndRecording stops capture and transcribes the clip. On transcription
// failure the pending text stays empty and the returned error wraps
// ErrTranscription; either way the controller returns to AwaitingResponse.
func (c *Controller) EndRecording(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRecording {
		return "", fmt.Errorf("end recording: %w", ErrInvalidState)
	}
	c.state = StateTranscribe

	clip, err := c.recorder.Stop(ctx)
	if err != nil {
		c.state = StateAwaiting
		return "", err
	}

	resp, err := c.dialogue.TranscribeAudio(ctx, api.TranscribeRequest{
		SessionID:   c.session.ID,
		AudioBase64: clip.Base64,
		Format:      clip.Format,
	})
	c.state = StateAwaiting
	if err != nil {
		c.pending = ""
		return "", fmt.Errorf("%w: %w", ErrTranscription, err)
	}

	c.pending = resp.Text
	return resp.Text, nil
}

// SubmitResponse sends the answer together with the current screen snapshot
// and either appends the next question or moves the session toward
// evaluation. On a network failure the response turn is retained and the
// state returns to AwaitingResponse, so the same call can be retried
// without duplicating the turn.
func (c *Controller) SubmitResponse(ctx context.Context, text string) (bool, error) {
	if strings.TrimSpace(text) == "" {
		return false, ErrEmptyResponse
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaiting {
		return false, fmt.Errorf("submit response: %w", ErrInvalidState)
	}
	c.state = StateSubmitting

	// A retry after a failed submission finds the response already logged.
	if n := len(c.turns); n == 0 || c.turns[n-1].Kind == interview.TurnQuestion {
		c.appendResponse(text)
	}

	snap := c.sampler.Snapshot()
	resp, err := c.dialogue.SubmitResponse(ctx, api.RespondRequest{
		SessionID:     c.session.ID,
		ResponseText:  text,
		ScreenContext: snap.Text,
	})
	if err != nil {
		c.state = StateAwaiting
		return false, fmt.Errorf("submit response: %w", err)
	}

	c.pending = ""
	if resp.ShouldEnd {
		c.state = StateEnding
		c.session.Status = interview.StatusEnded
		c.state = StateEvaluating
		return true, nil
	}

	index := resp.QuestionNumber
	if index <= 0 {
		index = c.session.QuestionCount + 1
	}
	c.appendQuestion(resp.Question, index)
	c.state = StateAwaiting
	return false, nil
}

// Finish requests the final evaluation. A failure here is fatal but the
// conversation log is preserved for diagnostics.
func (c *Controller) Finish(ctx context.Context) (interview.Evaluation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEvaluating {
		return interview.Evaluation{}, fmt.Errorf("finish: %w", ErrInvalidState)
	}

	resp, err := c.dialogue.Evaluate(ctx, c.session.ID)
	if err != nil {
		c.state = StateFailed
		return interview.Evaluation{}, fmt.Errorf("evaluate interview: %w", err)
	}

	eval := interview.Evaluation{SessionID: c.session.ID, Result: resp.Evaluation}
	c.evaluation = &eval
	c.session.Status = interview.StatusEvaluated
	c.state = StateCompleted
	return eval, nil
}

// Teardown cancels screen sampling and releases any device streams. It is
// idempotent and callable from any state, including Failed.
func (c *Controller) Teardown() {
	c.teardown.Do(func() {
		c.sampler.Stop()
		c.recorder.Abort()
	})
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the session identity.
func (c *Controller) Session() interview.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Conversation returns a copy of the ordered turn log.
func (c *Controller) Conversation() []interview.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interview.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// PendingResponse returns the transcript waiting to be submitted, if any.
func (c *Controller) PendingResponse() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Evaluation returns the stored verdict once the session completed.
func (c *Controller) Evaluation() (interview.Evaluation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.evaluation == nil {
		return interview.Evaluation{}, false
	}
	return *c.evaluation, true
}

func (c *Controller) appendQuestion(text string, index int) interview.Turn {
	turn := interview.Turn{
		SessionID: c.session.ID,
		Kind:      interview.TurnQuestion,
		Text:      text,
		Index:     index,
		CreatedAt: time.Now().UTC(),
	}
	c.turns = append(c.turns, turn)
	c.session.QuestionCount = index
	return turn
}

func (c *Controller) appendResponse(text string) {
	c.turns = append(c.turns, interview.Turn{
		SessionID: c.session.ID,
		Kind:      interview.TurnResponse,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	})
}
