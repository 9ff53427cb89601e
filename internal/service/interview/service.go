// Package interview keeps the server-side session registry. Sessions live
// in memory only and disappear on restart.
package interview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	model "github.com/viva-ai/viva/internal/model/interview"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session already ended")
)

// Service encapsulates interview session state management.
type Service struct {
	maxQuestions int

	mu          sync.RWMutex
	sessions    map[string]model.Session
	turns       map[string][]model.Turn
	screenTexts map[string][]string
	evaluations map[string]model.Evaluation
	watchers    map[string]map[chan model.Turn]struct{}
}

// NewService bootstraps the in-memory registry. maxQuestions bounds the
// interview length; non-positive values fall back to 10.
func NewService(maxQuestions int) *Service {
	if maxQuestions <= 0 {
		maxQuestions = 10
	}
	return &Service{
		maxQuestions: maxQuestions,
		sessions:     make(map[string]model.Session),
		turns:        make(map[string][]model.Turn),
		screenTexts:  make(map[string][]string),
		evaluations:  make(map[string]model.Evaluation),
		watchers:     make(map[string]map[chan model.Turn]struct{}),
	}
}

// CreateSession provisions a session. An empty id gets a fresh uuid; a
// caller-supplied id is kept so presenter-side retries stay stable.
func (s *Service) CreateSession(_ context.Context, id, presenterName, subject string) (model.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}

	session := model.Session{
		ID:            id,
		PresenterName: presenterName,
		Subject:       subject,
		Status:        model.StatusActive,
		CreatedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.turns[session.ID] = make([]model.Turn, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// AppendTurn records a turn, bumps the question counter for questions, and
// notifies live watchers.
func (s *Service) AppendTurn(_ context.Context, turn model.Turn) (model.Turn, error) {
	s.mu.Lock()

	session, ok := s.sessions[turn.SessionID]
	if !ok {
		s.mu.Unlock()
		return model.Turn{}, ErrSessionNotFound
	}
	if session.Status != model.StatusActive {
		s.mu.Unlock()
		return model.Turn{}, ErrSessionEnded
	}

	turn.ID = uuid.NewString()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	if turn.Kind == model.TurnQuestion {
		session.QuestionCount = turn.Index
		s.sessions[turn.SessionID] = session
	}
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)

	// Sends happen under the lock so a watcher cancelling concurrently can
	// never close a channel between the lookup and the send.
	for ch := range s.watchers[turn.SessionID] {
		select {
		case ch <- turn:
		default: // slow watcher, drop rather than block the interview
		}
	}
	s.mu.Unlock()

	return turn, nil
}

// Transcript returns a copy of the stored turns for the session.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.turns[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := make([]model.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// AddScreenContext folds a recognized screen text into the session's
// context history for question generation.
func (s *Service) AddScreenContext(_ context.Context, sessionID, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return
	}
	s.screenTexts[sessionID] = append(s.screenTexts[sessionID], text)
}

// ScreenContextCount reports how many screen captures the session has seen.
func (s *Service) ScreenContextCount(_ context.Context, sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.screenTexts[sessionID])
}

// ShouldEnd reports whether the session has reached its question budget.
func (s *Service) ShouldEnd(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return false, ErrSessionNotFound
	}
	return session.QuestionCount >= s.maxQuestions, nil
}

// EndSession marks the session ended; appends are rejected afterwards.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Status == model.StatusActive {
		session.Status = model.StatusEnded
		s.sessions[sessionID] = session
	}
	return nil
}

// StoreEvaluation records the verdict and marks the session evaluated.
func (s *Service) StoreEvaluation(_ context.Context, eval model.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[eval.SessionID]
	if !ok {
		return ErrSessionNotFound
	}
	eval.CreatedAt = time.Now().UTC()
	s.evaluations[eval.SessionID] = eval
	session.Status = model.StatusEvaluated
	s.sessions[eval.SessionID] = session
	return nil
}

// Evaluation returns the stored verdict, if any.
func (s *Service) Evaluation(_ context.Context, sessionID string) (model.Evaluation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eval, ok := s.evaluations[sessionID]
	return eval, ok
}

// Watch subscribes to turns appended to the session. The returned cancel
// func detaches and closes the channel.
func (s *Service) Watch(_ context.Context, sessionID string) (<-chan model.Turn, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, nil, ErrSessionNotFound
	}

	ch := make(chan model.Turn, 8)
	if s.watchers[sessionID] == nil {
		s.watchers[sessionID] = make(map[chan model.Turn]struct{})
	}
	s.watchers[sessionID][ch] = struct{}{}

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.watchers[sessionID]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
			}
		}
	}
	return ch, cancel, nil
}
