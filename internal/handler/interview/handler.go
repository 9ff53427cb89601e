package interview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viva-ai/viva/internal/model/api"
	model "github.com/viva-ai/viva/internal/model/interview"
	interviewsvc "github.com/viva-ai/viva/internal/service/interview"
	"github.com/viva-ai/viva/pkg/utils"
)

// QuestionSource abstracts question generation and evaluation so handlers
// can be tested without a model.
type QuestionSource interface {
	OpeningQuestion(ctx context.Context, presenterName, subject string) string
	FollowupQuestion(ctx context.Context, turns []model.Turn, response, screenContext string, questionNumber int) string
	Evaluate(ctx context.Context, turns []model.Turn, screenCaptures int) json.RawMessage
}

// Handler serves the interview lifecycle endpoints.
type Handler struct {
	store     *interviewsvc.Service
	questions QuestionSource
}

// New creates the interview handler.
func New(store *interviewsvc.Service, questions QuestionSource) *Handler {
	return &Handler{store: store, questions: questions}
}

// RegisterRoutes mounts the interview endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/interview/start", h.handleStart)
	r.Post("/interview/respond", h.handleRespond)
	r.Post("/interview/evaluate/{sessionID}", h.handleEvaluate)
	r.Get("/interview/status/{sessionID}", h.handleStatus)
	r.Delete("/interview/end/{sessionID}", h.handleEnd)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload api.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.store.CreateSession(r.Context(), payload.SessionID, payload.PresenterName, payload.Subject)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	question := h.questions.OpeningQuestion(r.Context(), payload.PresenterName, payload.Subject)
	if _, err := h.store.AppendTurn(r.Context(), model.Turn{
		SessionID: session.ID,
		Kind:      model.TurnQuestion,
		Text:      question,
		Index:     1,
	}); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, api.StartResponse{
		Success:        true,
		SessionID:      session.ID,
		Question:       question,
		QuestionNumber: 1,
	})
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	var payload api.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" || payload.ResponseText == "" {
		utils.RespondError(w, http.StatusBadRequest, "session_id and response_text are required")
		return
	}

	session, err := h.store.GetSession(r.Context(), payload.SessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	if _, err := h.store.AppendTurn(r.Context(), model.Turn{
		SessionID: session.ID,
		Kind:      model.TurnResponse,
		Text:      payload.ResponseText,
	}); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, interviewsvc.ErrSessionEnded) {
			status = http.StatusConflict
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	if payload.ScreenContext != "" {
		h.store.AddScreenContext(r.Context(), session.ID, payload.ScreenContext)
	}

	shouldEnd, err := h.store.ShouldEnd(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if shouldEnd {
		_ = h.store.EndSession(r.Context(), session.ID)
		utils.RespondJSON(w, http.StatusOK, api.RespondResponse{Success: true, ShouldEnd: true})
		return
	}

	turns, err := h.store.Transcript(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	nextNumber := session.QuestionCount + 1
	question := h.questions.FollowupQuestion(r.Context(), turns, payload.ResponseText, payload.ScreenContext, nextNumber)
	if _, err := h.store.AppendTurn(r.Context(), model.Turn{
		SessionID: session.ID,
		Kind:      model.TurnQuestion,
		Text:      question,
		Index:     nextNumber,
	}); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, api.RespondResponse{
		Success:        true,
		Question:       question,
		QuestionNumber: nextNumber,
	})
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if eval, ok := h.store.Evaluation(r.Context(), sessionID); ok {
		utils.RespondJSON(w, http.StatusOK, api.EvaluateResponse{
			Success:    true,
			SessionID:  sessionID,
			Evaluation: eval.Result,
		})
		return
	}

	turns, err := h.store.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	result := h.questions.Evaluate(r.Context(), turns, h.store.ScreenContextCount(r.Context(), sessionID))
	if err := h.store.StoreEvaluation(r.Context(), model.Evaluation{SessionID: sessionID, Result: result}); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, api.EvaluateResponse{
		Success:    true,
		SessionID:  sessionID,
		Evaluation: result,
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.store.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	turns, err := h.store.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, api.StatusResponse{
		Success:       true,
		SessionID:     session.ID,
		Status:        string(session.Status),
		QuestionCount: session.QuestionCount,
		TurnCount:     len(turns),
	})
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.store.EndSession(r.Context(), sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"success": true, "session_id": sessionID})
}
