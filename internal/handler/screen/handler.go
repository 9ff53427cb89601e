package screen

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viva-ai/viva/internal/model/api"
	interviewsvc "github.com/viva-ai/viva/internal/service/interview"
	"github.com/viva-ai/viva/internal/service/ocr"
	"github.com/viva-ai/viva/pkg/utils"
)

// Handler serves screen frame analysis.
type Handler struct {
	engine ocr.Engine
	store  *interviewsvc.Service
}

// New creates the screen handler.
func New(engine ocr.Engine, store *interviewsvc.Service) *Handler {
	return &Handler{engine: engine, store: store}
}

// RegisterRoutes mounts the screen endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/screen/analyze", h.handleAnalyze)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var payload api.AnalyzeScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ImageBase64 == "" {
		utils.RespondError(w, http.StatusBadRequest, "image_base64 is required")
		return
	}

	result, err := h.engine.ExtractText(r.Context(), payload.ImageBase64)
	if err != nil {
		log.Printf("[screen] analysis failed for session=%s: %v", payload.SessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "screen analysis failed")
		return
	}

	// Sessions the server does not know about still get their text back;
	// context history is best effort.
	h.store.AddScreenContext(r.Context(), payload.SessionID, result.Text)

	utils.RespondJSON(w, http.StatusOK, api.AnalyzeScreenResponse{
		Success:    true,
		SessionID:  payload.SessionID,
		Text:       result.Text,
		Confidence: result.Confidence,
		Timestamp:  payload.Timestamp,
	})
}
