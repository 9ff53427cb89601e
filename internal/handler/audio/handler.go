package audio

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viva-ai/viva/internal/model/api"
	"github.com/viva-ai/viva/internal/service/stt"
	"github.com/viva-ai/viva/pkg/utils"
)

// Handler serves audio transcription.
type Handler struct {
	transcriber stt.Transcriber
}

// New creates the audio handler.
func New(transcriber stt.Transcriber) *Handler {
	return &Handler{transcriber: transcriber}
}

// RegisterRoutes mounts the audio endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/audio/transcribe", h.handleTranscribe)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var payload api.TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.AudioBase64 == "" {
		utils.RespondError(w, http.StatusBadRequest, "audio_base64 is required")
		return
	}

	transcript, err := h.transcriber.Transcribe(r.Context(), payload.AudioBase64, payload.Format)
	if err != nil {
		log.Printf("[audio] transcription failed for session=%s: %v", payload.SessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "transcription failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, api.TranscribeResponse{
		Success:  true,
		Text:     transcript.Text,
		Language: transcript.Language,
		Duration: transcript.Duration,
	})
}
