package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	audioHandler "github.com/viva-ai/viva/internal/handler/audio"
	interviewHandler "github.com/viva-ai/viva/internal/handler/interview"
	liveHandler "github.com/viva-ai/viva/internal/handler/live"
	screenHandler "github.com/viva-ai/viva/internal/handler/screen"
	middlewarePkg "github.com/viva-ai/viva/internal/middleware"
	interviewsvc "github.com/viva-ai/viva/internal/service/interview"
	"github.com/viva-ai/viva/internal/service/ocr"
	"github.com/viva-ai/viva/internal/service/stt"
	"github.com/viva-ai/viva/pkg/utils"
)

// NewRouter wires HTTP routes to core services. The OCR engine and the
// transcriber may be nil; their endpoints then answer 503 so the presenter
// side can fall back to manual entry.
func NewRouter(store *interviewsvc.Service, questions interviewHandler.QuestionSource, engine ocr.Engine, transcriber stt.Transcriber) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "running",
			"service": "viva interviewer api",
		})
	})

	r.Route("/api", func(api chi.Router) {
		interviewHandler.New(store, questions).RegisterRoutes(api)
		liveHandler.New(store).RegisterRoutes(api)

		if engine != nil {
			screenHandler.New(engine, store).RegisterRoutes(api)
		} else {
			api.Post("/screen/analyze", unavailable("screen analysis not configured"))
		}

		if transcriber != nil {
			audioHandler.New(transcriber).RegisterRoutes(api)
		} else {
			api.Post("/audio/transcribe", unavailable("transcription not configured"))
		}
	})

	return r
}

func unavailable(msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondError(w, http.StatusServiceUnavailable, msg)
	}
}
