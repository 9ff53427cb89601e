package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/viva-ai/viva/internal/config"
	"github.com/viva-ai/viva/internal/handler"
	interviewsvc "github.com/viva-ai/viva/internal/service/interview"
	"github.com/viva-ai/viva/internal/service/interviewer"
	"github.com/viva-ai/viva/internal/service/ocr"
	"github.com/viva-ai/viva/internal/service/stt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := interviewsvc.NewService(cfg.Interview.MaxQuestions)

	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing with fallback question generation")
			chatModel = nil
		}
	} else {
		log.Println("ark credentials not configured, using fallback question generation")
	}

	questions, err := interviewer.NewService(ctx, chatModel)
	if err != nil {
		log.Fatalf("failed to initialize interviewer service: %v", err)
	}
	if questions.Enabled() {
		log.Println("interviewer model initialized successfully")
	}

	var engine ocr.Engine
	if cfg.OCR.Enabled {
		tess, err := ocr.NewTesseractEngine(cfg.OCR.Language)
		if err != nil {
			log.Printf("warning: screen analysis disabled: %v", err)
		} else {
			engine = tess
			log.Println("screen analysis engine initialized")
		}
	}

	var transcriber stt.Transcriber
	if cfg.STT.Enabled {
		transcriber = stt.NewWhisperClient(cfg.STT.BaseURL, cfg.STT.APIKey, cfg.STT.Model)
		log.Println("transcription service initialized")
	} else {
		log.Println("STT credentials not configured, skipping transcription service")
	}

	router := handler.NewRouter(store, questions, engine, transcriber)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("viva interviewer api listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
