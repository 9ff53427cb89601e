package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/viva-ai/viva/internal/client"
	"github.com/viva-ai/viva/internal/model/api"
)

func TestStartInterviewRoundTrip(t *testing.T) {
	var got api.StartRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interview/start" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(api.StartResponse{
			Success:        true,
			SessionID:      got.SessionID,
			Question:       "Walk me through your project.",
			QuestionNumber: 1,
		})
	}))
	defer srv.Close()

	c := client.NewDialogueClient(srv.URL)
	resp, err := c.StartInterview(context.Background(), api.StartRequest{
		SessionID:     "sess-1",
		PresenterName: "Ana",
		Subject:       "Widget App",
	})
	if err != nil {
		t.Fatalf("StartInterview err: %v", err)
	}
	if got.PresenterName != "Ana" || got.Subject != "Widget App" {
		t.Fatalf("request body not forwarded: %+v", got)
	}
	if resp.Question == "" || resp.QuestionNumber != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRejectedResponseSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.RespondResponse{Success: false, Error: "session not found"})
	}))
	defer srv.Close()

	c := client.NewDialogueClient(srv.URL)
	_, err := c.SubmitResponse(context.Background(), api.RespondRequest{SessionID: "missing"})
	if err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Fatalf("err = %v, want the server's message", err)
	}
}

func TestServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := client.NewDialogueClient(srv.URL)
	if _, err := c.TranscribeAudio(context.Background(), api.TranscribeRequest{}); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // ensure the port refuses connections

	c := client.NewDialogueClient(srv.URL)
	if _, err := c.StartInterview(context.Background(), api.StartRequest{}); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestEvaluatePassesSessionInPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/interview/evaluate/sess-9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.EvaluateResponse{
			Success:    true,
			SessionID:  "sess-9",
			Evaluation: json.RawMessage(`{"overall_score":90,"grade":"A"}`),
		})
	}))
	defer srv.Close()

	c := client.NewDialogueClient(srv.URL)
	resp, err := c.Evaluate(context.Background(), "sess-9")
	if err != nil {
		t.Fatalf("Evaluate err: %v", err)
	}

	var verdict struct {
		Grade string `json:"grade"`
	}
	if err := json.Unmarshal(resp.Evaluation, &verdict); err != nil {
		t.Fatalf("evaluation is not valid JSON: %v", err)
	}
	if verdict.Grade != "A" {
		t.Fatalf("grade = %q", verdict.Grade)
	}
}

func TestAnalyzeScreenForwardsFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.AnalyzeScreenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ImageBase64 == "" {
			t.Error("missing image payload")
		}
		json.NewEncoder(w).Encode(api.AnalyzeScreenResponse{
			Success:   true,
			SessionID: req.SessionID,
			Text:      "Architecture Overview",
		})
	}))
	defer srv.Close()

	c := client.NewDialogueClient(srv.URL)
	resp, err := c.AnalyzeScreen(context.Background(), api.AnalyzeScreenRequest{
		SessionID:   "sess-1",
		ImageBase64: "aW1hZ2U=",
	})
	if err != nil {
		t.Fatalf("AnalyzeScreen err: %v", err)
	}
	if resp.Text != "Architecture Overview" {
		t.Fatalf("text = %q", resp.Text)
	}
}
