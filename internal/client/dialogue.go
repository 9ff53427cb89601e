// Package client implements the HTTP contract of the remote dialogue
// service. The client is stateless: everything a call needs travels in the
// request, keyed by the caller-supplied session id.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/viva-ai/viva/internal/model/api"
)

// DialogueClient talks to the dialogue service's JSON API.
type DialogueClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewDialogueClient returns a client for the service rooted at baseURL,
// e.g. "http://localhost:8080/api".
func NewDialogueClient(baseURL string) *DialogueClient {
	return &DialogueClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// StartInterview opens a session and returns the first question.
func (c *DialogueClient) StartInterview(ctx context.Context, req api.StartRequest) (api.StartResponse, error) {
	var resp api.StartResponse
	if err := c.post(ctx, "/interview/start", req, &resp); err != nil {
		return api.StartResponse{}, err
	}
	if !resp.Success {
		return api.StartResponse{}, fmt.Errorf("start interview rejected: %s", resp.Error)
	}
	return resp, nil
}

// AnalyzeScreen submits a captured frame for text recognition.
func (c *DialogueClient) AnalyzeScreen(ctx context.Context, req api.AnalyzeScreenRequest) (api.AnalyzeScreenResponse, error) {
	var resp api.AnalyzeScreenResponse
	if err := c.post(ctx, "/screen/analyze", req, &resp); err != nil {
		return api.AnalyzeScreenResponse{}, err
	}
	if !resp.Success {
		return api.AnalyzeScreenResponse{}, fmt.Errorf("screen analysis rejected: %s", resp.Error)
	}
	return resp, nil
}

// TranscribeAudio submits an encoded recording and returns its transcript.
func (c *DialogueClient) TranscribeAudio(ctx context.Context, req api.TranscribeRequest) (api.TranscribeResponse, error) {
	var resp api.TranscribeResponse
	if err := c.post(ctx, "/audio/transcribe", req, &resp); err != nil {
		return api.TranscribeResponse{}, err
	}
	if !resp.Success {
		return api.TranscribeResponse{}, fmt.Errorf("transcription rejected: %s", resp.Error)
	}
	return resp, nil
}

// SubmitResponse sends the presenter's answer and returns either the next
// question or the end-of-interview signal.
func (c *DialogueClient) SubmitResponse(ctx context.Context, req api.RespondRequest) (api.RespondResponse, error) {
	var resp api.RespondResponse
	if err := c.post(ctx, "/interview/respond", req, &resp); err != nil {
		return api.RespondResponse{}, err
	}
	if !resp.Success {
		return api.RespondResponse{}, fmt.Errorf("response rejected: %s", resp.Error)
	}
	return resp, nil
}

// Evaluate requests the final verdict for a finished session.
func (c *DialogueClient) Evaluate(ctx context.Context, sessionID string) (api.EvaluateResponse, error) {
	var resp api.EvaluateResponse
	if err := c.post(ctx, "/interview/evaluate/"+sessionID, struct{}{}, &resp); err != nil {
		return api.EvaluateResponse{}, err
	}
	if !resp.Success {
		return api.EvaluateResponse{}, fmt.Errorf("evaluation rejected: %s", resp.Error)
	}
	return resp, nil
}

func (c *DialogueClient) post(ctx context.Context, path string, payload, out any) error {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 60 * time.Second}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("call %s: service returned %d", path, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
