// Package stt transcribes recorded audio through a whisper-compatible
// transcription API.
package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Transcript is the text recovered from one recording.
type Transcript struct {
	Text     string
	Language string
	Duration float64
}

// Transcriber converts an encoded audio payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioBase64, format string) (Transcript, error)
}

// WhisperClient posts recordings to an OpenAI-style /audio/transcriptions
// endpoint.
type WhisperClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

// NewWhisperClient builds a client; empty model selects "whisper-1".
func NewWhisperClient(baseURL, apiKey, model string) *WhisperClient {
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: 120 * time.Second},
	}
}

// Transcribe decodes the payload and sends it for transcription.
func (c *WhisperClient) Transcribe(ctx context.Context, audioBase64, format string) (Transcript, error) {
	raw, err := decodeAudio(audioBase64)
	if err != nil {
		return Transcript{}, err
	}
	if format == "" {
		format = "wav"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+format)
	if err != nil {
		return Transcript{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return Transcript{}, fmt.Errorf("build upload: %w", err)
	}
	if err := writer.WriteField("model", c.Model); err != nil {
		return Transcript{}, fmt.Errorf("build upload: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return Transcript{}, fmt.Errorf("build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Transcript{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return Transcript{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return Transcript{}, fmt.Errorf("call transcription api: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Transcript{}, fmt.Errorf("transcription api returned %d", res.StatusCode)
	}

	var parsed struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Transcript{}, fmt.Errorf("decode transcription: %w", err)
	}

	return Transcript{Text: parsed.Text, Language: parsed.Language, Duration: parsed.Duration}, nil
}

// decodeAudio accepts plain base64 or a data URL payload.
func decodeAudio(audioBase64 string) ([]byte, error) {
	if idx := strings.Index(audioBase64, ","); idx >= 0 && strings.HasPrefix(audioBase64, "data:") {
		audioBase64 = audioBase64[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return raw, nil
}
