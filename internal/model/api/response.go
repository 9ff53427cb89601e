package api

import "encoding/json"

// StartResponse carries the opening question of a fresh session.
type StartResponse struct {
	Success        bool   `json:"success"`
	SessionID      string `json:"session_id"`
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
	Error          string `json:"error,omitempty"`
}

// AnalyzeScreenResponse returns the text recognized on the submitted frame.
type AnalyzeScreenResponse struct {
	Success    bool    `json:"success"`
	SessionID  string  `json:"session_id"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
	Timestamp  int64   `json:"timestamp,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// TranscribeResponse returns the transcript of a voice recording.
type TranscribeResponse struct {
	Success  bool    `json:"success"`
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// RespondResponse either carries the next question or signals the end of
// the interview via ShouldEnd.
type RespondResponse struct {
	Success        bool   `json:"success"`
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
	ShouldEnd      bool   `json:"should_end"`
	Error          string `json:"error,omitempty"`
}

// EvaluateResponse carries the final rubric verdict. Evaluation stays raw
// JSON so the orchestrator can pass it through untouched.
type EvaluateResponse struct {
	Success    bool            `json:"success"`
	SessionID  string          `json:"session_id"`
	Evaluation json.RawMessage `json:"evaluation"`
	Error      string          `json:"error,omitempty"`
}

// StatusResponse reports the state of a running session.
type StatusResponse struct {
	Success       bool   `json:"success"`
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	QuestionCount int    `json:"question_count"`
	TurnCount     int    `json:"turn_count"`
	Error         string `json:"error,omitempty"`
}
