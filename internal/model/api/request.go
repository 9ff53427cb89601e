// Package api defines the wire contract between the presenter-side
// orchestrator and the dialogue service. Field names follow the service's
// snake_case JSON convention.
package api

// StartRequest opens a new interview session. SessionID may be empty, in
// which case the service mints one.
type StartRequest struct {
	SessionID     string `json:"session_id,omitempty"`
	PresenterName string `json:"presenter_name,omitempty"`
	Subject       string `json:"subject,omitempty"`
}

// AnalyzeScreenRequest submits one captured frame for text recognition.
type AnalyzeScreenRequest struct {
	SessionID   string `json:"session_id"`
	ImageBase64 string `json:"image_base64"`
	Timestamp   int64  `json:"timestamp"`
}

// TranscribeRequest submits an encoded voice recording for transcription.
type TranscribeRequest struct {
	SessionID   string `json:"session_id"`
	AudioBase64 string `json:"audio_base64"`
	Format      string `json:"format"`
}

// RespondRequest submits the presenter's answer together with the screen
// context visible at submission time.
type RespondRequest struct {
	SessionID     string `json:"session_id"`
	ResponseText  string `json:"response_text"`
	ScreenContext string `json:"screen_context,omitempty"`
}
