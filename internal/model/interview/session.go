package interview

import "time"

// Status describes the lifecycle of a server-side interview session.
type Status string

const (
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusEvaluated Status = "evaluated"
)

// Session captures one interview held in memory for its lifetime only.
type Session struct {
	ID            string    `json:"id"`
	PresenterName string    `json:"presenterName"`
	Subject       string    `json:"subject"`
	Status        Status    `json:"status"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
