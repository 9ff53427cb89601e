package interviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	interview "github.com/viva-ai/viva/internal/model/interview"
)

const evaluationPrompt = `You are an expert technical evaluator assessing a project presentation interview.

EVALUATION CRITERIA:
1. technical_depth (30%%): understanding of concepts, architecture, algorithms
2. clarity (25%%): ability to communicate ideas clearly and logically
3. originality (20%%): innovation, creativity, unique approaches
4. implementation_understanding (25%%): knowledge of how the code works and why

INTERVIEW TRANSCRIPT:
%s

PROJECT CONTEXT:
- Screen captures analyzed: %d

Respond with a single JSON object and nothing else:
{
  "overall_score": 0-100,
  "criteria_scores": {
    "technical_depth": {"score": 0-100, "feedback": "..."},
    "clarity": {"score": 0-100, "feedback": "..."},
    "originality": {"score": 0-100, "feedback": "..."},
    "implementation_understanding": {"score": 0-100, "feedback": "..."}
  },
  "summary": "2-3 sentence assessment",
  "recommendations": ["...", "...", "..."]
}`

// criterionScore is one rubric entry of the evaluation verdict.
type criterionScore struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

type evaluation struct {
	OverallScore    int                       `json:"overall_score"`
	CriteriaScores  map[string]criterionScore `json:"criteria_scores"`
	Summary         string                    `json:"summary"`
	Recommendations []string                  `json:"recommendations"`
	Grade           string                    `json:"grade"`
	InterviewLength int                       `json:"interview_length"`
	Timestamp       string                    `json:"timestamp"`
}

// Evaluate scores the finished interview. Model output is validated as
// JSON; anything unparseable degrades to the heuristic rubric, so a verdict
// is always produced.
func (s *Service) Evaluate(ctx context.Context, turns []interview.Turn, screenCaptures int) json.RawMessage {
	if !s.Enabled() {
		return heuristicEvaluation(turns)
	}

	query := fmt.Sprintf(evaluationPrompt, formatTranscript(turns), screenCaptures)
	out, err := s.chain.Invoke(ctx, map[string]any{
		"system":  "You are a strict but fair technical evaluator. Output valid JSON only.",
		"history": []*schema.Message(nil),
		"query":   query,
	})
	if err != nil {
		log.Printf("[interviewer] evaluation generation failed: %v", err)
		return heuristicEvaluation(turns)
	}

	raw := stripCodeFence(out.Content)
	var parsed evaluation
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		log.Printf("[interviewer] evaluation output not parseable, using heuristic: %v", err)
		return heuristicEvaluation(turns)
	}
	parsed.Grade = gradeFor(parsed.OverallScore)
	parsed.InterviewLength = len(turns)
	parsed.Timestamp = time.Now().UTC().Format(time.RFC3339)

	enc, err := json.Marshal(parsed)
	if err != nil {
		return heuristicEvaluation(turns)
	}
	return enc
}

// heuristicEvaluation produces a coarse verdict from answer volume alone,
// used when no model is configured or its output is unusable.
func heuristicEvaluation(turns []interview.Turn) json.RawMessage {
	responses := 0
	totalWords := 0
	for _, turn := range turns {
		if turn.Kind == interview.TurnResponse {
			responses++
			totalWords += len(strings.Fields(turn.Text))
		}
	}

	score := 40
	if responses > 0 {
		avgWords := totalWords / responses
		switch {
		case avgWords >= 60:
			score = 80
		case avgWords >= 30:
			score = 70
		case avgWords >= 12:
			score = 60
		default:
			score = 50
		}
	}

	per := criterionScore{Score: score, Feedback: "Automated estimate; no model-backed review was available."}
	result := evaluation{
		OverallScore: score,
		CriteriaScores: map[string]criterionScore{
			"technical_depth":              per,
			"clarity":                      per,
			"originality":                  per,
			"implementation_understanding": per,
		},
		Summary: fmt.Sprintf("The presenter answered %d questions. This evaluation was produced "+
			"without model assistance and reflects answer volume only.", responses),
		Recommendations: []string{
			"Review the transcript manually for technical depth.",
			"Re-run the evaluation with a configured chat model for detailed feedback.",
		},
		Grade:           gradeFor(score),
		InterviewLength: len(turns),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}

	enc, _ := json.Marshal(result)
	return enc
}

func formatTranscript(turns []interview.Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		switch turn.Kind {
		case interview.TurnQuestion:
			fmt.Fprintf(&b, "Q%d: %s\n", turn.Index, turn.Text)
		case interview.TurnResponse:
			fmt.Fprintf(&b, "A: %s\n", turn.Text)
		}
	}
	return b.String()
}

func stripCodeFence(raw string) string {
	out := strings.TrimSpace(raw)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```json")
		out = strings.TrimPrefix(out, "```")
		out = strings.TrimSuffix(out, "```")
	}
	return strings.TrimSpace(out)
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
