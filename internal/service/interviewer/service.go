// Package interviewer generates interview questions and final evaluations
// with an LLM chain, falling back to deterministic prompts whenever the
// model is unavailable so the question flow never hard-fails.
package interviewer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	interview "github.com/viva-ai/viva/internal/model/interview"
)

const systemPrompt = `You are an expert technical interviewer evaluating a live project presentation. ` +
	`You ask one question at a time. Questions must be specific, probe implementation detail, and ` +
	`reference what is visible on the presenter's screen when screen content is provided. ` +
	`Reply with the question text only, no preamble and no numbering.`

// Service wraps the chat model behind a compiled prompt chain.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the question-generation chain. A nil chat model
// yields a service that only serves fallback questions.
func NewService(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	if chatModel == nil {
		return &Service{}, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile interviewer chain: %w", err)
	}

	return &Service{chatModel: chatModel, chain: runnable}, nil
}

// Enabled reports whether a chat model backs this service.
func (s *Service) Enabled() bool { return s.chain != nil }

// OpeningQuestion produces the interview's first question. It never fails;
// model errors degrade to the fallback opener.
func (s *Service) OpeningQuestion(ctx context.Context, presenterName, subject string) string {
	if !s.Enabled() {
		return fallbackOpening(presenterName, subject)
	}

	query := "Generate an opening question that invites the presenter to introduce the project: " +
		"what it does, what problem it solves, and why they built it."
	if subject != "" {
		query += fmt.Sprintf(" The project is called %q.", subject)
	}
	if presenterName != "" {
		query += fmt.Sprintf(" Address the presenter as %s.", presenterName)
	}

	out, err := s.chain.Invoke(ctx, map[string]any{
		"system":  systemPrompt,
		"history": []*schema.Message{},
		"query":   query,
	})
	if err != nil {
		log.Printf("[interviewer] opening question generation failed: %v", err)
		return fallbackOpening(presenterName, subject)
	}
	return cleanQuestion(out.Content, fallbackOpening(presenterName, subject))
}

// FollowupQuestion produces the next question from the conversation so far,
// the latest answer and the screen text visible at submission time.
func (s *Service) FollowupQuestion(ctx context.Context, turns []interview.Turn, response, screenContext string, questionNumber int) string {
	if !s.Enabled() {
		return fallbackFollowup(questionNumber)
	}

	var query strings.Builder
	query.WriteString("LATEST PRESENTER RESPONSE:\n")
	query.WriteString(response)
	if screenContext != "" {
		query.WriteString("\n\nCURRENT SCREEN CONTENT:\n")
		query.WriteString(screenContext)
	}
	query.WriteString("\n\nAsk the next follow-up question. Probe deeper into technical details " +
		"the presenter mentioned and reference specific on-screen elements where possible.")

	out, err := s.chain.Invoke(ctx, map[string]any{
		"system":  systemPrompt,
		"history": historyMessages(turns),
		"query":   query.String(),
	})
	if err != nil {
		log.Printf("[interviewer] followup generation failed: %v", err)
		return fallbackFollowup(questionNumber)
	}
	return cleanQuestion(out.Content, fallbackFollowup(questionNumber))
}

// historyMessages maps the turn log onto chat roles: questions were spoken
// by the model, responses by the presenter.
func historyMessages(turns []interview.Turn) []*schema.Message {
	const historyLimit = 12

	startIdx := 0
	if len(turns) > historyLimit {
		startIdx = len(turns) - historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Kind {
		case interview.TurnQuestion:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		case interview.TurnResponse:
			history = append(history, schema.UserMessage(turn.Text))
		}
	}
	return history
}

func cleanQuestion(raw, fallback string) string {
	q := strings.TrimSpace(raw)
	q = strings.Trim(q, "\"")
	if q == "" {
		return fallback
	}
	return q
}

func fallbackOpening(presenterName, subject string) string {
	name := strings.TrimSpace(presenterName)
	project := strings.TrimSpace(subject)
	switch {
	case name != "" && project != "":
		return fmt.Sprintf("Hi %s! Could you start by walking me through %s: what it does and why you built it?", name, project)
	case project != "":
		return fmt.Sprintf("Could you start by walking me through %s: what it does and why you built it?", project)
	default:
		return "Could you please tell me about your project: what it does and why you built it?"
	}
}

var fallbackFollowups = []string{
	"Can you explain the overall architecture of your project?",
	"What was the most difficult technical problem you ran into, and how did you solve it?",
	"Walk me through what happens end to end when a user performs the main action.",
	"How did you test this, and how confident are you in its correctness?",
	"If you had another month, what part of the implementation would you redesign?",
	"Can you explain more about that?",
}

func fallbackFollowup(questionNumber int) string {
	if questionNumber < 1 {
		questionNumber = 1
	}
	return fallbackFollowups[(questionNumber-1)%len(fallbackFollowups)]
}
