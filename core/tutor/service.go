package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core"
)

// FallbackResponse is returned by Chat whenever inference fails; the chat
// surface never sees a raw error.
const FallbackResponse = "I'm sorry, I'm having a little trouble thinking right now. Can we try that again?"

var ErrMalformedResponse = errors.New("malformed AI response")

type (
	// Client performs completions against an inference backend.
	Client interface {
		// Complete requests a free-text completion for a conversation.
		Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
		// CompleteJSON requests a completion constrained to JSON output and
		// returns the raw JSON text.
		CompleteJSON(ctx context.Context, systemPrompt, prompt string) (string, error)
	}

	Service interface {
		Chat(ctx context.Context, history []Turn, tctx TutorContext) string
		GeneratePack(ctx context.Context, prompt string, grade int) (GeneratedPack, error)
	}

	service struct {
		client Client
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(client Client, logger core.Logger) Service {
	return &service{client: client, logger: logger}
}

// Chat requests a tutoring reply for the conversation so far. Any inference
// failure degrades to FallbackResponse.
func (svc *service) Chat(ctx context.Context, history []Turn, tctx TutorContext) string {
	reply, err := svc.client.Complete(ctx, chatSystemPrompt(tctx), history)
	if err != nil {
		svc.logger.Warn("tutor: inference failed", err)
		return FallbackResponse
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackResponse
	}
	return reply
}

// GeneratePack requests a schema-constrained topic + lesson set for bulk
// content authoring. A response that does not decode as the expected JSON
// shape yields ErrMalformedResponse; partial data is never returned.
func (svc *service) GeneratePack(ctx context.Context, prompt string, grade int) (GeneratedPack, error) {
	raw, err := svc.client.CompleteJSON(ctx, generateSystemPrompt(grade), prompt)
	if err != nil {
		return GeneratedPack{}, errors.Wrap(err, "requesting content pack")
	}

	var pack GeneratedPack
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &pack); err != nil {
		return GeneratedPack{}, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	if pack.TopicTitle == "" || len(pack.Lessons) == 0 {
		return GeneratedPack{}, errors.Wrap(ErrMalformedResponse, "empty topic or lessons")
	}
	return pack, nil
}

func chatSystemPrompt(tctx TutorContext) string {
	lessonContext := tctx.LessonContent
	if lessonContext == "" {
		lessonContext = "General math overview"
	}
	return fmt.Sprintf(`You are "MathMaster AI", an expert, friendly math tutor.
The student is in Grade %d.
Currently studying: %s.
Current lesson context: %s.

Guidelines:
1. Be encouraging and patient.
2. Don't just give the answer; guide the student through steps.
3. Use simple, clear language appropriate for a Grade %d student.
4. If they ask for an explanation, use relatable analogies.
5. Format your output in clean Markdown.`,
		tctx.Grade, tctx.Topic, lessonContext, tctx.Grade)
}

func generateSystemPrompt(grade int) string {
	return fmt.Sprintf(`You are a curriculum author generating math content for Grade %d students.
Respond with a single JSON object and nothing else, matching exactly:
{
  "topicTitle": string,
  "lessons": [
    {
      "type": "explanation" | "question" | "assignment" | "note",
      "content": string,
      "question_type": "input" | "mcq" (questions only),
      "options": [string, ...] (mcq only),
      "correct_answer": string (questions only),
      "explanation": string (optional)
    }
  ]
}`, grade)
}

// stripCodeFence removes a surrounding markdown code fence some models wrap
// around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
