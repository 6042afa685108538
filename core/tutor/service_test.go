package tutor

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientMock struct {
	reply    string
	jsonText string
	err      error

	systemPrompt string
	turns        []Turn
}

func (m *clientMock) Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	m.systemPrompt = systemPrompt
	m.turns = turns
	return m.reply, m.err
}

func (m *clientMock) CompleteJSON(ctx context.Context, systemPrompt, prompt string) (string, error) {
	m.systemPrompt = systemPrompt
	return m.jsonText, m.err
}

type loggerMock struct{}

func (loggerMock) Debug(msg string, args ...interface{}) {}
func (loggerMock) Info(msg string, args ...interface{})  {}
func (loggerMock) Warn(msg string, args ...interface{})  {}
func (loggerMock) Error(msg string, args ...interface{}) {}
func (loggerMock) Fatal(msg string, args ...interface{}) {}

func TestChat(t *testing.T) {
	ctx := context.Background()
	history := []Turn{{Role: RoleUser, Content: "How do I add fractions?"}}
	tctx := TutorContext{Grade: 4, Topic: "Fractions", LessonContent: "Adding fractions with like denominators."}

	t.Run("ok", func(t *testing.T) {
		client := &clientMock{reply: "Let's take it step by step."}
		svc := NewService(client, loggerMock{})

		reply := svc.Chat(ctx, history, tctx)
		assert.Equal(t, "Let's take it step by step.", reply)
		assert.Contains(t, client.systemPrompt, "Grade 4")
		assert.Contains(t, client.systemPrompt, "Fractions")
		assert.Contains(t, client.systemPrompt, "Adding fractions with like denominators.")
		assert.Equal(t, history, client.turns)
	})

	t.Run("no lesson context", func(t *testing.T) {
		client := &clientMock{reply: "Sure!"}
		svc := NewService(client, loggerMock{})

		svc.Chat(ctx, history, TutorContext{Grade: 7, Topic: "Algebra"})
		assert.Contains(t, client.systemPrompt, "General math overview")
	})

	t.Run("inference failure degrades to fallback", func(t *testing.T) {
		client := &clientMock{err: errors.New("boom")}
		svc := NewService(client, loggerMock{})

		assert.Equal(t, FallbackResponse, svc.Chat(ctx, history, tctx))
	})

	t.Run("blank reply degrades to fallback", func(t *testing.T) {
		client := &clientMock{reply: "  \n"}
		svc := NewService(client, loggerMock{})

		assert.Equal(t, FallbackResponse, svc.Chat(ctx, history, tctx))
	})
}

func TestGeneratePack(t *testing.T) {
	ctx := context.Background()
	packJSON := `{
		"topicTitle": "Fractions",
		"lessons": [
			{"type": "explanation", "content": "A fraction is part of a whole."},
			{"type": "question", "content": "What is 1/2 + 1/2?", "question_type": "input", "correct_answer": "1"}
		]
	}`

	t.Run("ok", func(t *testing.T) {
		svc := NewService(&clientMock{jsonText: packJSON}, loggerMock{})

		pack, err := svc.GeneratePack(ctx, "Introduce fractions", 4)
		require.NoError(t, err)
		assert.Equal(t, "Fractions", pack.TopicTitle)
		require.Len(t, pack.Lessons, 2)
		assert.Equal(t, "input", pack.Lessons[1].QuestionKind)
	})

	t.Run("fenced output", func(t *testing.T) {
		svc := NewService(&clientMock{jsonText: "```json\n" + packJSON + "\n```"}, loggerMock{})

		pack, err := svc.GeneratePack(ctx, "Introduce fractions", 4)
		require.NoError(t, err)
		assert.Equal(t, "Fractions", pack.TopicTitle)
	})

	t.Run("malformed response", func(t *testing.T) {
		svc := NewService(&clientMock{jsonText: "Sorry, I cannot do that."}, loggerMock{})

		pack, err := svc.GeneratePack(ctx, "Introduce fractions", 4)
		assert.Equal(t, ErrMalformedResponse, errors.Cause(err))
		assert.Empty(t, pack.TopicTitle)
		assert.Empty(t, pack.Lessons)
	})

	t.Run("empty pack", func(t *testing.T) {
		svc := NewService(&clientMock{jsonText: `{"topicTitle": "", "lessons": []}`}, loggerMock{})

		_, err := svc.GeneratePack(ctx, "Introduce fractions", 4)
		assert.Equal(t, ErrMalformedResponse, errors.Cause(err))
	})

	t.Run("inference failure propagates", func(t *testing.T) {
		boom := errors.New("boom")
		svc := NewService(&clientMock{err: boom}, loggerMock{})

		_, err := svc.GeneratePack(ctx, "Introduce fractions", 4)
		assert.Equal(t, boom, errors.Cause(err))
	})
}
