package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/cbcportal/core"
)

func TestCheckAnswer(t *testing.T) {
	lesson := Lesson{
		Kind:          LessonQuestion,
		QuestionKind:  QuestionInput,
		CorrectAnswer: "42",
		Explanation:   "six times seven",
	}
	mcq := Lesson{
		Kind:          LessonQuestion,
		QuestionKind:  QuestionMCQ,
		Options:       `["Paris","Nairobi","Cairo"]`,
		CorrectAnswer: "Nairobi",
	}

	tests := []struct {
		name        string
		lesson      Lesson
		input       string
		wantCorrect bool
	}{
		{name: "exact match", lesson: lesson, input: "42", wantCorrect: true},
		{name: "surrounding whitespace ignored", lesson: lesson, input: "  42\t", wantCorrect: true},
		{name: "wrong answer", lesson: lesson, input: "41"},
		{name: "empty input", lesson: lesson, input: ""},
		{name: "case insensitive", lesson: mcq, input: "nairobi", wantCorrect: true},
		{name: "inner whitespace not ignored", lesson: mcq, input: "nai robi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := CheckAnswer(tt.lesson, tt.input)
			assert.Equal(t, tt.wantCorrect, fb.Correct)
			if tt.wantCorrect {
				assert.Equal(t, correctMessage, fb.Message)
			} else {
				assert.Equal(t, incorrectMessage, fb.Message)
			}
			assert.Equal(t, tt.lesson.Explanation, fb.Explanation)
		})
	}
}

func TestNewLessonValidate(t *testing.T) {
	tests := []struct {
		name    string
		lesson  NewLesson
		wantErr bool
	}{
		{
			name:   "explanation",
			lesson: NewLesson{TopicID: "t1", Kind: LessonExplanation, Content: "Fractions represent parts of a whole."},
		},
		{
			name:    "unknown kind",
			lesson:  NewLesson{TopicID: "t1", Kind: "quiz", Content: "?"},
			wantErr: true,
		},
		{
			name:    "question without question fields",
			lesson:  NewLesson{TopicID: "t1", Kind: LessonQuestion, Content: "What is 6 x 7?"},
			wantErr: true,
		},
		{
			name: "input question",
			lesson: NewLesson{
				TopicID: "t1", Kind: LessonQuestion, Content: "What is 6 x 7?",
				QuestionKind: QuestionInput, CorrectAnswer: "42",
			},
		},
		{
			name: "mcq with malformed options",
			lesson: NewLesson{
				TopicID: "t1", Kind: LessonQuestion, Content: "Capital of Kenya?",
				QuestionKind: QuestionMCQ, Options: "Nairobi, Cairo", CorrectAnswer: "Nairobi",
			},
			wantErr: true,
		},
		{
			name: "mcq with one option",
			lesson: NewLesson{
				TopicID: "t1", Kind: LessonQuestion, Content: "Capital of Kenya?",
				QuestionKind: QuestionMCQ, Options: `["Nairobi"]`, CorrectAnswer: "Nairobi",
			},
			wantErr: true,
		},
		{
			name: "valid mcq",
			lesson: NewLesson{
				TopicID: "t1", Kind: LessonQuestion, Content: "Capital of Kenya?",
				QuestionKind: QuestionMCQ, Options: `["Nairobi","Cairo"]`, CorrectAnswer: "Nairobi",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lesson.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLessonValidateClearsForeignFields(t *testing.T) {
	nl := NewLesson{
		TopicID: "t1", Kind: LessonNote, Content: "Remember to revise.",
		QuestionKind: QuestionMCQ, Options: `["a","b"]`, CorrectAnswer: "a", DueDate: "2026-09-30",
	}
	require.NoError(t, nl.Validate())
	assert.Empty(t, nl.QuestionKind)
	assert.Empty(t, nl.Options)
	assert.Empty(t, nl.CorrectAnswer)
	assert.Empty(t, nl.DueDate)
}

// repoMock implements Repository for service tests.
type repoMock struct {
	Repository

	subjects   map[string]Subject
	topicCount int
	created    *Topic
}

func (m *repoMock) GetSubjectByID(ctx context.Context, id string) (Subject, error) {
	if sub, ok := m.subjects[id]; ok {
		return sub, nil
	}
	return Subject{}, ErrSubjectNotFound
}

func (m *repoMock) CountGradeTopics(ctx context.Context, grade int) (int, error) {
	return m.topicCount, nil
}

func (m *repoMock) CreateTopic(ctx context.Context, top Topic) (Topic, error) {
	m.created = &top
	return top, nil
}

func (m *repoMock) FilterTopics(ctx context.Context, filter TopicQueryFilter, ordering ...core.DBOrdering) ([]Topic, error) {
	return nil, nil
}

func TestServiceCreateTopic(t *testing.T) {
	ctx := context.Background()
	repo := &repoMock{
		subjects:   map[string]Subject{"s1": {ID: "s1", Name: "Mathematics"}},
		topicCount: 3,
	}
	svc := NewService(repo)

	t.Run("order number defaulted", func(t *testing.T) {
		top, err := svc.CreateTopic(ctx, NewTopic{SubjectID: "s1", Grade: 4, Title: "Fractions"})
		require.NoError(t, err)
		assert.Equal(t, 4, top.OrderNumber)
		assert.NotEmpty(t, top.ID)
	})

	t.Run("explicit order number kept", func(t *testing.T) {
		top, err := svc.CreateTopic(ctx, NewTopic{SubjectID: "s1", Grade: 4, Title: "Decimals", OrderNumber: 9})
		require.NoError(t, err)
		assert.Equal(t, 9, top.OrderNumber)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := svc.CreateTopic(ctx, NewTopic{SubjectID: "nope", Grade: 4, Title: "Fractions"})
		assert.Equal(t, ErrSubjectNotFound, err)
	})
}
