package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mathmaster/cbcportal/core"
)

// Grades covered by the curriculum (CBC Grade 1 - 9).
const (
	GradeMin = 1
	GradeMax = 9
)

// Lesson kinds
const (
	LessonExplanation = "explanation"
	LessonQuestion    = "question"
	LessonAssignment  = "assignment"
	LessonNote        = "note"
)

// Question kinds
const (
	QuestionInput = "input"
	QuestionMCQ   = "mcq"
)

var (
	AllLessonKinds   = []string{LessonExplanation, LessonQuestion, LessonAssignment, LessonNote}
	AllQuestionKinds = []string{QuestionInput, QuestionMCQ}
)

type Subject struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code,omitempty" db:"code"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type Topic struct {
	ID          string    `json:"id" db:"id"`
	SubjectID   string    `json:"subject_id" db:"subject_id"`
	Grade       int       `json:"grade" db:"grade"`
	Title       string    `json:"title" db:"title"`
	OrderNumber int       `json:"order_number" db:"order_number"`
	CreatedBy   string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}

type Lesson struct {
	ID            string    `json:"id" db:"id"`
	TopicID       string    `json:"topic_id" db:"topic_id"`
	Kind          string    `json:"type" db:"kind"`
	Content       string    `json:"content" db:"content"`
	QuestionKind  string    `json:"question_type,omitempty" db:"question_kind"`
	Options       string    `json:"options,omitempty" db:"options"` // JSON-encoded string array (mcq only)
	CorrectAnswer string    `json:"correct_answer,omitempty" db:"correct_answer"`
	Explanation   string    `json:"explanation,omitempty" db:"explanation"`
	DueDate       string    `json:"due_date,omitempty" db:"due_date"` // assignment only
	CreatedBy     string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC
}

func (l *Lesson) IsQuestion() bool { return l.Kind == LessonQuestion }

// OptionList decodes the serialized MCQ choices.
func (l *Lesson) OptionList() ([]string, error) {
	if l.Options == "" {
		return nil, nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(l.Options), &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Feedback is the outcome of checking a learner's answer against a question
// lesson.
type Feedback struct {
	Correct     bool   `json:"correct"`
	Message     string `json:"message"`
	Explanation string `json:"explanation,omitempty"`
}

const (
	correctMessage   = "✅ Correct!"
	incorrectMessage = "❌ Incorrect. Try again!"
)

// CheckAnswer grades a learner's raw input against the lesson's expected
// answer. Comparison ignores leading/trailing whitespace and case.
func CheckAnswer(lesson Lesson, input string) Feedback {
	correct := core.CleanString(input, true /* lower */) == strings.ToLower(lesson.CorrectAnswer)
	fb := Feedback{
		Correct:     correct,
		Message:     incorrectMessage,
		Explanation: lesson.Explanation,
	}
	if correct {
		fb.Message = correctMessage
	}
	return fb
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"omitempty,max=16"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	return core.Validate.Struct(ns)
}

// NewTopic contains information needed to create a new Topic.
// An omitted OrderNumber is defaulted to the current topic count of the
// grade plus one.
type NewTopic struct {
	SubjectID   string `json:"subject_id" validate:"required"`
	Grade       int    `json:"grade" validate:"required,min=1,max=9"`
	Title       string `json:"title" validate:"required"`
	OrderNumber int    `json:"order_number" validate:"omitempty,min=1"`
	CreatedBy   string `json:"-"`
}

func (nt *NewTopic) Validate() error {
	nt.Title = core.CleanString(nt.Title)
	return core.Validate.Struct(nt)
}

// NewLesson contains information needed to create a new Lesson.
type NewLesson struct {
	TopicID       string `json:"topic_id" validate:"required"`
	Kind          string `json:"type" validate:"required,lessonkind"`
	Content       string `json:"content" validate:"required"`
	QuestionKind  string `json:"question_type" validate:"omitempty,questionkind"`
	Options       string `json:"options"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	DueDate       string `json:"due_date"`
	CreatedBy     string `json:"-"`
}

func (nl *NewLesson) Validate() error {
	nl.Content = core.CleanString(nl.Content)
	if nl.Kind != LessonQuestion {
		// question fields only make sense on questions
		nl.QuestionKind = ""
		nl.Options = ""
		nl.CorrectAnswer = ""
	}
	if nl.Kind != LessonAssignment {
		nl.DueDate = ""
	}
	return core.Validate.Struct(nl)
}
