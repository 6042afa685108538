package tutor

// Chat roles
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one utterance of a tutoring conversation.
type Turn struct {
	Role    string `json:"role" validate:"required,oneof=user model"`
	Content string `json:"content" validate:"required"`
}

// TutorContext situates the conversation in the learner's current position in
// the curriculum.
type TutorContext struct {
	Grade         int    `json:"grade"`
	Topic         string `json:"topic"`
	LessonContent string `json:"lesson_content,omitempty"`
}

// GeneratedLesson is one lesson of a bulk-generated content pack.
type GeneratedLesson struct {
	Kind          string   `json:"type"`
	Content       string   `json:"content"`
	QuestionKind  string   `json:"question_type,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// GeneratedPack is the schema-constrained result of a bulk generation request.
type GeneratedPack struct {
	TopicTitle string            `json:"topicTitle"`
	Lessons    []GeneratedLesson `json:"lessons"`
}
