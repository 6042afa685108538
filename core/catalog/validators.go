package catalog

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/mathmaster/cbcportal/core"
)

var (
	lessonKindTag  = "lessonkind"
	lessonKindText = "invalid lesson type"

	questionKindTag  = "questionkind"
	questionKindText = "invalid question type"

	questionFieldsTag  = "questionfields"
	questionFieldsText = "question lessons require a question type and a correct answer"

	mcqOptionsTag  = "mcqoptions"
	mcqOptionsText = "options must be a JSON array of at least 2 choices"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(lessonKindTag, lessonKindValidation)
	core.RegisterCustomTranslation(lessonKindTag, lessonKindText)

	_ = core.Validate.RegisterValidation(questionKindTag, questionKindValidation)
	core.RegisterCustomTranslation(questionKindTag, questionKindText)

	core.Validate.RegisterStructValidation(lessonStructValidation, NewLesson{})
	core.RegisterCustomTranslation(questionFieldsTag, questionFieldsText)
	core.RegisterCustomTranslation(mcqOptionsTag, mcqOptionsText)
}

// Custom Validators

func lessonKindValidation(fl validator.FieldLevel) bool {
	return core.ContainsString(AllLessonKinds, fl.Field().String())
}

func questionKindValidation(fl validator.FieldLevel) bool {
	return core.ContainsString(AllQuestionKinds, fl.Field().String())
}

// lessonStructValidation checks the question-specific fields of a NewLesson:
// a question needs a question type and a correct answer; an MCQ additionally
// needs its options to decode to at least 2 choices.
func lessonStructValidation(sl validator.StructLevel) {
	nl, ok := sl.Current().Interface().(NewLesson)
	if !ok || nl.Kind != LessonQuestion {
		return
	}

	if nl.QuestionKind == "" || nl.CorrectAnswer == "" {
		sl.ReportError(nl.QuestionKind, "question_type", "QuestionKind", questionFieldsTag, "")
		return
	}

	if nl.QuestionKind == QuestionMCQ {
		var opts []string
		if err := json.Unmarshal([]byte(nl.Options), &opts); err != nil || len(opts) < 2 {
			sl.ReportError(nl.Options, "options", "Options", mcqOptionsTag, "")
		}
	}
}
