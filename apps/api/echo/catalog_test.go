package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/user"
)

func (env *testEnv) createSubject(t *testing.T, name string) catalog.Subject {
	t.Helper()
	sub, err := env.catalogSvc.CreateSubject(context.Background(), catalog.NewSubject{Name: name})
	require.NoError(t, err)
	return sub
}

func (env *testEnv) createTopic(t *testing.T, subjectID string, grade int, title, createdBy string) catalog.Topic {
	t.Helper()
	topic, err := env.catalogSvc.CreateTopic(context.Background(), catalog.NewTopic{
		SubjectID: subjectID,
		Grade:     grade,
		Title:     title,
		CreatedBy: createdBy,
	})
	require.NoError(t, err)
	return topic
}

func Test_catalogApi_subjects(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "amina", user.RoleStudent, true)
	admin := env.createUser(t, "wanjiku", user.RoleAdmin, true)

	// creation is admin only
	body := map[string]string{"name": "Mathematics", "code": "MATH"}
	rec := env.do(http.MethodPost, "/v1/subjects", env.token(t, student), body)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/v1/subjects", env.token(t, admin), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sub catalog.Subject
	decodeBody(t, rec, &sub)
	assert.Equal(t, "Mathematics", sub.Name)
	assert.Equal(t, "MATH", sub.Code)

	// anyone signed in can browse
	rec = env.do(http.MethodGet, "/v1/subjects", env.token(t, student), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var subjects []catalog.Subject
	decodeBody(t, rec, &subjects)
	require.Len(t, subjects, 1)
	assert.Equal(t, sub.ID, subjects[0].ID)
}

func Test_catalogApi_createTopic(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "otieno", user.RoleTeacher, true)
	sub := env.createSubject(t, "Mathematics")
	token := env.token(t, teacher)

	rec := env.do(http.MethodPost, "/v1/topics", token, map[string]interface{}{
		"subject_id": sub.ID,
		"grade":      4,
		"title":      "Fractions",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var topic catalog.Topic
	decodeBody(t, rec, &topic)
	assert.Equal(t, "Fractions", topic.Title)
	assert.Equal(t, 1, topic.OrderNumber) // defaulted
	assert.Equal(t, teacher.ID, topic.CreatedBy)

	// second topic of the grade gets the next slot
	rec = env.do(http.MethodPost, "/v1/topics", token, map[string]interface{}{
		"subject_id": sub.ID,
		"grade":      4,
		"title":      "Decimals",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeBody(t, rec, &topic)
	assert.Equal(t, 2, topic.OrderNumber)
}

func Test_catalogApi_createTopic_unknownSubject(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "otieno", user.RoleTeacher, true)

	rec := env.do(http.MethodPost, "/v1/topics", env.token(t, teacher), map[string]interface{}{
		"subject_id": "nope",
		"grade":      4,
		"title":      "Fractions",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var fldErrs map[string]string
	decodeBody(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "subject_id")
}

func Test_catalogApi_createTopic_studentForbidden(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "amina", user.RoleStudent, true)
	sub := env.createSubject(t, "Mathematics")

	rec := env.do(http.MethodPost, "/v1/topics", env.token(t, student), map[string]interface{}{
		"subject_id": sub.ID,
		"grade":      4,
		"title":      "Fractions",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}

func Test_catalogApi_queryTopics(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "amina", user.RoleStudent, true)
	teacher := env.createUser(t, "otieno", user.RoleTeacher, true)
	sub := env.createSubject(t, "Mathematics")
	env.createTopic(t, sub.ID, 4, "Fractions", teacher.ID)
	env.createTopic(t, sub.ID, 5, "Algebra", teacher.ID)
	env.createTopic(t, sub.ID, 4, "Decimals", "")

	token := env.token(t, student)

	rec := env.do(http.MethodGet, "/v1/topics?grade=4&subject_id="+sub.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var topics []catalog.Topic
	decodeBody(t, rec, &topics)
	require.Len(t, topics, 2)
	// ordered by their slot in the grade
	assert.Equal(t, "Fractions", topics[0].Title)
	assert.Equal(t, "Decimals", topics[1].Title)

	// a teacher can list just their own content
	rec = env.do(http.MethodGet, "/v1/topics?mine=true", env.token(t, teacher), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &topics)
	assert.Len(t, topics, 2)
}

func Test_catalogApi_destroyTopic_ownership(t *testing.T) {
	env := setup(t)
	owner := env.createUser(t, "otieno", user.RoleTeacher, true)
	other := env.createUser(t, "juma", user.RoleTeacher, true)
	admin := env.createUser(t, "wanjiku", user.RoleAdmin, true)
	sub := env.createSubject(t, "Mathematics")

	topic := env.createTopic(t, sub.ID, 4, "Fractions", owner.ID)

	rec := env.do(http.MethodDelete, "/v1/topics/"+topic.ID, env.token(t, other), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = env.do(http.MethodDelete, "/v1/topics/"+topic.ID, env.token(t, owner), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// admin can delete anyone's
	topic = env.createTopic(t, sub.ID, 4, "Decimals", owner.ID)
	rec = env.do(http.MethodDelete, "/v1/topics/"+topic.ID, env.token(t, admin), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func Test_catalogApi_lessons(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "otieno", user.RoleTeacher, true)
	sub := env.createSubject(t, "Mathematics")
	topic := env.createTopic(t, sub.ID, 4, "Fractions", teacher.ID)
	token := env.token(t, teacher)

	rec := env.do(http.MethodPost, "/v1/topics/"+topic.ID+"/lessons", token, map[string]interface{}{
		"type":    catalog.LessonExplanation,
		"content": "A fraction names part of a whole.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/v1/topics/"+topic.ID+"/lessons", token, map[string]interface{}{
		"type":           catalog.LessonQuestion,
		"content":        "What is 1/2 + 1/4?",
		"question_type":  catalog.QuestionMCQ,
		"options":        `["1/2","3/4","2/6"]`,
		"correct_answer": "3/4",
		"explanation":    "Convert to quarters first.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/v1/topics/"+topic.ID+"/lessons", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var lessons []catalog.Lesson
	decodeBody(t, rec, &lessons)
	require.Len(t, lessons, 2)
	assert.Equal(t, catalog.LessonExplanation, lessons[0].Kind)
	assert.Equal(t, catalog.LessonQuestion, lessons[1].Kind)
}

func Test_catalogApi_checkAnswer(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "amina", user.RoleStudent, true)
	teacher := env.createUser(t, "otieno", user.RoleTeacher, true)
	sub := env.createSubject(t, "Mathematics")
	topic := env.createTopic(t, sub.ID, 4, "Fractions", teacher.ID)

	lesson, err := env.catalogSvc.CreateLesson(context.Background(), catalog.NewLesson{
		TopicID:       topic.ID,
		Kind:          catalog.LessonQuestion,
		Content:       "What is 1/2 + 1/4?",
		QuestionKind:  catalog.QuestionInput,
		CorrectAnswer: "3/4",
		Explanation:   "Convert to quarters first.",
	})
	require.NoError(t, err)

	token := env.token(t, student)

	rec := env.do(http.MethodPost, "/v1/lessons/"+lesson.ID+"/check", token, map[string]string{"answer": " 3/4 "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fb catalog.Feedback
	decodeBody(t, rec, &fb)
	assert.True(t, fb.Correct)
	assert.Equal(t, "✅ Correct!", fb.Message)

	rec = env.do(http.MethodPost, "/v1/lessons/"+lesson.ID+"/check", token, map[string]string{"answer": "1/2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &fb)
	assert.False(t, fb.Correct)
	assert.Equal(t, "❌ Incorrect. Try again!", fb.Message)
	assert.Equal(t, "Convert to quarters first.", fb.Explanation)
}
