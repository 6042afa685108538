package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/tutor"
	"github.com/mathmaster/cbcportal/core/user"
)

func Test_tutorApi_chat(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "amina", user.RoleStudent, true)
	token := env.token(t, student)

	env.tutorMock.reply = "Great question! Start by finding a common denominator."

	rec := env.do(http.MethodPost, "/v1/tutor/chat", token, map[string]interface{}{
		"history": []map[string]string{
			{"role": "user", "content": "How do I add fractions?"},
		},
		"context": map[string]interface{}{
			"grade": 4,
			"topic": "Fractions",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ChatResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, env.tutorMock.reply, resp.Reply)
}

func Test_tutorApi_chat_fallsBackOnFailure(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "amina", user.RoleStudent, true)

	env.tutorMock.err = assert.AnError

	rec := env.do(http.MethodPost, "/v1/tutor/chat", env.token(t, student), map[string]interface{}{
		"history": []map[string]string{
			{"role": "user", "content": "Help!"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ChatResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, tutor.FallbackResponse, resp.Reply)
}

func Test_tutorApi_chat_requiresHistory(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "amina", user.RoleStudent, true)

	rec := env.do(http.MethodPost, "/v1/tutor/chat", env.token(t, student), map[string]interface{}{
		"history": []map[string]string{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func Test_tutorApi_generate(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "otieno", user.RoleTeacher, true)
	sub := env.createSubject(t, "Mathematics")

	env.tutorMock.jsonBody = `{
		"topicTitle": "Fractions",
		"lessons": [
			{"type": "explanation", "content": "A fraction names part of a whole."},
			{
				"type": "question",
				"content": "What is 1/2 + 1/4?",
				"question_type": "mcq",
				"options": ["1/2", "3/4", "2/6"],
				"correct_answer": "3/4",
				"explanation": "Convert to quarters first."
			}
		]
	}`

	rec := env.do(http.MethodPost, "/v1/tutor/generate", env.token(t, teacher), map[string]interface{}{
		"subject_id": sub.ID,
		"grade":      4,
		"prompt":     "Introduce fractions",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp GenerateResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Fractions", resp.Topic.Title)
	assert.Equal(t, 4, resp.Topic.Grade)
	assert.Equal(t, teacher.ID, resp.Topic.CreatedBy)
	require.Len(t, resp.Lessons, 2)
	assert.Equal(t, catalog.LessonExplanation, resp.Lessons[0].Kind)
	assert.Equal(t, catalog.LessonQuestion, resp.Lessons[1].Kind)
	assert.Equal(t, `["1/2","3/4","2/6"]`, resp.Lessons[1].Options)

	// the pack landed in the catalog
	rec = env.do(http.MethodGet, "/v1/topics/"+resp.Topic.ID+"/lessons", env.token(t, teacher), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var lessons []catalog.Lesson
	decodeBody(t, rec, &lessons)
	assert.Len(t, lessons, 2)
}

func Test_tutorApi_generate_malformedResponse(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "otieno", user.RoleTeacher, true)
	sub := env.createSubject(t, "Mathematics")
	token := env.token(t, teacher)

	body := map[string]interface{}{
		"subject_id": sub.ID,
		"grade":      4,
		"prompt":     "Introduce fractions",
	}

	env.tutorMock.jsonBody = `not json at all`
	rec := env.do(http.MethodPost, "/v1/tutor/generate", token, body)
	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())

	// lessons that do not validate leave nothing behind either
	env.tutorMock.jsonBody = `{"topicTitle": "Fractions", "lessons": [{"type": "question", "content": "?"}]}`
	rec = env.do(http.MethodPost, "/v1/tutor/generate", token, body)
	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())

	rec = env.do(http.MethodGet, "/v1/topics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var topics []catalog.Topic
	decodeBody(t, rec, &topics)
	assert.Empty(t, topics)
}

// failingCatalogService lets one lesson insert through, then errors.
type failingCatalogService struct {
	catalog.Service
	calls int
}

func (svc *failingCatalogService) CreateLesson(ctx context.Context, nl catalog.NewLesson) (catalog.Lesson, error) {
	svc.calls++
	if svc.calls > 1 {
		return catalog.Lesson{}, assert.AnError
	}
	return svc.Service.CreateLesson(ctx, nl)
}

func Test_tutorApi_generate_lessonInsertFailure(t *testing.T) {
	env := setup(t)
	teacher := env.createUser(t, "otieno", user.RoleTeacher, true)
	sub := env.createSubject(t, "Mathematics")
	token := env.token(t, teacher)

	env.server = NewServer(&Options{
		DisableReqLogs: true,
		Conf:           env.conf,
		Logger:         nopLogger{},
		UserSvc:        env.userSvc,
		CatalogSvc:     &failingCatalogService{Service: env.catalogSvc},
		LibrarySvc:     env.librarySvc,
		TutorSvc:       tutor.NewService(env.tutorMock, nopLogger{}),
	})

	env.tutorMock.jsonBody = `{
		"topicTitle": "Fractions",
		"lessons": [
			{"type": "explanation", "content": "A fraction names part of a whole."},
			{"type": "explanation", "content": "The top number is the numerator."}
		]
	}`

	rec := env.do(http.MethodPost, "/v1/tutor/generate", token, map[string]interface{}{
		"subject_id": sub.ID,
		"grade":      4,
		"prompt":     "Introduce fractions",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	// the interrupted pack left no topic behind
	rec = env.do(http.MethodGet, "/v1/topics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var topics []catalog.Topic
	decodeBody(t, rec, &topics)
	assert.Empty(t, topics)
}

func Test_tutorApi_generate_studentForbidden(t *testing.T) {
	env := setup(t)
	student := env.createUser(t, "amina", user.RoleStudent, true)

	rec := env.do(http.MethodPost, "/v1/tutor/generate", env.token(t, student), map[string]interface{}{
		"subject_id": "s1",
		"grade":      4,
		"prompt":     "Introduce fractions",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}
