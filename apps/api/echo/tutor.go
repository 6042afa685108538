package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/tutor"
)

type tutorApi struct {
	svc        tutor.Service
	catalogSvc catalog.Service
}

func registerTutorAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc tutor.Service, catalogSvc catalog.Service) {
	api := tutorApi{
		svc:        svc,
		catalogSvc: catalogSvc,
	}

	tg := g.Group("/tutor", jwt)
	tg.POST("/chat", api.chat)
	tg.POST("/generate", api.generate, teacherMiddleware())
}

// Handlers

func (api *tutorApi) chat(ctx echo.Context) error {
	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reply := api.svc.Chat(ctx.Request().Context(), data.History, data.Context)
	return ctx.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// generate runs a bulk content generation and persists the result as a new
// topic with its lessons. Nothing is persisted when the AI response does not
// match the expected shape.
func (api *tutorApi) generate(ctx echo.Context) error {
	var data GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()

	pack, err := api.svc.GeneratePack(reqCtx, data.Prompt, data.Grade)
	if err != nil {
		if errors.Cause(err) == tutor.ErrMalformedResponse {
			return errTutorUnavailable
		}
		return errors.Wrap(err, "generating content pack")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// validate the whole pack before touching storage
	newLessons := make([]catalog.NewLesson, 0, len(pack.Lessons))
	for _, gl := range pack.Lessons {
		nl := catalog.NewLesson{
			Kind:          gl.Kind,
			Content:       gl.Content,
			QuestionKind:  gl.QuestionKind,
			CorrectAnswer: gl.CorrectAnswer,
			Explanation:   gl.Explanation,
			CreatedBy:     claims.Subject,
		}
		if len(gl.Options) > 0 {
			opts, err := json.Marshal(gl.Options)
			if err != nil {
				return errors.Wrap(err, "encoding lesson options")
			}
			nl.Options = string(opts)
		}
		newLessons = append(newLessons, nl)
	}

	newTopic := catalog.NewTopic{
		SubjectID: data.SubjectID,
		Grade:     data.Grade,
		Title:     pack.TopicTitle,
		CreatedBy: claims.Subject,
	}
	if err := newTopic.Validate(); err != nil {
		return errTutorUnavailable
	}

	topic, err := api.catalogSvc.CreateTopic(reqCtx, newTopic)
	if err != nil {
		if errors.Cause(err) == catalog.ErrSubjectNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "subject_id", Error: catalog.ErrSubjectNotFound.Error()})
		}
		return errors.Wrap(err, "creating generated topic")
	}

	// drop the half-created topic whenever the pack cannot be fully persisted
	persisted := false
	defer func() {
		if persisted {
			return
		}
		if dErr := api.catalogSvc.DeleteTopics(reqCtx, topic.ID); dErr != nil {
			ctx.Logger().Errorf("%+v", errors.Wrap(dErr, "cleaning up generated topic"))
		}
	}()

	lessons := make([]catalog.Lesson, 0, len(newLessons))
	for _, nl := range newLessons {
		nl.TopicID = topic.ID
		if err := nl.Validate(); err != nil {
			return errTutorUnavailable
		}
		lesson, err := api.catalogSvc.CreateLesson(reqCtx, nl)
		if err != nil {
			return errors.Wrap(err, "creating generated lesson")
		}
		lessons = append(lessons, lesson)
	}
	persisted = true

	return ctx.JSON(http.StatusCreated, GenerateResponse{Topic: topic, Lessons: lessons})
}

type (
	ChatRequest struct {
		History []tutor.Turn       `json:"history" validate:"required,min=1,dive"`
		Context tutor.TutorContext `json:"context"`
	}

	ChatResponse struct {
		Reply string `json:"reply"`
	}

	GenerateRequest struct {
		SubjectID string `json:"subject_id" validate:"required"`
		Grade     int    `json:"grade" validate:"required,min=1,max=9"`
		Prompt    string `json:"prompt" validate:"required"`
	}

	GenerateResponse struct {
		Topic   catalog.Topic    `json:"topic"`
		Lessons []catalog.Lesson `json:"lessons"`
	}
)

func (cr *ChatRequest) Validate() error {
	return core.Validate.Struct(cr)
}

func (gr *GenerateRequest) Validate() error {
	gr.Prompt = core.CleanString(gr.Prompt)
	return core.Validate.Struct(gr)
}
