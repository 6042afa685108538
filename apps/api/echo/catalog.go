package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/catalog"
)

type catalogApi struct {
	svc catalog.Service
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc catalog.Service) {
	api := catalogApi{svc: svc}

	sg := g.Group("/subjects", jwt)
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject, adminMiddleware())
	sg.GET("/:id", api.retrieveSubject)
	sg.DELETE("", api.destroySubjects, adminMiddleware())

	tg := g.Group("/topics", jwt)
	tg.GET("", api.queryTopics)
	tg.POST("", api.createTopic, teacherMiddleware())
	tg.GET("/:id", api.retrieveTopic)
	tg.DELETE("/:id", api.destroyTopic)
	tg.GET("/:id/lessons", api.queryLessons)
	tg.POST("/:id/lessons", api.createLesson, teacherMiddleware())

	lg := g.Group("/lessons", jwt)
	lg.GET("/:id", api.retrieveLesson)
	lg.DELETE("/:id", api.destroyLesson)
	lg.POST("/:id/check", api.checkAnswer)
}

// Subject handlers

func (api *catalogApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []catalog.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *catalogApi) createSubject(ctx echo.Context) error {
	var data catalog.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *catalogApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == catalog.ErrSubjectNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding subject by ID")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *catalogApi) destroySubjects(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.DeleteSubjects(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting subjects")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Topic handlers

func (api *catalogApi) queryTopics(ctx echo.Context) error {
	filter := new(catalog.TopicQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []catalog.Topic{})
	}
	if ctx.QueryParam("mine") == "true" {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		filter.CreatedBy = claims.Subject
	}

	topics, err := api.svc.QueryTopics(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying topics")
	}
	if topics == nil {
		topics = []catalog.Topic{}
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *catalogApi) createTopic(ctx echo.Context) error {
	var data catalog.NewTopic
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTopic")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.CreatedBy = claims.Subject

	if err := data.Validate(); err != nil {
		return err
	}

	topic, err := api.svc.CreateTopic(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == catalog.ErrSubjectNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "subject_id", Error: catalog.ErrSubjectNotFound.Error()})
		}
		return errors.Wrap(err, "creating topic")
	}
	return ctx.JSON(http.StatusCreated, topic)
}

func (api *catalogApi) retrieveTopic(ctx echo.Context) error {
	topic, err := api.svc.GetTopic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == catalog.ErrTopicNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding topic by ID")
	}
	return ctx.JSON(http.StatusOK, topic)
}

func (api *catalogApi) destroyTopic(ctx echo.Context) error {
	topic, err := api.svc.GetTopic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == catalog.ErrTopicNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding topic by ID")
	}

	if err := api.checkOwnership(ctx, topic.CreatedBy); err != nil {
		return err
	}

	if err := api.svc.DeleteTopics(ctx.Request().Context(), topic.ID); err != nil {
		return errors.Wrap(err, "deleting topic")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lesson handlers

func (api *catalogApi) queryLessons(ctx echo.Context) error {
	topic, err := api.svc.GetTopic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == catalog.ErrTopicNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding topic by ID")
	}

	filter := catalog.LessonQueryFilter{TopicID: topic.ID}
	if ctx.QueryParam("mine") == "true" {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		filter.CreatedBy = claims.Subject
	}

	lessons, err := api.svc.QueryLessons(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []catalog.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *catalogApi) createLesson(ctx echo.Context) error {
	var data catalog.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	data.TopicID = ctx.Param("id")

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.CreatedBy = claims.Subject

	if err := data.Validate(); err != nil {
		return err
	}

	lesson, err := api.svc.CreateLesson(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == catalog.ErrTopicNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lesson)
}

func (api *catalogApi) retrieveLesson(ctx echo.Context) error {
	lesson, err := api.svc.GetLesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == catalog.ErrLessonNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lesson by ID")
	}
	return ctx.JSON(http.StatusOK, lesson)
}

func (api *catalogApi) destroyLesson(ctx echo.Context) error {
	lesson, err := api.svc.GetLesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == catalog.ErrLessonNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lesson by ID")
	}

	if err := api.checkOwnership(ctx, lesson.CreatedBy); err != nil {
		return err
	}

	if err := api.svc.DeleteLessons(ctx.Request().Context(), lesson.ID); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *catalogApi) checkAnswer(ctx echo.Context) error {
	lesson, err := api.svc.GetLesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == catalog.ErrLessonNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lesson by ID")
	}
	if !lesson.IsQuestion() {
		return echo.NewHTTPError(http.StatusBadRequest, "lesson is not a question")
	}

	var data CheckAnswerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckAnswerRequest")
	}
	return ctx.JSON(http.StatusOK, catalog.CheckAnswer(lesson, data.Answer))
}

// checkOwnership allows the content creator and admins through.
func (api *catalogApi) checkOwnership(ctx echo.Context, createdBy string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin || (createdBy != "" && createdBy == claims.Subject) {
		return nil
	}
	return errHttpForbidden
}

type CheckAnswerRequest struct {
	Answer string `json:"answer"`
}
