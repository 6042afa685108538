package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mathmaster/cbcportal/core"
)

var (
	// errors
	ErrSubjectNotFound = errors.New("subject not found")
	ErrTopicNotFound   = errors.New("topic not found")
	ErrLessonNotFound  = errors.New("lesson not found")
)

type (
	TopicQueryFilter struct {
		Grade     int    `query:"grade"`
		SubjectID string `query:"subject_id"`
		CreatedBy string `query:"-"`
	}

	LessonQueryFilter struct {
		TopicID   string `query:"-"`
		CreatedBy string `query:"-"`
	}

	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QueryAllSubjects(ctx context.Context, ordering ...core.DBOrdering) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids ...string) error

		CreateTopic(ctx context.Context, top Topic) (Topic, error)
		GetTopicByID(ctx context.Context, id string) (Topic, error)
		// FilterTopics applies AND operation on available TopicQueryFilter fields.
		FilterTopics(ctx context.Context, filter TopicQueryFilter, ordering ...core.DBOrdering) ([]Topic, error)
		CountGradeTopics(ctx context.Context, grade int) (int, error)
		DeleteTopicsByID(ctx context.Context, ids ...string) error

		CreateLesson(ctx context.Context, les Lesson) (Lesson, error)
		GetLessonByID(ctx context.Context, id string) (Lesson, error)
		// FilterLessons applies AND operation on available LessonQueryFilter fields.
		FilterLessons(ctx context.Context, filter LessonQueryFilter, ordering ...core.DBOrdering) ([]Lesson, error)
		DeleteLessonsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		DeleteSubjects(ctx context.Context, ids ...string) error

		CreateTopic(ctx context.Context, nt NewTopic) (Topic, error)
		GetTopic(ctx context.Context, id string) (Topic, error)
		QueryTopics(ctx context.Context, filter TopicQueryFilter) ([]Topic, error)
		DeleteTopics(ctx context.Context, ids ...string) error

		CreateLesson(ctx context.Context, nl NewLesson) (Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		QueryLessons(ctx context.Context, filter LessonQueryFilter) ([]Lesson, error)
		DeleteLessons(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	sub := Subject{
		ID:        uuid.New().String(),
		Name:      ns.Name,
		Code:      ns.Code,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateSubject(ctx, sub)
}

// QuerySubjects returns all subjects ordered by name.
func (svc *service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QueryAllSubjects(ctx, core.DBOrdering{Field: "name", Ascending: true})
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *service) DeleteSubjects(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSubjectsByID(ctx, ids...)
}

func (svc *service) CreateTopic(ctx context.Context, nt NewTopic) (Topic, error) {
	if _, err := svc.repo.GetSubjectByID(ctx, nt.SubjectID); err != nil {
		return Topic{}, err
	}

	if nt.OrderNumber == 0 {
		count, err := svc.repo.CountGradeTopics(ctx, nt.Grade)
		if err != nil {
			return Topic{}, err
		}
		nt.OrderNumber = count + 1
	}

	top := Topic{
		ID:          uuid.New().String(),
		SubjectID:   nt.SubjectID,
		Grade:       nt.Grade,
		Title:       nt.Title,
		OrderNumber: nt.OrderNumber,
		CreatedBy:   nt.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateTopic(ctx, top)
}

func (svc *service) GetTopic(ctx context.Context, id string) (Topic, error) {
	return svc.repo.GetTopicByID(ctx, id)
}

// QueryTopics returns matching topics ordered by their order number.
// Order numbers are neither unique nor contiguous.
func (svc *service) QueryTopics(ctx context.Context, filter TopicQueryFilter) ([]Topic, error) {
	return svc.repo.FilterTopics(ctx, filter, core.DBOrdering{Field: "order_number", Ascending: true})
}

func (svc *service) DeleteTopics(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteTopicsByID(ctx, ids...)
}

func (svc *service) CreateLesson(ctx context.Context, nl NewLesson) (Lesson, error) {
	if _, err := svc.repo.GetTopicByID(ctx, nl.TopicID); err != nil {
		return Lesson{}, err
	}

	les := Lesson{
		ID:            uuid.New().String(),
		TopicID:       nl.TopicID,
		Kind:          nl.Kind,
		Content:       nl.Content,
		QuestionKind:  nl.QuestionKind,
		Options:       nl.Options,
		CorrectAnswer: nl.CorrectAnswer,
		Explanation:   nl.Explanation,
		DueDate:       nl.DueDate,
		CreatedBy:     nl.CreatedBy,
		CreatedAt:     time.Now().UTC(),
	}
	return svc.repo.CreateLesson(ctx, les)
}

func (svc *service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

// QueryLessons returns matching lessons in insertion order.
func (svc *service) QueryLessons(ctx context.Context, filter LessonQueryFilter) ([]Lesson, error) {
	return svc.repo.FilterLessons(ctx, filter, core.DBOrdering{Field: "created_at", Ascending: true})
}

func (svc *service) DeleteLessons(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteLessonsByID(ctx, ids...)
}
