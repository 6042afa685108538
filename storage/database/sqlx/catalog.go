package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/catalog"
)

type catalogRepository struct {
	db *sqlx.DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *sqlx.DB) catalog.Repository {
	return &catalogRepository{db: db}
}

// Subjects

func (repo *catalogRepository) CreateSubject(ctx context.Context, sub catalog.Subject) (catalog.Subject, error) {
	query := `INSERT INTO subject (id, name, code, created_at) VALUES (:id, :name, :code, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, sub); err != nil {
		return catalog.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo *catalogRepository) QueryAllSubjects(ctx context.Context, ordering ...core.DBOrdering) ([]catalog.Subject, error) {
	subs := []catalog.Subject{}
	if err := repo.db.SelectContext(ctx, &subs, `SELECT * FROM subject`+orderBy(ordering)); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subs, nil
}

func (repo *catalogRepository) GetSubjectByID(ctx context.Context, id string) (catalog.Subject, error) {
	var sub catalog.Subject
	if err := repo.db.GetContext(ctx, &sub, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Subject{}, catalog.ErrSubjectNotFound
		}
		return catalog.Subject{}, errors.Wrap(err, "getting subject")
	}
	return sub, nil
}

func (repo *catalogRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	return repo.deleteByID(ctx, "subject", ids)
}

// Topics

func (repo *catalogRepository) CreateTopic(ctx context.Context, top catalog.Topic) (catalog.Topic, error) {
	query := `
		INSERT INTO topic (id, subject_id, grade, title, order_number, created_by, created_at)
		VALUES (:id, :subject_id, :grade, :title, :order_number, :created_by, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, topicRecord(top)); err != nil {
		return catalog.Topic{}, errors.Wrap(err, "inserting topic")
	}
	return top, nil
}

func (repo *catalogRepository) GetTopicByID(ctx context.Context, id string) (catalog.Topic, error) {
	var rec topicRow
	if err := repo.db.GetContext(ctx, &rec, `SELECT * FROM topic WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Topic{}, catalog.ErrTopicNotFound
		}
		return catalog.Topic{}, errors.Wrap(err, "getting topic")
	}
	return rec.topic(), nil
}

func (repo *catalogRepository) FilterTopics(ctx context.Context, filter catalog.TopicQueryFilter, ordering ...core.DBOrdering) ([]catalog.Topic, error) {
	query := `SELECT * FROM topic WHERE 1=1`
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Grade != 0 {
		query += " AND grade = " + arg(filter.Grade)
	}
	if filter.SubjectID != "" {
		query += " AND subject_id = " + arg(filter.SubjectID)
	}
	if filter.CreatedBy != "" {
		query += " AND created_by = " + arg(filter.CreatedBy)
	}
	query += orderBy(ordering)

	rows := []topicRow{}
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering topics")
	}
	tops := make([]catalog.Topic, 0, len(rows))
	for _, rec := range rows {
		tops = append(tops, rec.topic())
	}
	return tops, nil
}

func (repo *catalogRepository) CountGradeTopics(ctx context.Context, grade int) (int, error) {
	var count int
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM topic WHERE grade = $1`, grade); err != nil {
		return 0, errors.Wrap(err, "counting topics")
	}
	return count, nil
}

func (repo *catalogRepository) DeleteTopicsByID(ctx context.Context, ids ...string) error {
	return repo.deleteByID(ctx, "topic", ids)
}

// Lessons

func (repo *catalogRepository) CreateLesson(ctx context.Context, les catalog.Lesson) (catalog.Lesson, error) {
	query := `
		INSERT INTO lesson (id, topic_id, kind, content, question_kind, options, correct_answer, explanation, due_date, created_by, created_at)
		VALUES (:id, :topic_id, :kind, :content, :question_kind, :options, :correct_answer, :explanation, :due_date, :created_by, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, lessonRecord(les)); err != nil {
		return catalog.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return les, nil
}

func (repo *catalogRepository) GetLessonByID(ctx context.Context, id string) (catalog.Lesson, error) {
	var rec lessonRow
	if err := repo.db.GetContext(ctx, &rec, `SELECT * FROM lesson WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Lesson{}, catalog.ErrLessonNotFound
		}
		return catalog.Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return rec.lesson(), nil
}

func (repo *catalogRepository) FilterLessons(ctx context.Context, filter catalog.LessonQueryFilter, ordering ...core.DBOrdering) ([]catalog.Lesson, error) {
	query := `SELECT * FROM lesson WHERE 1=1`
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.TopicID != "" {
		query += " AND topic_id = " + arg(filter.TopicID)
	}
	if filter.CreatedBy != "" {
		query += " AND created_by = " + arg(filter.CreatedBy)
	}
	query += orderBy(ordering)

	rows := []lessonRow{}
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering lessons")
	}
	lessons := make([]catalog.Lesson, 0, len(rows))
	for _, rec := range rows {
		lessons = append(lessons, rec.lesson())
	}
	return lessons, nil
}

func (repo *catalogRepository) DeleteLessonsByID(ctx context.Context, ids ...string) error {
	return repo.deleteByID(ctx, "lesson", ids)
}

func (repo *catalogRepository) deleteByID(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`DELETE FROM %s WHERE id IN (?)`, table), ids)
	if err != nil {
		return errors.Wrapf(err, "building %s delete query", table)
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrapf(err, "deleting %ss", table)
	}
	return nil
}
