package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/library"
)

// Row records translate between domain models and their table shape; an
// empty creator reference is stored as NULL to satisfy the UUID FK.

func nullableID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

type topicRow struct {
	ID          string         `db:"id"`
	SubjectID   string         `db:"subject_id"`
	Grade       int            `db:"grade"`
	Title       string         `db:"title"`
	OrderNumber int            `db:"order_number"`
	CreatedBy   sql.NullString `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
}

func topicRecord(top catalog.Topic) topicRow {
	return topicRow{
		ID:          top.ID,
		SubjectID:   top.SubjectID,
		Grade:       top.Grade,
		Title:       top.Title,
		OrderNumber: top.OrderNumber,
		CreatedBy:   nullableID(top.CreatedBy),
		CreatedAt:   top.CreatedAt,
	}
}

func (r topicRow) topic() catalog.Topic {
	return catalog.Topic{
		ID:          r.ID,
		SubjectID:   r.SubjectID,
		Grade:       r.Grade,
		Title:       r.Title,
		OrderNumber: r.OrderNumber,
		CreatedBy:   r.CreatedBy.String,
		CreatedAt:   r.CreatedAt,
	}
}

type lessonRow struct {
	ID            string         `db:"id"`
	TopicID       string         `db:"topic_id"`
	Kind          string         `db:"kind"`
	Content       string         `db:"content"`
	QuestionKind  string         `db:"question_kind"`
	Options       string         `db:"options"`
	CorrectAnswer string         `db:"correct_answer"`
	Explanation   string         `db:"explanation"`
	DueDate       string         `db:"due_date"`
	CreatedBy     sql.NullString `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
}

func lessonRecord(les catalog.Lesson) lessonRow {
	return lessonRow{
		ID:            les.ID,
		TopicID:       les.TopicID,
		Kind:          les.Kind,
		Content:       les.Content,
		QuestionKind:  les.QuestionKind,
		Options:       les.Options,
		CorrectAnswer: les.CorrectAnswer,
		Explanation:   les.Explanation,
		DueDate:       les.DueDate,
		CreatedBy:     nullableID(les.CreatedBy),
		CreatedAt:     les.CreatedAt,
	}
}

func (r lessonRow) lesson() catalog.Lesson {
	return catalog.Lesson{
		ID:            r.ID,
		TopicID:       r.TopicID,
		Kind:          r.Kind,
		Content:       r.Content,
		QuestionKind:  r.QuestionKind,
		Options:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		DueDate:       r.DueDate,
		CreatedBy:     r.CreatedBy.String,
		CreatedAt:     r.CreatedAt,
	}
}

type bookRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	Author    string         `db:"author"`
	Kind      string         `db:"kind"`
	URL       string         `db:"url"`
	CoverURL  string         `db:"cover_url"`
	CreatedBy sql.NullString `db:"created_by"`
	CreatedAt time.Time      `db:"created_at"`
}

func bookRecord(bk library.Book) bookRow {
	return bookRow{
		ID:        bk.ID,
		Title:     bk.Title,
		Author:    bk.Author,
		Kind:      bk.Kind,
		URL:       bk.URL,
		CoverURL:  bk.CoverURL,
		CreatedBy: nullableID(bk.CreatedBy),
		CreatedAt: bk.CreatedAt,
	}
}

func (r bookRow) book() library.Book {
	return library.Book{
		ID:        r.ID,
		Title:     r.Title,
		Author:    r.Author,
		Kind:      r.Kind,
		URL:       r.URL,
		CoverURL:  r.CoverURL,
		CreatedBy: r.CreatedBy.String,
		CreatedAt: r.CreatedAt,
	}
}

type projectRow struct {
	ID          string         `db:"id"`
	Grade       int            `db:"grade"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Link        string         `db:"link"`
	CreatedBy   sql.NullString `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
}

func projectRecord(prj library.Project) projectRow {
	return projectRow{
		ID:          prj.ID,
		Grade:       prj.Grade,
		Title:       prj.Title,
		Description: prj.Description,
		Link:        prj.Link,
		CreatedBy:   nullableID(prj.CreatedBy),
		CreatedAt:   prj.CreatedAt,
	}
}

func (r projectRow) project() library.Project {
	return library.Project{
		ID:          r.ID,
		Grade:       r.Grade,
		Title:       r.Title,
		Description: r.Description,
		Link:        r.Link,
		CreatedBy:   r.CreatedBy.String,
		CreatedAt:   r.CreatedAt,
	}
}
