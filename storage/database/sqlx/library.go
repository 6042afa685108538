package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/library"
)

type libraryRepository struct {
	db *sqlx.DB
}

var _ library.Repository = (*libraryRepository)(nil) // interface compliance check

func NewLibraryRepository(db *sqlx.DB) library.Repository {
	return &libraryRepository{db: db}
}

// Books

func (repo *libraryRepository) CreateBook(ctx context.Context, bk library.Book) (library.Book, error) {
	query := `
		INSERT INTO book (id, title, author, kind, url, cover_url, created_by, created_at)
		VALUES (:id, :title, :author, :kind, :url, :cover_url, :created_by, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, bookRecord(bk)); err != nil {
		return library.Book{}, errors.Wrap(err, "inserting book")
	}
	return bk, nil
}

func (repo *libraryRepository) GetBookByID(ctx context.Context, id string) (library.Book, error) {
	var rec bookRow
	if err := repo.db.GetContext(ctx, &rec, `SELECT * FROM book WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return library.Book{}, library.ErrBookNotFound
		}
		return library.Book{}, errors.Wrap(err, "getting book")
	}
	return rec.book(), nil
}

func (repo *libraryRepository) FilterBooks(ctx context.Context, filter library.BookQueryFilter, ordering ...core.DBOrdering) ([]library.Book, error) {
	query := `SELECT * FROM book WHERE 1=1`
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Kind != "" {
		query += " AND kind = " + arg(filter.Kind)
	}
	if filter.CreatedBy != "" {
		query += " AND created_by = " + arg(filter.CreatedBy)
	}
	query += orderBy(ordering)

	rows := []bookRow{}
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering books")
	}
	books := make([]library.Book, 0, len(rows))
	for _, rec := range rows {
		books = append(books, rec.book())
	}
	return books, nil
}

func (repo *libraryRepository) DeleteBooksByID(ctx context.Context, ids ...string) error {
	return repo.deleteByID(ctx, "book", ids)
}

// Projects

func (repo *libraryRepository) CreateProject(ctx context.Context, prj library.Project) (library.Project, error) {
	query := `
		INSERT INTO project (id, grade, title, description, link, created_by, created_at)
		VALUES (:id, :grade, :title, :description, :link, :created_by, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, projectRecord(prj)); err != nil {
		return library.Project{}, errors.Wrap(err, "inserting project")
	}
	return prj, nil
}

func (repo *libraryRepository) GetProjectByID(ctx context.Context, id string) (library.Project, error) {
	var rec projectRow
	if err := repo.db.GetContext(ctx, &rec, `SELECT * FROM project WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return library.Project{}, library.ErrProjectNotFound
		}
		return library.Project{}, errors.Wrap(err, "getting project")
	}
	return rec.project(), nil
}

func (repo *libraryRepository) FilterProjects(ctx context.Context, filter library.ProjectQueryFilter, ordering ...core.DBOrdering) ([]library.Project, error) {
	query := `SELECT * FROM project WHERE 1=1`
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Grade != 0 {
		query += " AND grade = " + arg(filter.Grade)
	}
	if filter.CreatedBy != "" {
		query += " AND created_by = " + arg(filter.CreatedBy)
	}
	query += orderBy(ordering)

	rows := []projectRow{}
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering projects")
	}
	projects := make([]library.Project, 0, len(rows))
	for _, rec := range rows {
		projects = append(projects, rec.project())
	}
	return projects, nil
}

func (repo *libraryRepository) DeleteProjectsByID(ctx context.Context, ids ...string) error {
	return repo.deleteByID(ctx, "project", ids)
}

func (repo *libraryRepository) deleteByID(ctx context.Context, table string, ids []string) error {
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
