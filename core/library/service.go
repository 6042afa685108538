package library

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mathmaster/cbcportal/core"
)

var (
	// errors
	ErrBookNotFound    = errors.New("book not found")
	ErrProjectNotFound = errors.New("project not found")
)

type (
	BookQueryFilter struct {
		Kind      string `query:"type"`
		CreatedBy string `query:"-"`
	}

	ProjectQueryFilter struct {
		Grade     int    `query:"grade"`
		CreatedBy string `query:"-"`
	}

	Repository interface {
		CreateBook(ctx context.Context, bk Book) (Book, error)
		GetBookByID(ctx context.Context, id string) (Book, error)
		// FilterBooks applies AND operation on available BookQueryFilter fields.
		FilterBooks(ctx context.Context, filter BookQueryFilter, ordering ...core.DBOrdering) ([]Book, error)
		DeleteBooksByID(ctx context.Context, ids ...string) error

		CreateProject(ctx context.Context, prj Project) (Project, error)
		GetProjectByID(ctx context.Context, id string) (Project, error)
		// FilterProjects applies AND operation on available ProjectQueryFilter fields.
		FilterProjects(ctx context.Context, filter ProjectQueryFilter, ordering ...core.DBOrdering) ([]Project, error)
		DeleteProjectsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CreateBook(ctx context.Context, nb NewBook) (Book, error)
		GetBook(ctx context.Context, id string) (Book, error)
		QueryBooks(ctx context.Context, filter BookQueryFilter) ([]Book, error)
		DeleteBooks(ctx context.Context, ids ...string) error

		CreateProject(ctx context.Context, np NewProject) (Project, error)
		GetProject(ctx context.Context, id string) (Project, error)
		QueryProjects(ctx context.Context, filter ProjectQueryFilter) ([]Project, error)
		DeleteProjects(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateBook(ctx context.Context, nb NewBook) (Book, error) {
	bk := Book{
		ID:        uuid.New().String(),
		Title:     nb.Title,
		Author:    nb.Author,
		Kind:      nb.Kind,
		URL:       nb.URL,
		CoverURL:  nb.CoverURL,
		CreatedBy: nb.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateBook(ctx, bk)
}

func (svc *service) GetBook(ctx context.Context, id string) (Book, error) {
	return svc.repo.GetBookByID(ctx, id)
}

func (svc *service) QueryBooks(ctx context.Context, filter BookQueryFilter) ([]Book, error) {
	return svc.repo.FilterBooks(ctx, filter, core.DBOrdering{Field: "title", Ascending: true})
}

func (svc *service) DeleteBooks(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteBooksByID(ctx, ids...)
}

func (svc *service) CreateProject(ctx context.Context, np NewProject) (Project, error) {
	prj := Project{
		ID:          uuid.New().String(),
		Grade:       np.Grade,
		Title:       np.Title,
		Description: np.Description,
		Link:        np.Link,
		CreatedBy:   np.CreatedBy,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateProject(ctx, prj)
}

func (svc *service) GetProject(ctx context.Context, id string) (Project, error) {
	return svc.repo.GetProjectByID(ctx, id)
}

func (svc *service) QueryProjects(ctx context.Context, filter ProjectQueryFilter) ([]Project, error) {
	return svc.repo.FilterProjects(ctx, filter, core.DBOrdering{Field: "title", Ascending: true})
}

func (svc *service) DeleteProjects(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteProjectsByID(ctx, ids...)
}
