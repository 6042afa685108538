package inmemdb

import (
	"context"
	"sort"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/library"
)

type libraryRepository struct {
	db *libraryTables
}

var _ library.Repository = (*libraryRepository)(nil) // interface compliance check

func NewLibraryRepository(db *DB) library.Repository {
	return &libraryRepository{db: db.library}
}

// Books

func (repo *libraryRepository) CreateBook(ctx context.Context, bk library.Book) (library.Book, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.books[bk.ID] = &bk
	return bk, nil
}

func (repo *libraryRepository) GetBookByID(ctx context.Context, id string) (library.Book, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if bk, ok := repo.db.books[id]; ok {
		return *bk, nil
	}
	return library.Book{}, library.ErrBookNotFound
}

func (repo *libraryRepository) FilterBooks(ctx context.Context, filter library.BookQueryFilter, ordering ...core.DBOrdering) ([]library.Book, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	books := make([]library.Book, 0, len(repo.db.books))
	for _, bk := range repo.db.books {
		if filter.Kind != "" && bk.Kind != filter.Kind {
			continue
		}
		if filter.CreatedBy != "" && bk.CreatedBy != filter.CreatedBy {
			continue
		}
		books = append(books, *bk)
	}
	for _, ord := range ordering {
		if ord.Field == "title" {
			asc := ord.Ascending
			sort.SliceStable(books, func(a, b int) bool {
				if asc {
					return books[a].Title < books[b].Title
				}
				return books[a].Title > books[b].Title
			})
		}
	}
	return books, nil
}

func (repo *libraryRepository) DeleteBooksByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.books, id)
	}
	return nil
}

// Projects

func (repo *libraryRepository) CreateProject(ctx context.Context, prj library.Project) (library.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.projects[prj.ID] = &prj
	return prj, nil
}

func (repo *libraryRepository) GetProjectByID(ctx context.Context, id string) (library.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prj, ok := repo.db.projects[id]; ok {
		return *prj, nil
	}
	return library.Project{}, library.ErrProjectNotFound
}

func (repo *libraryRepository) FilterProjects(ctx context.Context, filter library.ProjectQueryFilter, ordering ...core.DBOrdering) ([]library.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projects := make([]library.Project, 0, len(repo.db.projects))
	for _, prj := range repo.db.projects {
		if filter.Grade != 0 && prj.Grade != filter.Grade {
			continue
		}
		if filter.CreatedBy != "" && prj.CreatedBy != filter.CreatedBy {
			continue
		}
		projects = append(projects, *prj)
	}
	for _, ord := range ordering {
		if ord.Field == "title" {
			asc := ord.Ascending
			sort.SliceStable(projects, func(a, b int) bool {
				if asc {
					return projects[a].Title < projects[b].Title
				}
				return projects[a].Title > projects[b].Title
			})
		}
	}
	return projects, nil
}

func (repo *libraryRepository) DeleteProjectsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.projects, id)
	}
	return nil
}
