package inmemdb

import (
	"context"
	"sort"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/catalog"
)

type catalogRepository struct {
	db *catalogTables
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) catalog.Repository {
	return &catalogRepository{db: db.catalog}
}

// Subjects

func (repo *catalogRepository) CreateSubject(ctx context.Context, sub catalog.Subject) (catalog.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *catalogRepository) QueryAllSubjects(ctx context.Context, ordering ...core.DBOrdering) ([]catalog.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]catalog.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subs = append(subs, *sub)
	}
	for _, ord := range ordering {
		if ord.Field == "name" {
			asc := ord.Ascending
			sort.SliceStable(subs, func(a, b int) bool {
				if asc {
					return subs[a].Name < subs[b].Name
				}
				return subs[a].Name > subs[b].Name
			})
		}
	}
	return subs, nil
}

func (repo *catalogRepository) GetSubjectByID(ctx context.Context, id string) (catalog.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return catalog.Subject{}, catalog.ErrSubjectNotFound
}

func (repo *catalogRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.subjects, id)
		// cascade to topics and their lessons
		for tid, top := range repo.db.topics {
			if top.SubjectID == id {
				repo.deleteTopicLocked(tid)
			}
		}
	}
	return nil
}

// Topics

func (repo *catalogRepository) CreateTopic(ctx context.Context, top catalog.Topic) (catalog.Topic, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.topics[top.ID] = &top
	return top, nil
}

func (repo *catalogRepository) GetTopicByID(ctx context.Context, id string) (catalog.Topic, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if top, ok := repo.db.topics[id]; ok {
		return *top, nil
	}
	return catalog.Topic{}, catalog.ErrTopicNotFound
}

func (repo *catalogRepository) FilterTopics(ctx context.Context, filter catalog.TopicQueryFilter, ordering ...core.DBOrdering) ([]catalog.Topic, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tops := make([]catalog.Topic, 0, len(repo.db.topics))
	for _, top := range repo.db.topics {
		if filter.Grade != 0 && top.Grade != filter.Grade {
			continue
		}
		if filter.SubjectID != "" && top.SubjectID != filter.SubjectID {
			continue
		}
		if filter.CreatedBy != "" && top.CreatedBy != filter.CreatedBy {
			continue
		}
		tops = append(tops, *top)
	}
	for _, ord := range ordering {
		if ord.Field == "order_number" {
			asc := ord.Ascending
			sort.SliceStable(tops, func(a, b int) bool {
				if asc {
					return tops[a].OrderNumber < tops[b].OrderNumber
				}
				return tops[a].OrderNumber > tops[b].OrderNumber
			})
		}
	}
	return tops, nil
}

func (repo *catalogRepository) CountGradeTopics(ctx context.Context, grade int) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, top := range repo.db.topics {
		if top.Grade == grade {
			count++
		}
	}
	return count, nil
}

func (repo *catalogRepository) DeleteTopicsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		repo.deleteTopicLocked(id)
	}
	return nil
}

func (repo *catalogRepository) deleteTopicLocked(id string) {
	delete(repo.db.topics, id)
	for lid, les := range repo.db.lessons {
		if les.TopicID == id {
			delete(repo.db.lessons, lid)
			delete(repo.db.order, lid)
		}
	}
}

// Lessons

func (repo *catalogRepository) CreateLesson(ctx context.Context, les catalog.Lesson) (catalog.Lesson, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	repo.db.lessons[les.ID] = &les
	repo.db.order[les.ID] = repo.db.seq
	return les, nil
}

func (repo *catalogRepository) GetLessonByID(ctx context.Context, id string) (catalog.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if les, ok := repo.db.lessons[id]; ok {
		return *les, nil
	}
	return catalog.Lesson{}, catalog.ErrLessonNotFound
}

func (repo *catalogRepository) FilterLessons(ctx context.Context, filter catalog.LessonQueryFilter, ordering ...core.DBOrdering) ([]catalog.Lesson, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	lessons := make([]catalog.Lesson, 0, len(repo.db.lessons))
	for _, les := range repo.db.lessons {
		if filter.TopicID != "" && les.TopicID != filter.TopicID {
			continue
		}
		if filter.CreatedBy != "" && les.CreatedBy != filter.CreatedBy {
			continue
		}
		lessons = append(lessons, *les)
	}

	// insertion order
	sort.SliceStable(lessons, func(a, b int) bool {
		return repo.db.order[lessons[a].ID] < repo.db.order[lessons[b].ID]
	})
	return lessons, nil
}

func (repo *catalogRepository) DeleteLessonsByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.lessons, id)
		delete(repo.db.order, id)
	}
	return nil
}
