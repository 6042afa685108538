package inmemdb

import (
	"sync"

	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/library"
	"github.com/mathmaster/cbcportal/core/user"
)

// DB is an in-memory table store used in tests and dev mode.
type DB struct {
	user    *userTable
	catalog *catalogTables
	library *libraryTables
}

type (
	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	catalogTables struct {
		sync.RWMutex
		subjects map[string]*catalog.Subject
		topics   map[string]*catalog.Topic
		lessons  map[string]*catalog.Lesson
		seq      int // insertion order tiebreak for lessons
		order    map[string]int
	}

	libraryTables struct {
		sync.RWMutex
		books    map[string]*library.Book
		projects map[string]*library.Project
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		catalog: &catalogTables{
			subjects: make(map[string]*catalog.Subject),
			topics:   make(map[string]*catalog.Topic),
			lessons:  make(map[string]*catalog.Lesson),
			order:    make(map[string]int),
		},
		library: &libraryTables{
			books:    make(map[string]*library.Book),
			projects: make(map[string]*library.Project),
		},
	}
	return db, nil
}
