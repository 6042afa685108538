package library

import (
	"time"

	"github.com/mathmaster/cbcportal/core"
)

// Book kinds
const (
	BookEbook     = "ebook"
	BookAudiobook = "audiobook"
)

var AllBookKinds = []string{BookEbook, BookAudiobook}

type Book struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author,omitempty" db:"author"`
	Kind      string    `json:"type" db:"kind"`
	URL       string    `json:"url" db:"url"`
	CoverURL  string    `json:"cover_url,omitempty" db:"cover_url"`
	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type Project struct {
	ID          string    `json:"id" db:"id"`
	Grade       int       `json:"grade" db:"grade"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Link        string    `json:"link,omitempty" db:"link"`
	CreatedBy   string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}

// NewBook contains information needed to create a new Book.
type NewBook struct {
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author"`
	Kind      string `json:"type" validate:"required,bookkind"`
	URL       string `json:"url" validate:"required,url"`
	CoverURL  string `json:"cover_url" validate:"omitempty,url"`
	CreatedBy string `json:"-"`
}

func (nb *NewBook) Validate() error {
	nb.Title = core.CleanString(nb.Title)
	nb.Author = core.CleanString(nb.Author)
	return core.Validate.Struct(nb)
}

// NewProject contains information needed to create a new Project.
type NewProject struct {
	Grade       int    `json:"grade" validate:"required,min=1,max=9"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Link        string `json:"link" validate:"omitempty,url"`
	CreatedBy   string `json:"-"`
}

func (np *NewProject) Validate() error {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	return core.Validate.Struct(np)
}
