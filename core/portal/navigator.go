package portal

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/user"
)

// View is a navigational destination of the portal.
type View string

const (
	ViewGrades   View = "grades"
	ViewSubjects View = "subjects"
	ViewTopics   View = "topics"
	ViewLesson   View = "lesson"

	// top-level destinations
	ViewAdmin      View = "admin"
	ViewTeacher    View = "teacher"
	ViewTheme      View = "theme"
	ViewEbooks     View = "ebooks"
	ViewAudiobooks View = "audiobooks"
	ViewProjects   View = "projects"
	ViewCards      View = "cards"
)

var (
	// errors
	ErrRoleRequired  = errors.New("your role does not grant access to this view")
	ErrUnknownView   = errors.New("unknown view")
	ErrUnknownLesson = errors.New("lesson not loaded")
	ErrInvalidGrade  = errors.New("grade must be between 1 and 9")
)

var topLevelViews = map[View]struct{}{
	ViewAdmin:      {},
	ViewTeacher:    {},
	ViewTheme:      {},
	ViewEbooks:     {},
	ViewAudiobooks: {},
	ViewProjects:   {},
	ViewCards:      {},
}

// Navigator owns the portal's view state: the current destination, the
// grade/subject/topic selection, the cached fetch results the selection
// depends on, and per-lesson answers and feedback.
//
// Every fetch is stamped with a generation; a result arriving after a newer
// fetch was started is discarded, so a slow superseded request can never
// overwrite the current view's data.
type Navigator struct {
	catalogSvc catalog.Service
	logger     core.Logger

	mu       sync.Mutex
	view     View
	grade    int
	subject  *catalog.Subject
	topic    *catalog.Topic
	subjects []catalog.Subject
	topics   []catalog.Topic
	lessons  []catalog.Lesson
	answers  map[string]string
	feedback map[string]catalog.Feedback
	loading  bool
	fetchGen uint64
}

func NewNavigator(catalogSvc catalog.Service, logger core.Logger) *Navigator {
	return &Navigator{
		catalogSvc: catalogSvc,
		logger:     logger,
		view:       ViewGrades,
		answers:    make(map[string]string),
		feedback:   make(map[string]catalog.Feedback),
	}
}

// Transitions

// SelectGrade records the grade and moves to the subjects view.
func (nav *Navigator) SelectGrade(ctx context.Context, grade int) error {
	if grade < catalog.GradeMin || grade > catalog.GradeMax {
		return ErrInvalidGrade
	}

	nav.mu.Lock()
	nav.grade = grade
	nav.subject = nil
	nav.topic = nil
	nav.view = ViewSubjects
	gen := nav.startFetchLocked()
	nav.mu.Unlock()

	nav.loadSubjects(ctx, gen)
	return nil
}

// SelectSubject records the subject and moves to the topics view.
func (nav *Navigator) SelectSubject(ctx context.Context, sub catalog.Subject) {
	nav.mu.Lock()
	nav.subject = &sub
	nav.topic = nil
	grade := nav.grade
	nav.view = ViewTopics
	gen := nav.startFetchLocked()
	nav.mu.Unlock()

	nav.loadTopics(ctx, gen, grade, sub.ID)
}

// SelectTopic records the topic and moves to the lesson view. Answers and
// feedback of the previous topic are cleared before the lesson fetch
// resolves.
func (nav *Navigator) SelectTopic(ctx context.Context, top catalog.Topic) {
	nav.mu.Lock()
	nav.topic = &top
	nav.view = ViewLesson
	nav.answers = make(map[string]string)
	nav.feedback = make(map[string]catalog.Feedback)
	gen := nav.startFetchLocked()
	nav.mu.Unlock()

	nav.loadLessons(ctx, gen, top.ID)
}

// GoTo jumps to a top-level destination, enforcing the role it requires.
func (nav *Navigator) GoTo(view View, usr user.User) error {
	if _, ok := topLevelViews[view]; !ok {
		return ErrUnknownView
	}
	switch view {
	case ViewAdmin:
		if !usr.IsAdmin() {
			return ErrRoleRequired
		}
	case ViewTeacher:
		if !(usr.IsTeacher() || usr.IsAdmin()) {
			return ErrRoleRequired
		}
	}

	nav.mu.Lock()
	nav.view = view
	nav.mu.Unlock()
	return nil
}

// Back pops one navigation level; from any top-level destination it returns
// to the grades view.
func (nav *Navigator) Back() {
	nav.mu.Lock()
	defer nav.mu.Unlock()

	if _, ok := topLevelViews[nav.view]; ok {
		nav.view = ViewGrades
		return
	}

	switch nav.view {
	case ViewLesson:
		nav.topic = nil
		nav.view = ViewTopics
	case ViewTopics:
		nav.subject = nil
		nav.view = ViewSubjects
	case ViewSubjects:
		nav.grade = 0
		nav.view = ViewGrades
	}
}

// Answer checking

// SetAnswer records the learner's raw input for a lesson.
func (nav *Navigator) SetAnswer(lessonID, input string) {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	nav.answers[lessonID] = input
}

// CheckAnswer grades the recorded input for the given lesson and keeps the
// feedback until the next topic selection.
func (nav *Navigator) CheckAnswer(lessonID string) (catalog.Feedback, error) {
	nav.mu.Lock()
	defer nav.mu.Unlock()

	for _, les := range nav.lessons {
		if les.ID == lessonID {
			fb := catalog.CheckAnswer(les, nav.answers[lessonID])
			nav.feedback[lessonID] = fb
			return fb, nil
		}
	}
	return catalog.Feedback{}, ErrUnknownLesson
}

// Fetches

// startFetchLocked stamps a new fetch generation, superseding any fetch
// still in flight. Callers must hold mu.
func (nav *Navigator) startFetchLocked() uint64 {
	nav.fetchGen++
	nav.loading = true
	return nav.fetchGen
}

func (nav *Navigator) loadSubjects(ctx context.Context, gen uint64) {
	subs, err := nav.catalogSvc.QuerySubjects(ctx)

	nav.mu.Lock()
	defer nav.mu.Unlock()
	if gen != nav.fetchGen {
		return // superseded
	}
	nav.loading = false
	if err != nil {
		nav.logger.Error("portal: fetching subjects failed", err)
		return
	}
	nav.subjects = subs
}

func (nav *Navigator) loadTopics(ctx context.Context, gen uint64, grade int, subjectID string) {
	tops, err := nav.catalogSvc.QueryTopics(ctx, catalog.TopicQueryFilter{Grade: grade, SubjectID: subjectID})

	nav.mu.Lock()
	defer nav.mu.Unlock()
	if gen != nav.fetchGen {
		return // superseded
	}
	nav.loading = false
	if err != nil {
		nav.logger.Error("portal: fetching topics failed", err)
		return
	}
	nav.topics = tops
}

func (nav *Navigator) loadLessons(ctx context.Context, gen uint64, topicID string) {
	lessons, err := nav.catalogSvc.QueryLessons(ctx, catalog.LessonQueryFilter{TopicID: topicID})

	nav.mu.Lock()
	defer nav.mu.Unlock()
	if gen != nav.fetchGen {
		return // superseded
	}
	nav.loading = false
	if err != nil {
		nav.logger.Error("portal: fetching lessons failed", err)
		return
	}
	nav.lessons = lessons
}

// State accessors

func (nav *Navigator) View() View {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.view
}

func (nav *Navigator) Grade() int {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.grade
}

func (nav *Navigator) Subject() *catalog.Subject {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.subject
}

func (nav *Navigator) Topic() *catalog.Topic {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.topic
}

func (nav *Navigator) Subjects() []catalog.Subject {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.subjects
}

func (nav *Navigator) Topics() []catalog.Topic {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.topics
}

func (nav *Navigator) Lessons() []catalog.Lesson {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.lessons
}

func (nav *Navigator) Answer(lessonID string) string {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.answers[lessonID]
}

func (nav *Navigator) Feedback(lessonID string) (catalog.Feedback, bool) {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	fb, ok := nav.feedback[lessonID]
	return fb, ok
}

func (nav *Navigator) Loading() bool {
	nav.mu.Lock()
	defer nav.mu.Unlock()
	return nav.loading
}
