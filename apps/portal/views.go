package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/library"
	"github.com/mathmaster/cbcportal/core/portal"
	"github.com/mathmaster/cbcportal/core/tutor"
	prefssvc "github.com/mathmaster/cbcportal/services/prefs"
)

func (app *portalApp) render() {
	ctx := context.Background()

	switch app.nav.View() {
	case portal.ViewGrades:
		app.palette.title.Println("\n-- Grades --")
		for g := catalog.GradeMin; g <= catalog.GradeMax; g++ {
			app.palette.text.Printf("  %d. Grade %d\n", g, g)
		}
	case portal.ViewSubjects:
		app.palette.title.Printf("\n-- Grade %d / Subjects --\n", app.nav.Grade())
		for i, sub := range app.nav.Subjects() {
			app.palette.text.Printf("  %d. %s\n", i+1, sub.Name)
		}
	case portal.ViewTopics:
		sub := app.nav.Subject()
		app.palette.title.Printf("\n-- Grade %d / %s / Topics --\n", app.nav.Grade(), sub.Name)
		for i, top := range app.nav.Topics() {
			app.palette.text.Printf("  %d. %s\n", i+1, top.Title)
		}
	case portal.ViewLesson:
		app.renderLessons()
	case portal.ViewEbooks:
		app.renderBooks(ctx, library.BookEbook, "Ebooks")
	case portal.ViewAudiobooks:
		app.renderBooks(ctx, library.BookAudiobook, "Audiobooks")
	case portal.ViewProjects:
		app.renderProjects(ctx)
	case portal.ViewCards:
		// handled by runCards
	case portal.ViewTeacher:
		app.palette.title.Println("\n-- Teacher Portal --")
		app.palette.text.Println("  generate - create a topic with AI")
		app.palette.text.Println("  b        - back")
	case portal.ViewAdmin:
		app.renderAdmin(ctx)
	case portal.ViewTheme:
		// handled by runTheme
	}

	if app.nav.Loading() {
		app.palette.dim.Println("loading...")
	}
}

func (app *portalApp) renderLessons() {
	top := app.nav.Topic()
	app.palette.title.Printf("\n-- %s --\n", top.Title)
	for i, lesson := range app.nav.Lessons() {
		switch lesson.Kind {
		case catalog.LessonQuestion:
			app.palette.text.Printf("  %d. [Q] %s\n", i+1, lesson.Content)
			if opts, err := lesson.OptionList(); err == nil && len(opts) > 0 {
				app.palette.dim.Printf("       options: %s\n", strings.Join(opts, " | "))
			}
			if fb, ok := app.nav.Feedback(lesson.ID); ok {
				if fb.Correct {
					app.palette.ok.Printf("       %s\n", fb.Message)
				} else {
					app.palette.bad.Printf("       %s\n", fb.Message)
				}
			}
		case catalog.LessonAssignment:
			app.palette.text.Printf("  %d. [Assignment] %s\n", i+1, lesson.Content)
			if lesson.DueDate != "" {
				app.palette.dim.Printf("       due: %s\n", lesson.DueDate)
			}
		case catalog.LessonNote:
			app.palette.dim.Printf("  %d. [Note] %s\n", i+1, lesson.Content)
		default:
			app.palette.text.Printf("  %d. %s\n", i+1, lesson.Content)
		}
	}
	app.palette.dim.Println("answer a question with its number")
}

func (app *portalApp) renderBooks(ctx context.Context, kind, title string) {
	app.palette.title.Printf("\n-- %s --\n", title)
	books, err := app.librarySvc.QueryBooks(ctx, library.BookQueryFilter{Kind: kind})
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	for i, book := range books {
		app.palette.text.Printf("  %d. %s", i+1, book.Title)
		if book.Author != "" {
			app.palette.dim.Printf(" - %s", book.Author)
		}
		fmt.Println()
		app.palette.dim.Printf("     %s\n", book.URL)
	}
}

func (app *portalApp) renderProjects(ctx context.Context) {
	app.palette.title.Println("\n-- Projects --")
	filter := library.ProjectQueryFilter{}
	if grade := app.nav.Grade(); grade != 0 {
		filter.Grade = grade
	}
	projects, err := app.librarySvc.QueryProjects(ctx, filter)
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	for i, project := range projects {
		app.palette.text.Printf("  %d. [Grade %d] %s\n", i+1, project.Grade, project.Title)
		app.palette.dim.Printf("     %s\n", project.Description)
	}
}

// runCards drives the study-cards flow: pick a grade, pick a topic, then
// flip through cards built from that topic's questions.
func (app *portalApp) runCards(ctx context.Context) {
	app.palette.title.Println("\n-- Study Cards --")
	app.palette.dim.Print("grade (1-9): ")
	if !app.in.Scan() {
		return
	}
	var grade int
	if _, err := fmt.Sscanf(strings.TrimSpace(app.in.Text()), "%d", &grade); err != nil ||
		grade < catalog.GradeMin || grade > catalog.GradeMax {
		app.palette.bad.Println("grade must be between 1 and 9")
		return
	}

	topics, err := app.catalogSvc.QueryTopics(ctx, catalog.TopicQueryFilter{Grade: grade})
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	if len(topics) == 0 {
		app.palette.dim.Printf("No topics found for Grade %d.\n", grade)
		return
	}
	for i, top := range topics {
		app.palette.text.Printf("  %d. %s\n", i+1, top.Title)
	}

	app.palette.dim.Print("topic number: ")
	if !app.in.Scan() {
		return
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(app.in.Text()), "%d", &n); err != nil || n < 1 || n > len(topics) {
		app.palette.bad.Println("no such topic")
		return
	}

	lessons, err := app.catalogSvc.QueryLessons(ctx, catalog.LessonQueryFilter{TopicID: topics[n-1].ID})
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	cards := portal.BuildCards(lessons)
	if len(cards) == 0 {
		app.palette.dim.Println("No cards available.")
		return
	}

	idx, flipped := 0, false
	for {
		card := cards[idx]
		app.palette.title.Printf("\nCard %d of %d\n", idx+1, len(cards))
		app.palette.text.Printf("Q: %s\n", card.Front)
		if flipped {
			app.palette.ok.Printf("A: %s\n", card.Back)
		}
		app.palette.dim.Print("f flip, n next, p previous, b back: ")
		if !app.in.Scan() {
			return
		}
		switch strings.TrimSpace(app.in.Text()) {
		case "f":
			flipped = !flipped
		case "n":
			if idx < len(cards)-1 {
				idx++
				flipped = false
			}
		case "p":
			if idx > 0 {
				idx--
				flipped = false
			}
		case "b":
			return
		}
	}
}

func (app *portalApp) renderAdmin(ctx context.Context) {
	app.palette.title.Println("\n-- Admin Portal / Users --")
	users, err := app.usrSvc.QueryAll(ctx)
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	for _, usr := range users {
		status := "active"
		if !usr.IsActive {
			status = "deactivated"
		}
		app.palette.text.Printf("  %-20s %-8s %s\n", usr.Username, usr.Role, status)
	}
}

// runChat drives a tutoring conversation until /back.
func (app *portalApp) runChat(ctx context.Context) {
	app.palette.title.Println("\n-- MathMaster AI --")
	app.palette.dim.Println("type /back to return")

	tctx := tutor.TutorContext{Grade: app.nav.Grade()}
	if top := app.nav.Topic(); top != nil {
		tctx.Topic = top.Title
	}
	if lessons := app.nav.Lessons(); len(lessons) > 0 {
		tctx.LessonContent = lessons[0].Content
	}

	for {
		app.palette.dim.Print("you: ")
		if !app.in.Scan() {
			return
		}
		msg := strings.TrimSpace(app.in.Text())
		if msg == "/back" || msg == "" {
			return
		}

		app.history = append(app.history, tutor.Turn{Role: tutor.RoleUser, Content: msg})
		reply := app.tutorSvc.Chat(ctx, app.history, tctx)
		app.history = append(app.history, tutor.Turn{Role: tutor.RoleModel, Content: reply})

		app.palette.ok.Printf("tutor: %s\n", reply)
	}
}

// runTheme lets the user flip the color scheme; the choice is saved at once.
func (app *portalApp) runTheme() {
	theme, err := app.prefs.Theme()
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}

	app.palette.title.Println("\n-- Theme --")
	app.palette.text.Printf("  mode: %s | primary: %s | secondary: %s | accent: %s\n",
		theme.Mode, theme.Primary, theme.Secondary, theme.Accent)
	app.palette.dim.Print("switch to (light/dark, empty keeps): ")
	if !app.in.Scan() {
		return
	}

	switch strings.TrimSpace(app.in.Text()) {
	case prefssvc.ModeDark:
		theme.Mode = prefssvc.ModeDark
	case prefssvc.ModeLight:
		theme.Mode = prefssvc.ModeLight
	default:
		return
	}

	if err := app.prefs.SetTheme(theme); err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	app.palette = newPalette(theme)
	app.palette.ok.Println("theme saved")
}

// runGenerate asks the AI for a full topic and files it under a subject.
func (app *portalApp) runGenerate(ctx context.Context) {
	subjects, err := app.catalogSvc.QuerySubjects(ctx)
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	if len(subjects) == 0 {
		app.palette.bad.Println("no subjects yet; an admin must create one first")
		return
	}

	app.palette.title.Println("\n-- Generate a Topic --")
	for i, sub := range subjects {
		app.palette.text.Printf("  %d. %s\n", i+1, sub.Name)
	}

	sub, ok := app.pickSubject(subjects)
	if !ok {
		return
	}

	app.palette.dim.Print("grade (1-9): ")
	if !app.in.Scan() {
		return
	}
	var grade int
	if _, err := fmt.Sscanf(strings.TrimSpace(app.in.Text()), "%d", &grade); err != nil {
		app.palette.bad.Println("grade must be a number")
		return
	}

	app.palette.dim.Print("what should the topic cover? ")
	if !app.in.Scan() {
		return
	}
	prompt := strings.TrimSpace(app.in.Text())

	pack, err := app.tutorSvc.GeneratePack(ctx, prompt, grade)
	if err != nil {
		if errors.Cause(err) == tutor.ErrMalformedResponse {
			app.palette.bad.Println("the AI returned an unusable response; nothing was saved")
		} else {
			app.palette.bad.Printf("%v\n", err)
		}
		return
	}

	topic, lessons, err := app.persistPack(ctx, sub.ID, grade, pack)
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	app.palette.ok.Printf("created topic %q with %d lessons\n", topic.Title, len(lessons))
}

func (app *portalApp) pickSubject(subjects []catalog.Subject) (catalog.Subject, bool) {
	app.palette.dim.Print("subject number: ")
	if !app.in.Scan() {
		return catalog.Subject{}, false
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(app.in.Text()), "%d", &n); err != nil || n < 1 || n > len(subjects) {
		app.palette.bad.Println("no such subject")
		return catalog.Subject{}, false
	}
	return subjects[n-1], true
}

func (app *portalApp) persistPack(ctx context.Context, subjectID string, grade int, pack tutor.GeneratedPack) (catalog.Topic, []catalog.Lesson, error) {
	newTopic := catalog.NewTopic{
		SubjectID: subjectID,
		Grade:     grade,
		Title:     pack.TopicTitle,
		CreatedBy: app.usr.ID,
	}
	if err := newTopic.Validate(); err != nil {
		return catalog.Topic{}, nil, errors.Wrap(err, "validating generated topic")
	}

	topic, err := app.catalogSvc.CreateTopic(ctx, newTopic)
	if err != nil {
		return catalog.Topic{}, nil, errors.Wrap(err, "creating generated topic")
	}

	// leave no half-filled topic behind
	persisted := false
	defer func() {
		if persisted {
			return
		}
		if dErr := app.catalogSvc.DeleteTopics(ctx, topic.ID); dErr != nil {
			app.logger.Error("cleaning up generated topic", dErr)
		}
	}()

	lessons := make([]catalog.Lesson, 0, len(pack.Lessons))
	for _, gl := range pack.Lessons {
		nl := catalog.NewLesson{
			TopicID:       topic.ID,
			Kind:          gl.Kind,
			Content:       gl.Content,
			QuestionKind:  gl.QuestionKind,
			CorrectAnswer: gl.CorrectAnswer,
			Explanation:   gl.Explanation,
			CreatedBy:     app.usr.ID,
		}
		if len(gl.Options) > 0 {
			nl.Options = encodeOptions(gl.Options)
		}
		if err := nl.Validate(); err != nil {
			return catalog.Topic{}, nil, errors.Wrap(err, "validating generated lesson")
		}
		lesson, err := app.catalogSvc.CreateLesson(ctx, nl)
		if err != nil {
			return catalog.Topic{}, nil, errors.Wrap(err, "creating generated lesson")
		}
		lessons = append(lessons, lesson)
	}
	persisted = true
	return topic, lessons, nil
}

func encodeOptions(opts []string) string {
	data, err := json.Marshal(opts)
	if err != nil {
		return ""
	}
	return string(data)
}
