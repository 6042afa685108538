package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/mathmaster/cbcportal/core"
	"github.com/mathmaster/cbcportal/core/catalog"
	"github.com/mathmaster/cbcportal/core/library"
	"github.com/mathmaster/cbcportal/core/portal"
	"github.com/mathmaster/cbcportal/core/tutor"
	"github.com/mathmaster/cbcportal/core/user"
	prefssvc "github.com/mathmaster/cbcportal/services/prefs"
)

type portalApp struct {
	conf       *core.Config
	logger     core.Logger
	usrSvc     user.Service
	catalogSvc catalog.Service
	librarySvc library.Service
	tutorSvc   tutor.Service
	prefs      *prefssvc.Store
	nav        *portal.Navigator
	in         *bufio.Scanner

	usr     user.User
	palette palette
	history []tutor.Turn
}

// palette maps the saved theme onto terminal colors.
type palette struct {
	title *color.Color
	text  *color.Color
	ok    *color.Color
	bad   *color.Color
	dim   *color.Color
}

func newPalette(theme prefssvc.ThemeConfig) palette {
	if theme.Mode == prefssvc.ModeDark {
		return palette{
			title: color.New(color.FgHiMagenta, color.Bold),
			text:  color.New(color.FgHiWhite),
			ok:    color.New(color.FgHiGreen),
			bad:   color.New(color.FgHiRed),
			dim:   color.New(color.FgHiBlack),
		}
	}
	return palette{
		title: color.New(color.FgBlue, color.Bold),
		text:  color.New(color.FgWhite),
		ok:    color.New(color.FgGreen),
		bad:   color.New(color.FgRed),
		dim:   color.New(color.FgCyan),
	}
}

func (app *portalApp) run() error {
	theme, err := app.prefs.Theme()
	if err != nil {
		return errors.Wrap(err, "loading theme")
	}
	app.palette = newPalette(theme)

	if err := app.signIn(); err != nil {
		return err
	}

	app.palette.title.Printf("\nWelcome to MathMaster, %s!\n", app.usr.Username)
	ctx := context.Background()

	for {
		app.render()
		app.palette.dim.Print("\n> ")
		if !app.in.Scan() {
			return nil
		}
		line := strings.TrimSpace(app.in.Text())

		switch {
		case line == "q":
			return nil
		case line == "b":
			app.nav.Back()
		case line == "logout":
			if err := app.prefs.ClearSession(); err != nil {
				return err
			}
			if err := app.signIn(); err != nil {
				return err
			}
		case line == "chat":
			app.runChat(ctx)
		case line == "theme":
			app.runTheme()
		case line == "cards":
			app.runCards(ctx)
		case line == "generate" && (app.usr.IsTeacher() || app.usr.IsAdmin()):
			app.runGenerate(ctx)
		case app.dispatchView(line):
		default:
			app.handleSelection(ctx, line)
		}
	}
}

// signIn restores a saved session or prompts for credentials.
func (app *portalApp) signIn() error {
	ctx := context.Background()

	if sess, ok, err := app.prefs.Session(); err == nil && ok {
		if usr, err := app.usrSvc.GetByID(ctx, sess.UserID); err == nil && usr.IsActive {
			app.usr = usr
			return nil
		}
		// stale session
		_ = app.prefs.ClearSession()
	}

	for {
		app.palette.title.Println("\nSign in to CBC Portal")
		fmt.Print("Username: ")
		if !app.in.Scan() {
			return errors.New("no input")
		}
		uname := strings.TrimSpace(app.in.Text())

		fmt.Print("Password: ")
		pwd, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return errors.Wrap(err, "reading password")
		}

		usr, err := app.usrSvc.Authenticate(ctx, uname, string(pwd))
		switch errors.Cause(err) {
		case nil:
			app.usr = usr
			app.history = nil
			return app.prefs.SetSession(prefssvc.Session{
				UserID:   usr.ID,
				Username: usr.Username,
				Role:     usr.Role,
			})
		case user.ErrInvalidCredentials:
			app.palette.bad.Println("Invalid username or password.")
		case user.ErrAccountDeactivated:
			app.palette.bad.Println("This account has been deactivated.")
		default:
			return errors.Wrap(err, "authenticating")
		}
	}
}

// dispatchView reports whether line named a top-level destination.
func (app *portalApp) dispatchView(line string) bool {
	views := map[string]portal.View{
		"ebooks":     portal.ViewEbooks,
		"audiobooks": portal.ViewAudiobooks,
		"projects":   portal.ViewProjects,
		"teacher":    portal.ViewTeacher,
		"admin":      portal.ViewAdmin,
	}
	view, ok := views[line]
	if !ok {
		return false
	}
	if err := app.nav.GoTo(view, app.usr); err != nil {
		app.palette.bad.Printf("%v\n", err)
	}
	return true
}

// handleSelection interprets a number as a pick in the current view.
func (app *portalApp) handleSelection(ctx context.Context, line string) {
	n, err := strconv.Atoi(line)
	if err != nil {
		app.palette.dim.Println("commands: <number> select, b back, chat, cards, theme, ebooks, audiobooks, projects, logout, q quit")
		return
	}

	switch app.nav.View() {
	case portal.ViewGrades:
		if err := app.nav.SelectGrade(ctx, n); err != nil {
			app.palette.bad.Printf("%v\n", err)
		}
	case portal.ViewSubjects:
		subjects := app.nav.Subjects()
		if n < 1 || n > len(subjects) {
			app.palette.bad.Println("no such subject")
			return
		}
		app.nav.SelectSubject(ctx, subjects[n-1])
	case portal.ViewTopics:
		topics := app.nav.Topics()
		if n < 1 || n > len(topics) {
			app.palette.bad.Println("no such topic")
			return
		}
		app.nav.SelectTopic(ctx, topics[n-1])
	case portal.ViewLesson:
		app.answerQuestion(n)
	default:
		app.palette.dim.Println("nothing to select here; b goes back")
	}
}

func (app *portalApp) answerQuestion(n int) {
	lessons := app.nav.Lessons()
	if n < 1 || n > len(lessons) {
		app.palette.bad.Println("no such lesson")
		return
	}
	lesson := lessons[n-1]
	if !lesson.IsQuestion() {
		app.palette.dim.Println("that lesson is not a question")
		return
	}

	fmt.Print("Your answer: ")
	if !app.in.Scan() {
		return
	}
	app.nav.SetAnswer(lesson.ID, strings.TrimSpace(app.in.Text()))

	fb, err := app.nav.CheckAnswer(lesson.ID)
	if err != nil {
		app.palette.bad.Printf("%v\n", err)
		return
	}
	if fb.Correct {
		app.palette.ok.Println(fb.Message)
	} else {
		app.palette.bad.Println(fb.Message)
		if fb.Explanation != "" {
			app.palette.dim.Printf("Hint: %s\n", fb.Explanation)
		}
	}
}
