package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mathmaster/cbcportal/core/library"
)

type libraryApi struct {
	svc library.Service
}

func registerLibraryAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc library.Service) {
	api := libraryApi{svc: svc}

	bg := g.Group("/books", jwt)
	bg.GET("", api.queryBooks)
	bg.POST("", api.createBook, teacherMiddleware())
	bg.GET("/:id", api.retrieveBook)
	bg.DELETE("/:id", api.destroyBook)

	pg := g.Group("/projects", jwt)
	pg.GET("", api.queryProjects)
	pg.POST("", api.createProject, teacherMiddleware())
	pg.GET("/:id", api.retrieveProject)
	pg.DELETE("/:id", api.destroyProject)
}

// Book handlers

func (api *libraryApi) queryBooks(ctx echo.Context) error {
	filter := new(library.BookQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []library.Book{})
	}

	books, err := api.svc.QueryBooks(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying books")
	}
	if books == nil {
		books = []library.Book{}
	}
	return ctx.JSON(http.StatusOK, books)
}

func (api *libraryApi) createBook(ctx echo.Context) error {
	var data library.NewBook
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBook")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.CreatedBy = claims.Subject

	if err := data.Validate(); err != nil {
		return err
	}

	book, err := api.svc.CreateBook(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating book")
	}
	return ctx.JSON(http.StatusCreated, book)
}

func (api *libraryApi) retrieveBook(ctx echo.Context) error {
	book, err := api.svc.GetBook(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == library.ErrBookNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding book by ID")
	}
	return ctx.JSON(http.StatusOK, book)
}

func (api *libraryApi) destroyBook(ctx echo.Context) error {
	book, err := api.svc.GetBook(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == library.ErrBookNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding book by ID")
	}

	if err := api.checkOwnership(ctx, book.CreatedBy); err != nil {
		return err
	}

	if err := api.svc.DeleteBooks(ctx.Request().Context(), book.ID); err != nil {
		return errors.Wrap(err, "deleting book")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Project handlers

func (api *libraryApi) queryProjects(ctx echo.Context) error {
	filter := new(library.ProjectQueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []library.Project{})
	}

	projects, err := api.svc.QueryProjects(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	if projects == nil {
		projects = []library.Project{}
	}
	return ctx.JSON(http.StatusOK, projects)
}

func (api *libraryApi) createProject(ctx echo.Context) error {
	var data library.NewProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.CreatedBy = claims.Subject

	if err := data.Validate(); err != nil {
		return err
	}

	project, err := api.svc.CreateProject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, project)
}

func (api *libraryApi) retrieveProject(ctx echo.Context) error {
	project, err := api.svc.GetProject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == library.ErrProjectNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding project by ID")
	}
	return ctx.JSON(http.StatusOK, project)
}

func (api *libraryApi) destroyProject(ctx echo.Context) error {
	project, err := api.svc.GetProject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == library.ErrProjectNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding project by ID")
	}

	if err := api.checkOwnership(ctx, project.CreatedBy); err != nil {
		return err
	}

	if err := api.svc.DeleteProjects(ctx.Request().Context(), project.ID); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *libraryApi) checkOwnership(ctx echo.Context, createdBy string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsAdmin || (createdBy != "" && createdBy == claims.Subject) {
		return nil
	}
	return errHttpForbidden
}
