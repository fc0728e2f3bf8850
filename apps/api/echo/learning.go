package echoapi

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/learning"
	"github.com/trezcool/academia/services/export"
)

func registerLearningAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc *learning.Service) {
	ag := g.Group("", authed...)
	staff := staffMiddleware()
	admin := adminMiddleware()

	// reads: staff only for records about people
	registerRecords(ag, svc.Employees, staff, admin)
	registerRecords(ag, svc.Courses, nil, staff)
	registerRecords(ag, svc.Programs, nil, admin)
	registerRecords(ag, svc.CertificationTests, nil, staff)
	registerRecords(ag, svc.Enrollments, staff, admin)
	registerRecords(ag, svc.Webinars, nil, staff)
	registerRecords(ag, svc.Documents, nil, admin)
	registerRecords(ag, svc.DevelopmentPlans, staff, admin)

	api := learningApi{svc: svc}
	ag.POST("/"+learning.KindCourses+"/:id/featured", api.toggleFeatured, staff)
	ag.POST("/"+learning.KindPrograms+"/:id/archive", api.archiveProgram, admin)
	ag.POST("/"+learning.KindPrograms+"/:id/restore", api.restoreProgram, admin)
	ag.POST("/"+learning.KindDocuments+"/:id/archive", api.archiveDocument, admin)
	ag.POST("/"+learning.KindDocuments+"/:id/restore", api.restoreDocument, admin)
}

// registerRecords mounts list, export, retrieve and confirmed delete for one collection.
// readers may be nil when every authenticated user can read.
func registerRecords[T learning.Record](g *echo.Group, recs *learning.Records[T], readers, deleters echo.MiddlewareFunc) {
	var rg *echo.Group
	if readers != nil {
		rg = g.Group("/"+recs.Kind(), readers)
	} else {
		rg = g.Group("/" + recs.Kind())
	}

	list := func(ctx echo.Context) ([]T, error) {
		q := new(learning.Query)
		if err := ctx.Bind(q); err != nil {
			return nil, errors.Wrap(err, "binding to Query")
		}
		return recs.List(*q), nil
	}

	rg.GET("", func(ctx echo.Context) error {
		items, err := list(ctx)
		if err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		return ctx.JSON(http.StatusOK, items)
	})

	rg.GET("/export", func(ctx echo.Context) error {
		items, err := list(ctx)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, items); err != nil {
			return errors.Wrapf(err, "exporting %s", recs.Kind())
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition,
			`attachment; filename="`+export.Filename(recs.Kind(), time.Now())+`"`)
		return ctx.Blob(http.StatusOK, export.ContentType, buf.Bytes())
	})

	rg.GET("/:id", func(ctx echo.Context) error {
		item, err := recs.Get(ctx.Param("id"))
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, item)
	})

	rg.DELETE("/:id", func(ctx echo.Context) error {
		confirmed, _ := strconv.ParseBool(ctx.QueryParam("confirm"))
		if _, err := recs.Delete(ctx.Request().Context(), ctx.Param("id"), confirmed); err != nil {
			return errors.Wrapf(err, "deleting from %s", recs.Kind())
		}
		return ctx.NoContent(http.StatusNoContent)
	}, deleters)
}

type learningApi struct {
	svc *learning.Service
}

func (api *learningApi) toggleFeatured(ctx echo.Context) error {
	course, err := api.svc.ToggleFeatured(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *learningApi) archiveProgram(ctx echo.Context) error {
	prog, err := api.svc.ArchiveProgram(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *learningApi) restoreProgram(ctx echo.Context) error {
	prog, err := api.svc.RestoreProgram(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *learningApi) archiveDocument(ctx echo.Context) error {
	doc, err := api.svc.ArchiveDocument(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *learningApi) restoreDocument(ctx echo.Context) error {
	doc, err := api.svc.RestoreDocument(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, doc)
}
