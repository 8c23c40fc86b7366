package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/media"
	"github.com/trezcool/roster/core/student"
	"github.com/trezcool/roster/core/token"
)

const profileImageField = "profileImage"

type studentApi struct {
	svc      student.Service
	issuer   *token.Issuer
	tokenTTL time.Duration
	uploads  *media.Gatekeeper
	urls     imageURLs
	validate *validator.Validate
}

func registerStudentAPI(e *echo.Echo, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:      deps.StudentSvc,
		issuer:   deps.Issuer,
		tokenTTL: deps.Conf.Server.StudentTokenTTL,
		uploads:  deps.Uploads,
		urls:     imageURLs{baseURL: deps.Conf.Server.PublicBaseURL},
		validate: deps.Validate,
	}

	g := e.Group("/student", auth)
	g.POST("/add", api.create)
	g.PUT("/update/:id", api.update)
	g.DELETE("/delete/:id", api.destroy)
	g.GET("/all", api.query)
	g.GET("/:id", api.retrieve)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.Data
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to student.Data")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	image, err := acceptUpload(ctx, api.uploads, profileImageField, false)
	if err != nil {
		return errors.Wrap(err, "accepting profile image")
	}

	s, err := api.svc.Create(ctx.Request().Context(), contextOwner(ctx), data, image.Name)
	if err != nil {
		discardUpload(ctx, api.uploads, image.Name)
		return errors.Wrap(err, "creating student")
	}
	tok, err := api.issuer.Issue(s.ID, token.KindStudent, api.tokenTTL)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}

	return success(ctx, http.StatusOK, "Student added successfully.", echo.Map{
		"student": api.urls.student(s),
		"token":   tok,
	})
}

func (api *studentApi) update(ctx echo.Context) error {
	id := ctx.Param("id")
	rctx := ctx.Request().Context()

	var data student.Data
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to student.Data")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	current, err := api.svc.GetByID(rctx, id)
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}

	image, err := acceptUpload(ctx, api.uploads, profileImageField, false)
	if err != nil {
		return errors.Wrap(err, "accepting profile image")
	}

	s, err := api.svc.Update(rctx, id, data, image.Name)
	if err != nil {
		discardUpload(ctx, api.uploads, image.Name)
		return errors.Wrap(err, "updating student")
	}
	if image.Name != "" && current.ProfileImage != image.Name {
		discardUpload(ctx, api.uploads, current.ProfileImage)
	}

	return success(ctx, http.StatusOK, "Student updated successfully.", echo.Map{"student": api.urls.student(s)})
}

func (api *studentApi) destroy(ctx echo.Context) error {
	s, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	discardUpload(ctx, api.uploads, s.ProfileImage)
	return success(ctx, http.StatusOK, "Student deleted successfully.", echo.Map{"student": api.urls.student(s)})
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := student.QueryFilter{Search: ctx.QueryParam("search")}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	page, err := api.svc.List(ctx.Request().Context(), filter, bindPagination(ctx), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}

	return success(ctx, http.StatusOK, "Students retrieved successfully.", echo.Map{
		"data": echo.Map{
			"students":    api.urls.students(page.Students),
			"currentPage": page.CurrentPage,
			"totalPages":  page.TotalPages,
			"totalCount":  page.TotalCount,
		},
	})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return success(ctx, http.StatusOK, "Student retrieved successfully.", echo.Map{"data": api.urls.student(s)})
}
