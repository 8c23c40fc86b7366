package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/token"
)

type schoolApi struct {
	svc      school.Service
	issuer   *token.Issuer
	validate *validator.Validate
}

func registerSchoolAPI(e *echo.Echo, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{
		svc:      deps.SchoolSvc,
		issuer:   deps.Issuer,
		validate: deps.Validate,
	}

	sg := e.Group("/school")
	sg.POST("/signup", api.signup)
	sg.POST("/signin", api.signin)

	ug := e.Group("/users", auth)
	ug.GET("", api.query)
	ug.GET("/:id", api.retrieve)
	ug.PUT("/:id", api.update)
	ug.DELETE("/:id", api.destroy)
}

// Handlers

func (api *schoolApi) signup(ctx echo.Context) error {
	var data school.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acc, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	tok, err := api.issuer.Issue(acc.ID, token.KindSchool)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}

	return success(ctx, http.StatusOK, "User created successfully.", echo.Map{
		"user":  acc.Public(),
		"token": tok,
	})
}

func (api *schoolApi) signin(ctx echo.Context) error {
	var data school.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acc, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	tok, err := api.issuer.Issue(acc.ID, token.KindSchool)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}

	return success(ctx, http.StatusOK, "User signed in successfully.", echo.Map{
		"token":  tok,
		"userId": acc.ID,
	})
}

func (api *schoolApi) query(ctx echo.Context) error {
	accounts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if accounts == nil {
		accounts = []school.Account{}
	}
	return success(ctx, http.StatusOK, "Users retrieved successfully", echo.Map{"users": accounts})
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	acc, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding account by ID")
	}
	return success(ctx, http.StatusOK, "User retrieved successfully", echo.Map{"user": acc})
}

func (api *schoolApi) update(ctx echo.Context) error {
	var data school.UpdateAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acc, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	return success(ctx, http.StatusOK, "User updated successfully", echo.Map{"user": acc})
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	acc, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return success(ctx, http.StatusOK, "User deleted successfully", echo.Map{"user": acc})
}
