package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core/media"
	"github.com/trezcool/roster/core/post"
)

type postApi struct {
	svc      post.Service
	uploads  *media.Gatekeeper
	urls     imageURLs
	validate *validator.Validate
}

func registerPostAPI(e *echo.Echo, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := postApi{
		svc:      deps.PostSvc,
		uploads:  deps.Uploads,
		urls:     imageURLs{baseURL: deps.Conf.Server.PublicBaseURL},
		validate: deps.Validate,
	}

	if deps.Conf.Posts.RequireAuthOnCreate {
		e.POST("/addPost", api.create, auth)
	} else {
		e.POST("/addPost", api.create)
	}

	e.GET("/posts", api.query, auth)
	e.GET("/post/:id", api.retrieve, auth)
	e.PUT("/post/:id", api.update, auth)
	e.DELETE("/post/:id", api.destroy, auth)

	e.POST("/comment/:id", api.comment, auth)
	e.GET("/comments", api.queryComments, auth)
	e.DELETE("/comment/:id", api.destroyComment, auth)
}

// Handlers

func (api *postApi) create(ctx echo.Context) error {
	var data post.Data
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to post.Data")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return success(ctx, http.StatusCreated, "Post created successfully.", echo.Map{"post": api.urls.post(p)})
}

func (api *postApi) query(ctx echo.Context) error {
	posts, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	return success(ctx, http.StatusOK, "posts retrieved successfully", echo.Map{"posts": api.urls.posts(posts)})
}

func (api *postApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding post by ID")
	}
	return success(ctx, http.StatusOK, "Post retrieved successfully", echo.Map{"post": api.urls.post(p)})
}

func (api *postApi) update(ctx echo.Context) error {
	var data post.Data
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to post.Data")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return success(ctx, http.StatusOK, "Post updated successfully", echo.Map{"post": api.urls.post(p)})
}

func (api *postApi) destroy(ctx echo.Context) error {
	p, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	discardUpload(ctx, api.uploads, p.Image)
	return success(ctx, http.StatusOK, "Post deleted successfully", echo.Map{"post": api.urls.post(p)})
}

func (api *postApi) comment(ctx echo.Context) error {
	var data post.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.AddComment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return success(ctx, http.StatusCreated, "Comment created successfully.", echo.Map{"comment": c})
}

func (api *postApi) queryComments(ctx echo.Context) error {
	comments, err := api.svc.QueryComments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	return success(ctx, http.StatusOK, "Comments retrieved successfully", echo.Map{"comments": comments})
}

func (api *postApi) destroyComment(ctx echo.Context) error {
	c, err := api.svc.DeleteComment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	return success(ctx, http.StatusOK, "Comment deleted successfully", echo.Map{"comment": c})
}
