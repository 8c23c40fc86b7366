package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/media"
	"github.com/trezcool/roster/core/post"
)

const imageField = "image"

var errFileNotFound = core.NewNotFoundError("File not found")

type uploadApi struct {
	uploads *media.Gatekeeper
	postSvc post.Service
	urls    imageURLs
}

func registerUploadAPI(e *echo.Echo, auth echo.MiddlewareFunc, deps ServerDeps) {
	api := uploadApi{
		uploads: deps.Uploads,
		postSvc: deps.PostSvc,
		urls:    imageURLs{baseURL: deps.Conf.Server.PublicBaseURL},
	}

	e.POST("/upload", api.upload, auth)
	e.POST("/postupload/:id", api.uploadPostImage, auth)
	e.GET(profilePath+":filename", api.serve)
}

func (api *uploadApi) fileView(stored media.Stored) fileView {
	return fileView{
		OriginalName: stored.OriginalName,
		Filename:     stored.Name,
		Size:         stored.SizeMB(),
		ProfileURL:   api.urls.of(stored.Name),
	}
}

// Handlers

func (api *uploadApi) upload(ctx echo.Context) error {
	stored, err := acceptUpload(ctx, api.uploads, imageField, true)
	if err != nil {
		return errors.Wrap(err, "accepting upload")
	}
	return success(ctx, http.StatusOK, "File uploaded successfully", echo.Map{"file": api.fileView(stored)})
}

func (api *uploadApi) uploadPostImage(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	current, err := api.postSvc.GetByID(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding post by ID")
	}

	stored, err := acceptUpload(ctx, api.uploads, imageField, true)
	if err != nil {
		return errors.Wrap(err, "accepting upload")
	}
	if _, err = api.postSvc.SetImage(rctx, current.ID, stored.Name); err != nil {
		discardUpload(ctx, api.uploads, stored.Name)
		return errors.Wrap(err, "setting post image")
	}
	discardUpload(ctx, api.uploads, current.Image)

	return success(ctx, http.StatusOK, "File uploaded successfully", echo.Map{"file": api.fileView(stored)})
}

func (api *uploadApi) serve(ctx echo.Context) error {
	name, ok := media.CleanName(ctx.Param("filename"))
	if !ok {
		return errFileNotFound
	}
	f, err := api.uploads.Store().Open(ctx.Request().Context(), name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return errFileNotFound
		}
		return errors.Wrap(err, "opening stored file")
	}
	defer f.Close()

	ctx.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=86400")
	return ctx.Stream(http.StatusOK, media.ContentTypeOf(name), io.Reader(f))
}
