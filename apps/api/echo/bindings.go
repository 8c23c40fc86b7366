package echoapi

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/media"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=field1,-field2` (a leading "-" sorts descending).
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func bindPagination(ctx echo.Context) core.Pagination {
	return core.NewPagination(ctx.QueryParam("page"), ctx.QueryParam("limit"))
}

func isMultipart(ctx echo.Context) bool {
	return strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// formUpload returns the file sent in field, or nil when there is none.
func formUpload(ctx echo.Context, field string) (*multipart.FileHeader, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading multipart form")
	}
	return fh, nil
}

// acceptUpload hands the file sent in field to the gatekeeper.
// The returned name is empty when no file was sent and required is false.
func acceptUpload(ctx echo.Context, gk *media.Gatekeeper, field string, required bool) (media.Stored, error) {
	var fh *multipart.FileHeader
	if isMultipart(ctx) {
		var err error
		if fh, err = formUpload(ctx, field); err != nil {
			return media.Stored{}, err
		}
	}
	if fh == nil {
		if required {
			return media.Stored{}, media.ErrNoFile
		}
		return media.Stored{}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return media.Stored{}, errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	return gk.Accept(ctx.Request().Context(), media.Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
}

// discardUpload removes a file that was stored for a request that then failed.
func discardUpload(ctx echo.Context, gk *media.Gatekeeper, name string) {
	if name == "" {
		return
	}
	if err := gk.Store().Delete(ctx.Request().Context(), name); err != nil && !errors.Is(err, media.ErrNotFound) {
		ctx.Logger().Errorf("discarding upload %s: %v", name, err)
	}
}
