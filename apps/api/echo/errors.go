package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/media"
	"github.com/trezcool/roster/core/school"
	"github.com/trezcool/roster/core/token"
)

const (
	msgValidationErrors    = "Validation errors"
	msgInternalServerError = "Internal server error"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var fldErrs map[string]string

		switch origErr := errors.Cause(err).(type) {
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = msgValidationErrors
			fldErrs = core.TranslateFieldErrors(origErr, translator)
		case *core.ValidationError:
			code = http.StatusBadRequest
			if len(origErr.Fields) > 0 {
				message = msgValidationErrors
				fldErrs = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
			} else {
				message = origErr.Error()
			}
		case *core.DuplicateKeyError:
			code = http.StatusBadRequest
			message = origErr.Error()
			fldErrs = map[string]string{origErr.Field: origErr.Error()}
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *token.Error:
			code = http.StatusForbidden
			message = origErr.Error()
		case *media.Error:
			code = http.StatusBadRequest
			message = origErr.Error()
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = msgInternalServerError

			var acc school.Account
			if claims, cErr := getContextClaims(ctx); cErr == nil && claims.Kind == token.KindSchool {
				acc.ID = claims.Subject
			}
			logger.Error(message, errors.Wrap(err, message), acc)

			if ctx.Echo().Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = failure(ctx, code, message, fldErrs)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
