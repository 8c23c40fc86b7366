package echoapi

import (
	"github.com/labstack/echo/v4"
)

// success writes the envelope {status: true, message, <payload keys>}.
func success(ctx echo.Context, code int, message string, payload echo.Map) error {
	body := echo.Map{"status": true, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	return ctx.JSON(code, body)
}

// failure writes the envelope {status: false, message, errors?}.
func failure(ctx echo.Context, code int, message string, fldErrs map[string]string) error {
	body := echo.Map{"status": false, "message": message}
	if len(fldErrs) > 0 {
		body["errors"] = fldErrs
	}
	return ctx.JSON(code, body)
}
