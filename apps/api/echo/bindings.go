package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
)

// pathInt reads an integer path parameter.
func pathInt(ctx echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, core.NewValidationError(
			errors.Wrapf(err, "parsing %s", name),
			core.FieldError{Field: name, Error: name + " must be a number"},
		)
	}
	return v, nil
}

// bindJSON binds the request body, reporting malformed JSON as a validation error.
func bindJSON(ctx echo.Context, v interface{}) error {
	if err := ctx.Bind(v); err != nil {
		if herr, ok := err.(*echo.HTTPError); ok {
			msg, _ := herr.Message.(string)
			if msg == "" {
				msg = "invalid request body"
			}
			return core.NewValidationError(errors.New(msg))
		}
		return errors.Wrap(err, "binding request body")
	}
	return nil
}
