package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
	"github.com/trezcool/loo7/core/sheikh"
)

var (
	errMissingToken  = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "sheikh not authenticated")
	errLoginDisabled = echo.NewHTTPError(http.StatusNotFound, "google login is not configured")
)

var kindStatus = map[string]int{
	core.KindNotFound:     http.StatusNotFound,
	core.KindValidation:   http.StatusBadRequest,
	core.KindInvalidState: http.StatusBadRequest,
	core.KindUpstream:     http.StatusBadGateway,
	core.KindStore:        http.StatusInternalServerError,
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Kind   string            `json:"kind,omitempty"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code int
			resp ErrorResponse
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				resp.Error = msg
			} else {
				resp.Error = http.StatusText(code)
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			resp = validationResponse(core.TranslateValidationErrors(origErr, translator).(*core.ValidationError))
		case *core.ValidationError:
			code = http.StatusBadRequest
			resp = validationResponse(origErr)
		default:
			kind := core.ErrorKind(origErr)
			code = kindStatus[kind]
			resp.Kind = kind
			resp.Error = origErr.Error()

			if kind == core.KindStore {
				// do not leak internals
				resp.Error = http.StatusText(http.StatusInternalServerError)

				var s sheikh.Sheikh
				s.ID, _ = getOwnerID(ctx)
				logger.Error(resp.Error, errors.Wrap(err, resp.Error), s)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func validationResponse(vErr *core.ValidationError) ErrorResponse {
	resp := ErrorResponse{Kind: core.KindValidation, Error: vErr.Error()}
	if len(vErr.Fields) > 0 {
		resp.Fields = make(map[string]string, len(vErr.Fields))
		for _, f := range vErr.Fields {
			resp.Fields[f.Field] = f.Error
		}
	}
	return resp
}
