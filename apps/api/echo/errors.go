package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

const msgUnavailable = "service temporarily unavailable, please retry"

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var herr *echo.HTTPError
		var verr *core.ValidationError
		switch {
		case errors.As(err, &herr):
			if herr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = herr.Message
				break
			}
			if herr.Internal != nil {
				if iherr, ok := herr.Internal.(*echo.HTTPError); ok {
					herr = iherr
				}
			}
			code = herr.Code
			message = herr.Message
		case errors.As(err, &verr):
			code = http.StatusBadRequest
			if len(verr.Fields) > 0 {
				message = echo.Map{"error": verr.Error(), "fields": verr.FieldMap()}
			} else {
				message = verr.Error()
			}
		case core.IsStoreUnavailable(err):
			code = http.StatusServiceUnavailable
			message = msgUnavailable
			logger.Error(fmt.Sprintf("%s %s: %v", ctx.Request().Method, ctx.Path(), err), err, getContextAuth(ctx))
		case core.IsUnauthenticated(err):
			code = http.StatusUnauthorized
			message = core.Reason(err)
		case core.IsForbidden(err):
			code = http.StatusForbidden
			message = core.Reason(err)
		case core.IsNotFound(err):
			code = http.StatusNotFound
			message = core.Reason(err)
		case core.IsConflict(err):
			code = http.StatusConflict
			message = core.Reason(err)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), getContextAuth(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
