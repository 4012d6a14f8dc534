package handler // package handler translates HTTP requests into service calls

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/zaporka-api/internal/apperr"
)

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Success bool        `json:"success"`
	Error   errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    apperr.Kind    `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// kindByStatus classifies errors raised by Echo itself (unknown route, bad
// bind, ...) so they render like the application's own errors.
var kindByStatus = map[int]apperr.Kind{
	http.StatusBadRequest:            apperr.KindInvalidBody,
	http.StatusUnauthorized:          apperr.KindMissingToken,
	http.StatusForbidden:             apperr.KindForbidden,
	http.StatusNotFound:              apperr.KindNotFound,
	http.StatusMethodNotAllowed:      apperr.KindMethodNotAllowed,
	http.StatusRequestEntityTooLarge: apperr.KindInvalidBody,
	http.StatusUnsupportedMediaType:  apperr.KindInvalidBody,
}

// ErrorHandler renders errors returned by handlers and middleware. Client
// faults carry their kind and message; server faults are logged with their
// cause and reach the client only as a generic message.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, e := classify(err)
		if !e.ClientFault() {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, bodyOf(e))
		}
		if werr != nil {
			log.Error().Err(werr).Msg("write error response")
		}
	}
}

// classify resolves err to the status to send and the application error to
// render. Echo's own client errors keep their status.
func classify(err error) (int, *apperr.Error) {
	if e, ok := apperr.As(err); ok {
		return e.Status(), e
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		kind, ok := kindByStatus[he.Code]
		if !ok {
			kind = apperr.KindValidation
		}
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, apperr.New(kind, msg)
	}

	e := apperr.From(err)
	return e.Status(), e
}

func bodyOf(e *apperr.Error) errorBody {
	return errorBody{
		Success: false,
		Error:   errorDetail{Kind: e.Kind, Message: e.Message, Details: e.Details},
	}
}

// bind decodes the request body into v, reporting malformed input as
// INVALID_BODY.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		e := apperr.New(apperr.KindInvalidBody, "request body is not valid JSON").WithCause(err)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if s, ok := he.Message.(string); ok && s != "" {
				e.Message = s
			}
		}
		return e
	}
	return nil
}
