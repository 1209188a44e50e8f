package http

import (
	"errors"
	"net/http"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/dispatcher"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/service/reprocess"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	codeDispatchFailed = "NOTIFICATION_DISPATCH_FAILED"
	codeNotFound       = "NOT_FOUND"
	codeInternal       = "INTERNAL_SERVER_ERROR"
)

type fieldErrors struct {
	Errors []string `json:"errors"`
}

func fieldErrorBody(fe *reprocess.FieldError) map[string]any {
	props := make(map[string]fieldErrors, len(fe.Fields))
	for field, msgs := range fe.Fields {
		props[field] = fieldErrors{Errors: msgs}
	}
	return map[string]any{
		"code":       fe.Code,
		"statusCode": fe.Status,
		"error":      map[string]any{"properties": props},
	}
}

func messageBody(code string, status int, msg string) map[string]any {
	return map[string]any{
		"code":       code,
		"statusCode": status,
		"message":    msg,
	}
}

// writeError maps engine errors onto the public error envelope.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var fe *reprocess.FieldError
	switch {
	case errors.As(err, &fe):
		return c.JSON(fe.Status, fieldErrorBody(fe))
	case errors.Is(err, dispatcher.ErrUnavailable):
		return c.JSON(http.StatusBadRequest, messageBody(codeDispatchFailed, http.StatusBadRequest, dispatcher.ErrUnavailable.Error()))
	default:
		log.Error("request failed",
			zap.String("path", c.Path()),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"code":       codeInternal,
			"statusCode": http.StatusInternalServerError,
			"error":      map[string]any{"errors": []string{err.Error()}},
		})
	}
}

func invalidFields(field, msg string) *reprocess.FieldError {
	fe := &reprocess.FieldError{
		Status: http.StatusBadRequest,
		Code:   reprocess.CodeInvalidFields,
		Fields: map[string][]string{},
	}
	fe.Add(field, msg)
	return fe
}
