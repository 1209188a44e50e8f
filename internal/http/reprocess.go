package http

import (
	"context"
	"net/http"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/http/middleware"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/service/reprocess"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const headerIdempotentReplay = "X-Idempotent-Replay"

// Reprocessor is the engine entry point used by the handler.
type Reprocessor interface {
	Reprocess(ctx context.Context, cedente model.Cedente, cmd reprocess.Command) (reprocess.Outcome, error)
}

func reprocessHandler(svc Reprocessor, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		// auth (set by CedenteAuthMiddleware)
		ced, ok := middleware.CedenteFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, messageBody("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized"))
		}

		var req reprocess.Request
		if err := c.Bind(&req); err != nil {
			return writeError(c, log, invalidFields("body", "request body must be a valid JSON object"))
		}
		cmd, err := req.Parse()
		if err != nil {
			return writeError(c, log, err)
		}

		out, err := svc.Reprocess(c.Request().Context(), ced, cmd)
		if err != nil {
			return writeError(c, log, err)
		}

		if out.Cached {
			c.Response().Header().Set(headerIdempotentReplay, "true")
		}
		return c.JSONBlob(http.StatusOK, out.Body)
	}
}
