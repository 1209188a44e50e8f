package middleware

import (
	"net/http"
	"strings"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/repository"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	HeaderSoftwareHouseCNPJ  = "cnpj-sh"
	HeaderSoftwareHouseToken = "token-sh"
	HeaderCedenteCNPJ        = "cnpj-cedente"
	HeaderCedenteToken       = "token-cedente"

	ctxCedente = "cedente"
)

// CedenteFromCtx extracts the cedente set by CedenteAuthMiddleware.
func CedenteFromCtx(c echo.Context) (model.Cedente, bool) {
	ced, ok := c.Get(ctxCedente).(model.Cedente)
	return ced, ok && ced.ID > 0
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, map[string]any{
		"code":       "UNAUTHORIZED",
		"statusCode": http.StatusUnauthorized,
		"message":    msg,
	})
}

// CedenteAuthMiddleware authenticates the software house and the cedente from the
// four credential headers. Both must exist and be active.
func CedenteAuthMiddleware(cedentes repository.CedentesRepository, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			shCNPJ := strings.TrimSpace(h.Get(HeaderSoftwareHouseCNPJ))
			shToken := strings.TrimSpace(h.Get(HeaderSoftwareHouseToken))
			cedCNPJ := strings.TrimSpace(h.Get(HeaderCedenteCNPJ))
			cedToken := strings.TrimSpace(h.Get(HeaderCedenteToken))
			if shCNPJ == "" || shToken == "" || cedCNPJ == "" || cedToken == "" {
				return unauthorized(c, "missing authentication headers")
			}

			ced, err := cedentes.GetByCredentials(c.Request().Context(), shCNPJ, shToken, cedCNPJ, cedToken)
			if err != nil {
				log.Error("cedente lookup failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, map[string]any{
					"code":       "INTERNAL_SERVER_ERROR",
					"statusCode": http.StatusInternalServerError,
					"error":      map[string]any{"errors": []string{"authentication unavailable"}},
				})
			}
			if ced == nil || ced.Status != model.StatusAtivo {
				return unauthorized(c, "invalid credentials")
			}
			c.Set(ctxCedente, *ced)
			return next(c)
		}
	}
}
