package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/http/middleware"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/repository"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/service/reprocess"
	"github.com/google/uuid"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	dateLayout   = "2006-01-02"
	maxRangeDays = 31
)

// parseProtocolFilter reads the listing query; every problem is reported at once.
func parseProtocolFilter(c echo.Context, cedenteID int64) (repository.ProtocolFilter, error) {
	fe := &reprocess.FieldError{Status: http.StatusBadRequest, Code: reprocess.CodeInvalidFields, Fields: map[string][]string{}}
	f := repository.ProtocolFilter{CedenteID: cedenteID}

	parseDate := func(name string) time.Time {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			fe.Add(name, name+" is required")
			return time.Time{}
		}
		d, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			fe.Add(name, name+" must be a date in YYYY-MM-DD format")
			return time.Time{}
		}
		return d
	}
	f.StartDate = parseDate("start_date")
	f.EndDate = parseDate("end_date")
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() {
		switch {
		case f.StartDate.After(f.EndDate):
			fe.Add("start_date", "start_date must not be after end_date")
		case f.EndDate.Sub(f.StartDate) > maxRangeDays*24*time.Hour:
			fe.Add("end_date", fmt.Sprintf("date range must not exceed %d days", maxRangeDays))
		}
	}

	if raw := strings.TrimSpace(c.QueryParam("product")); raw != "" {
		if p, ok := model.ParseProduct(raw); ok {
			f.Product = p
		} else {
			fe.Add("product", "product must be one of: boleto, pagamento, pix")
		}
	}
	if raw := strings.TrimSpace(c.QueryParam("type")); raw != "" {
		if t, ok := model.ParseReprocessType(raw); ok {
			f.Type = t.String()
		} else {
			fe.Add("type", "type must be one of: disponivel, cancelado, pago")
		}
	}
	f.Kind = strings.TrimSpace(c.QueryParam("kind"))

	// id=1,2&id=3
	for _, v := range c.QueryParams()["id"] {
		for _, raw := range strings.Split(v, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if n, err := strconv.ParseInt(raw, 10, 64); err != nil || n <= 0 {
				fe.Add("id", fmt.Sprintf("id %q is not a valid positive integer", raw))
				continue
			}
			f.ServicoIDs = append(f.ServicoIDs, raw)
		}
	}

	if err := fe.OrNil(); err != nil {
		return repository.ProtocolFilter{}, err
	}
	return f, nil
}

func listProtocolsHandler(reader repository.ProtocolsReader, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ced, ok := middleware.CedenteFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, messageBody("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized"))
		}

		f, err := parseProtocolFilter(c, ced.ID)
		if err != nil {
			return writeError(c, log, err)
		}

		recs, err := reader.FindAll(c.Request().Context(), f)
		if err != nil {
			return writeError(c, log, fmt.Errorf("list protocols: %w", err))
		}
		return c.JSON(http.StatusOK, recs)
	}
}

func getProtocolHandler(reader repository.ProtocolsReader, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ced, ok := middleware.CedenteFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, messageBody("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized"))
		}

		id := strings.TrimSpace(c.Param("id"))
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, log, invalidFields("id", "id must be a valid UUID"))
		}

		rec, err := reader.FindByID(c.Request().Context(), id, ced.ID)
		if err != nil {
			return writeError(c, log, fmt.Errorf("get protocol: %w", err))
		}
		if rec == nil {
			return c.JSON(http.StatusNotFound, messageBody(codeNotFound, http.StatusNotFound, "protocol not found"))
		}
		return c.JSON(http.StatusOK, rec)
	}
}
