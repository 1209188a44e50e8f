package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/dispatcher"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/http/middleware"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/repository"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/service/reprocess"
)

type stubCedentes struct{ ced *model.Cedente }

func (s stubCedentes) GetByCredentials(context.Context, string, string, string, string) (*model.Cedente, error) {
	return s.ced, nil
}
func (s stubCedentes) GetByID(context.Context, int64) (*model.Cedente, error) { return s.ced, nil }

type stubReprocessor struct {
	out     reprocess.Outcome
	err     error
	gotCed  model.Cedente
	gotCmd  reprocess.Command
	invoked bool
}

func (s *stubReprocessor) Reprocess(_ context.Context, ced model.Cedente, cmd reprocess.Command) (reprocess.Outcome, error) {
	s.invoked = true
	s.gotCed, s.gotCmd = ced, cmd
	return s.out, s.err
}

type stubProtocols struct {
	recs      []model.WebhookReprocessado
	gotFilter repository.ProtocolFilter
	byID      map[string]model.WebhookReprocessado
}

func (s *stubProtocols) FindAll(_ context.Context, f repository.ProtocolFilter) ([]model.WebhookReprocessado, error) {
	s.gotFilter = f
	return s.recs, nil
}

func (s *stubProtocols) FindByID(_ context.Context, id string, cedenteID int64) (*model.WebhookReprocessado, error) {
	rec, ok := s.byID[id]
	if !ok || rec.CedenteID != cedenteID {
		return nil, nil
	}
	return &rec, nil
}

var testCedente = &model.Cedente{ID: 7, CNPJ: "22222222000122", Status: model.StatusAtivo}

func do(t *testing.T, d Deps, method, target, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	if d.Cedentes == nil {
		d.Cedentes = stubCedentes{ced: testCedente}
	}
	e := newRouter(d)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set(middleware.HeaderSoftwareHouseCNPJ, "11111111000111")
		req.Header.Set(middleware.HeaderSoftwareHouseToken, "sh")
		req.Header.Set(middleware.HeaderCedenteCNPJ, testCedente.CNPJ)
		req.Header.Set(middleware.HeaderCedenteToken, "ced")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestReenviar_Success(t *testing.T) {
	body := []byte(`{"message":"notifications reprocessed successfully","protocolos":["p"],"total":2,"timestamp":"2025-01-01T00:00:00.000Z","product":"boleto"}`)
	svc := &stubReprocessor{out: reprocess.Outcome{Body: body, Cached: true}}

	rec := do(t, Deps{Reprocess: svc}, http.MethodPost, "/reenviar",
		`{"product":"boleto","id":["2","1"],"kind":"webhook","type":"disponivel"}`, true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if rec.Body.String() != string(body) {
		t.Fatalf("body not passed through verbatim: %s", rec.Body)
	}
	if rec.Header().Get(headerIdempotentReplay) != "true" {
		t.Fatal("missing replay header")
	}
	if svc.gotCed.ID != 7 || svc.gotCmd.Product != model.ProductBoleto || len(svc.gotCmd.IDs) != 2 {
		t.Fatalf("engine got %+v / %+v", svc.gotCed, svc.gotCmd)
	}
}

func TestReenviar_Unauthorized(t *testing.T) {
	svc := &stubReprocessor{}
	rec := do(t, Deps{Reprocess: svc}, http.MethodPost, "/reenviar", `{}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if m := decodeMap(t, rec); m["code"] != "UNAUTHORIZED" {
		t.Fatalf("body = %v", m)
	}
	if svc.invoked {
		t.Fatal("engine must not run without auth")
	}
}

func TestReenviar_InvalidFields(t *testing.T) {
	svc := &stubReprocessor{}
	rec := do(t, Deps{Reprocess: svc}, http.MethodPost, "/reenviar",
		`{"product":"ted","id":[],"kind":"webhook","type":"pago"}`, true)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decodeMap(t, rec)
	if m["code"] != "INVALID_FIELDS" || m["statusCode"] != float64(400) {
		t.Fatalf("body = %v", m)
	}
	props := m["error"].(map[string]any)["properties"].(map[string]any)
	if _, ok := props["product"]; !ok {
		t.Fatalf("missing product error: %v", props)
	}
	if _, ok := props["id"]; !ok {
		t.Fatalf("missing id error: %v", props)
	}
	if svc.invoked {
		t.Fatal("engine must not run on invalid input")
	}
}

func TestReenviar_MalformedJSON(t *testing.T) {
	rec := do(t, Deps{Reprocess: &stubReprocessor{}}, http.MethodPost, "/reenviar", `{"id":`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReenviar_ErrorMapping(t *testing.T) {
	unprocessable := &reprocess.FieldError{Status: 422, Code: reprocess.CodeUnprocessable, Fields: map[string][]string{
		"id": {"instrument 1 has no notification configuration"},
	}}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unprocessable", unprocessable, http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"provider", dispatcher.ErrUnavailable, http.StatusBadRequest, "NOTIFICATION_DISPATCH_FAILED"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, Deps{Reprocess: &stubReprocessor{err: tt.err}}, http.MethodPost, "/reenviar",
				`{"product":"pix","id":["1"],"kind":"webhook","type":"pago"}`, true)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			m := decodeMap(t, rec)
			if m["code"] != tt.code {
				t.Fatalf("code = %v", m["code"])
			}
			if tt.code == "NOTIFICATION_DISPATCH_FAILED" && m["message"] != "unable to generate the notification, try again later" {
				t.Fatalf("message = %v", m["message"])
			}
			if tt.code == "INTERNAL_SERVER_ERROR" {
				errs := m["error"].(map[string]any)["errors"].([]any)
				if len(errs) != 1 || errs[0] != "boom" {
					t.Fatalf("errors = %v", errs)
				}
			}
		})
	}
}

func TestListProtocols(t *testing.T) {
	store := &stubProtocols{recs: []model.WebhookReprocessado{{ID: "a", CedenteID: 7, Protocolo: "p1"}}}
	rec := do(t, Deps{Protocols: store}, http.MethodGet,
		"/protocolo?start_date=2025-01-01&end_date=2025-01-31&product=pix&id=1,2&id=3&kind=webhook&type=pago", "", true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	f := store.gotFilter
	if f.CedenteID != 7 || f.Product != model.ProductPix || f.Kind != "webhook" || f.Type != "pago" {
		t.Fatalf("filter = %+v", f)
	}
	if strings.Join(f.ServicoIDs, ",") != "1,2,3" {
		t.Fatalf("ids = %v", f.ServicoIDs)
	}
	if !f.StartDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %s", f.StartDate)
	}
}

func TestListProtocols_InvalidRange(t *testing.T) {
	tests := map[string]string{
		"missing":  "/protocolo",
		"reversed": "/protocolo?start_date=2025-02-01&end_date=2025-01-01",
		"too long": "/protocolo?start_date=2025-01-01&end_date=2025-03-01",
		"format":   "/protocolo?start_date=01/01/2025&end_date=2025-01-02",
	}
	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, Deps{Protocols: &stubProtocols{}}, http.MethodGet, target, "", true)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
		})
	}
}

func TestGetProtocol_TenantScoped(t *testing.T) {
	own := "6f1c1f0e-1b7a-4d8e-9a55-3b0f2a9a1c01"
	foreign := "0b7e5d9a-2c4f-4a1e-8f3b-7d6c5b4a3921"
	store := &stubProtocols{byID: map[string]model.WebhookReprocessado{
		own:     {ID: own, CedenteID: 7},
		foreign: {ID: foreign, CedenteID: 99},
	}}

	if rec := do(t, Deps{Protocols: store}, http.MethodGet, "/protocolo/"+own, "", true); rec.Code != http.StatusOK {
		t.Fatalf("own record status = %d", rec.Code)
	}
	if rec := do(t, Deps{Protocols: store}, http.MethodGet, "/protocolo/"+foreign, "", true); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign record status = %d, want 404", rec.Code)
	}
	if rec := do(t, Deps{Protocols: store}, http.MethodGet, "/protocolo/not-a-uuid", "", true); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	rec := do(t, Deps{}, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body)
	}
}
