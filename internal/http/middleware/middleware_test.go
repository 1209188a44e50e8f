package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/alicebob/miniredis/v2"
	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type fakeCedentes struct {
	ced *model.Cedente
	err error
	got []string
}

func (f *fakeCedentes) GetByCredentials(_ context.Context, shCNPJ, shToken, cedCNPJ, cedToken string) (*model.Cedente, error) {
	f.got = []string{shCNPJ, shToken, cedCNPJ, cedToken}
	return f.ced, f.err
}

func (f *fakeCedentes) GetByID(context.Context, int64) (*model.Cedente, error) { return f.ced, f.err }

func okHandler(c echo.Context) error {
	ced, _ := CedenteFromCtx(c)
	return c.String(http.StatusOK, ced.CNPJ)
}

func authRequest(headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/reenviar", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

var allHeaders = map[string]string{
	HeaderSoftwareHouseCNPJ:  "11111111000111",
	HeaderSoftwareHouseToken: "sh-token",
	HeaderCedenteCNPJ:        "22222222000122",
	HeaderCedenteToken:       "ced-token",
}

func TestCedenteAuth(t *testing.T) {
	active := &model.Cedente{ID: 3, CNPJ: "22222222000122", Status: model.StatusAtivo}
	inactive := &model.Cedente{ID: 4, Status: model.StatusInativo}

	tests := []struct {
		name    string
		headers map[string]string
		repo    *fakeCedentes
		want    int
	}{
		{"ok", allHeaders, &fakeCedentes{ced: active}, http.StatusOK},
		{"missing header", map[string]string{HeaderCedenteCNPJ: "x"}, &fakeCedentes{ced: active}, http.StatusUnauthorized},
		{"unknown", allHeaders, &fakeCedentes{}, http.StatusUnauthorized},
		{"inactive", allHeaders, &fakeCedentes{ced: inactive}, http.StatusUnauthorized},
		{"lookup error", allHeaders, &fakeCedentes{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(authRequest(tt.headers), rec)

			if err := CedenteAuthMiddleware(tt.repo, nil)(okHandler)(c); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
			if tt.want == http.StatusOK && rec.Body.String() != active.CNPJ {
				t.Fatalf("cedente not propagated: %q", rec.Body)
			}
		})
	}
}

func TestRateLimitPerCedente(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	mw := RateLimitMiddleware(RateLimitConfig{
		Redis:          rdb,
		RPS:            2,
		Window:         time.Second,
		RetryAfterHint: true,
		Now:            func() time.Time { return now },
	})

	call := func(cedenteID int64) *httptest.ResponseRecorder {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/protocolo", nil), rec)
		c.Set(ctxCedente, model.Cedente{ID: cedenteID})
		if err := mw(okHandler)(c); err != nil {
			t.Fatal(err)
		}
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := call(1); rec.Code != http.StatusOK {
			t.Fatalf("request %d limited early: %d", i, rec.Code)
		}
	}
	rec := call(1)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}

	if rec := call(2); rec.Code != http.StatusOK {
		t.Fatalf("other cedente limited: %d", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := call(1); rec.Code != http.StatusOK {
		t.Fatalf("next window still limited: %d", rec.Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	mw := RateLimitMiddleware(RateLimitConfig{Redis: rdb, RPS: 1})
	for i := 0; i < 3; i++ {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		c.Set(ctxCedente, model.Cedente{ID: 1})
		if err := mw(okHandler)(c); err != nil {
			t.Fatal(err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 when redis is down", rec.Code)
		}
	}
}
