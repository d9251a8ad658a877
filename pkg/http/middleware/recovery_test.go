package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRecoverDefaultsTo500(t *testing.T) {
	e := echo.New()
	e.Use(Recover(nil, nil))
	e.GET("/boom", func(c echo.Context) error { panic("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRecoverUsesResponder(t *testing.T) {
	e := echo.New()
	var got any
	e.Use(Recover(nil, func(c echo.Context, r any) error {
		got = r
		return c.JSON(http.StatusOK, map[string]string{"response": "sorry"})
	}))
	e.POST("/api/chat", func(c echo.Context) error { panic("nil map") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sorry") {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
	if got != "nil map" {
		t.Fatalf("recovered value = %v", got)
	}
}
