package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app_error", apperrors.ErrInvoiceAlreadyPaid, http.StatusConflict, "INVOICE_ALREADY_PAID"},
		{"wrapped_app_error", apperrors.Wrap(apperrors.ErrInternalServer, errors.New("disk full")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain_error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestLogging(), ErrorHandler())
			r.GET("/fail", func(c *gin.Context) { _ = c.Error(tt.err) })

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			errObj, _ := parseBody(t, rec)["error"].(map[string]interface{})
			if errObj["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", errObj["code"], tt.wantCode)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging(), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("unexpected") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", http.NoBody))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected a request id header")
	}
}

func TestRequestLoggingKeepsIncomingID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	const incoming = "0192f0c0-0000-7000-8000-0000000000aa"
	req := httptest.NewRequest(http.MethodGet, "/ok", http.NoBody)
	req.Header.Set(requestIDHeader, incoming)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != incoming {
		t.Errorf("request id = %q, want %q", got, incoming)
	}

	req = httptest.NewRequest(http.MethodGet, "/ok", http.NoBody)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got == "not-a-uuid" || got == "" {
		t.Errorf("expected a generated request id, got %q", got)
	}
}
