package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
)

const testSecret = "test-secret"

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
	})
	return r
}

func doBearerRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	user := &models.User{Base: models.Base{ID: "0192f0c0-0000-7000-8000-000000000001"}, Email: "owner@example.com"}

	valid, err := GenerateAccessToken(user, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	expired, err := GenerateAccessToken(user, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	foreign, err := GenerateAccessToken(user, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	otherIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{
		UserID:           user.ID,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid_token", "Bearer " + valid, http.StatusOK},
		{"missing_header", "", http.StatusUnauthorized},
		{"wrong_scheme", "Token " + valid, http.StatusUnauthorized},
		{"expired_token", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong_secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"wrong_issuer", "Bearer " + otherIssuer, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doBearerRequest(setupAuthRouter(), tt.header)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := parseBody(t, rec)
			if tt.wantStatus == http.StatusOK {
				if body["user_id"] != user.ID {
					t.Errorf("user_id = %v, want %s", body["user_id"], user.ID)
				}
				return
			}
			errObj, ok := body["error"].(map[string]interface{})
			if !ok || errObj["code"] != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED error, got %v", body)
			}
		})
	}
}
