package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"picvault-backend/internal/config"
	"picvault-backend/utils"
)

func TestIsPublicPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/health", true},
		{"/auth/login", true},
		{"/auth/register", true},
		{"/webhooks/clerk", true},
		{"/webhooks/billing", true},
		{"/images", false},
		{"/images/abc123", false},
		{"/upload", false},
		{"/users/me/images", false},
	}
	for _, tc := range cases {
		if got := isPublicPath(tc.path); got != tc.want {
			t.Errorf("isPublicPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func newGateRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(NewAuthMiddleware(cfg).Gate())

	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/", ok)
	router.GET("/images", ok)
	router.POST("/webhooks/clerk", ok)
	return router
}

func TestGateRejectsWithoutToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	router := newGateRouter(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGateAllowsPublicPaths(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	router := newGateRouter(t, cfg)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/"},
		{http.MethodPost, "/webhooks/clerk"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s %s: status = %d, want %d", tc.method, tc.path, w.Code, http.StatusOK)
		}
	}
}

func TestGateAcceptsValidToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	router := newGateRouter(t, cfg)

	token, err := utils.GenerateJWT("user-1", "ana", cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGateRejectsWrongSecret(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	router := newGateRouter(t, cfg)

	token, err := utils.GenerateJWT("user-1", "ana", "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGateAcceptsCookieToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	router := newGateRouter(t, cfg)

	token, err := utils.GenerateJWT("user-1", "ana", cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
