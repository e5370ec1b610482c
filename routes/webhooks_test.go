package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"picvault-backend/internal/config"
)

func newWebhookRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupWebhookRoutes(router, cfg, nil)
	return router
}

func TestWebhookRejectsMissingSecret(t *testing.T) {
	cfg := &config.Config{ClerkWebhookSecret: "whsec_test"}
	router := newWebhookRouter(cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader([]byte(`{"type":"user.created"}`)))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	cfg := &config.Config{BillingWebhookSecret: "whsec_test"}
	router := newWebhookRouter(cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing",
		bytes.NewReader([]byte(`{"type":"checkout.completed"}`)))
	req.Header.Set(WebhookSecretHeader, "whsec_other")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookUnavailableWhenUnconfigured(t *testing.T) {
	router := newWebhookRouter(&config.Config{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader([]byte(`{"type":"user.created"}`)))
	req.Header.Set(WebhookSecretHeader, "anything")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// Unknown billing event types are acknowledged so the sender stops retrying.
func TestBillingWebhookIgnoresUnknownEvents(t *testing.T) {
	cfg := &config.Config{BillingWebhookSecret: "whsec_test"}
	router := newWebhookRouter(cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing",
		bytes.NewReader([]byte(`{"type":"invoice.paid"}`)))
	req.Header.Set(WebhookSecretHeader, "whsec_test")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
