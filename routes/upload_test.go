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

func newUploadRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupUploadRoutes(router, &config.Config{MaxFileSize: 1024}, nil, nil, nil)
	return router
}

func TestUploadRequiresFile(t *testing.T) {
	router := newUploadRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadCompleteRejectsBadPayload(t *testing.T) {
	router := newUploadRouter()

	for name, body := range map[string]string{
		"empty":        `{}`,
		"zero width":   `{"public_id":"picvault/abc","secure_url":"https://res.example.com/abc.jpg","width":0,"height":600}`,
		"not a url":    `{"public_id":"picvault/abc","secure_url":"nope","width":800,"height":600}`,
		"no public id": `{"secure_url":"https://res.example.com/abc.jpg","width":800,"height":600}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/upload/complete",
				bytes.NewReader([]byte(body)))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
