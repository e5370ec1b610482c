package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picvault-backend/models"
	"picvault-backend/services"
)

// stubStore is a canned-response ImageStore for handler tests.
type stubStore struct {
	view      *models.ImageView
	page      *models.ImagePage
	err       error
	deleteErr error

	deletedID string
}

func (s *stubStore) AddImage(ctx context.Context, req models.AddImageRequest, userID string) (*models.ImageView, error) {
	return s.view, s.err
}

func (s *stubStore) UpdateImage(ctx context.Context, imageID string, req models.UpdateImageRequest, userID string) (*models.ImageView, error) {
	return s.view, s.err
}

func (s *stubStore) DeleteImage(ctx context.Context, imageID string) error {
	s.deletedID = imageID
	return s.deleteErr
}

func (s *stubStore) GetImageByID(ctx context.Context, imageID string) (*models.ImageView, error) {
	return s.view, s.err
}

func (s *stubStore) ListImages(ctx context.Context, q models.ListImagesQuery) (*models.ImagePage, error) {
	return s.page, s.err
}

func (s *stubStore) ListUserImages(ctx context.Context, q models.ListUserImagesQuery) (*models.ImagePage, error) {
	return s.page, s.err
}

func newImageRouter(store ImageStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "507f1f77bcf86cd799439011")
		c.Next()
	})
	SetupImageRoutes(router, store, nil, nil)
	return router
}

func validImageBody(t *testing.T) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(models.AddImageRequest{
		Title:              "sunset",
		TransformationType: "restore",
		PublicID:           "picvault/abc",
		SecureURL:          "https://res.example.com/abc.jpg",
		Width:              800,
		Height:             600,
		Path:               "/",
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestAddImageCreated(t *testing.T) {
	store := &stubStore{view: &models.ImageView{ID: "abc", Title: "sunset"}}
	router := newImageRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/images", validImageBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var view models.ImageView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "sunset", view.Title)
}

func TestAddImageRejectsInvalidBody(t *testing.T) {
	router := newImageRouter(&stubStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/images", bytes.NewReader([]byte(`{"title":""}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddImageUnknownUser(t *testing.T) {
	store := &stubStore{err: services.ErrUserNotFound}
	router := newImageRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/images", validImageBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateImageNotOwner(t *testing.T) {
	store := &stubStore{err: services.ErrNotImageOwner}
	router := newImageRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/images/abc123", validImageBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateImageNotFound(t *testing.T) {
	store := &stubStore{err: services.ErrImageNotFound}
	router := newImageRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/images/abc123", validImageBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Delete navigates back to the gallery whether or not the store succeeded.
func TestDeleteImageAlwaysRedirects(t *testing.T) {
	for name, store := range map[string]*stubStore{
		"success": {},
		"failure": {deleteErr: services.ErrImageNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			router := newImageRouter(store)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodDelete, "/images/abc123", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/", w.Header().Get("Location"))
			assert.Equal(t, "abc123", store.deletedID)
		})
	}
}

func TestListImagesServesPage(t *testing.T) {
	saved := int64(25)
	store := &stubStore{page: &models.ImagePage{
		Data:        []models.ImageView{{ID: "abc", Title: "sunset"}},
		TotalPages:  3,
		SavedImages: &saved,
	}}
	router := newImageRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/images?page=2&limit=9", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var page models.ImagePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 3, page.TotalPages)
	require.NotNil(t, page.SavedImages)
	assert.Equal(t, int64(25), *page.SavedImages)
	assert.Len(t, page.Data, 1)
}

func TestListOwnImages(t *testing.T) {
	store := &stubStore{page: &models.ImagePage{
		Data:       []models.ImageView{{ID: "abc"}},
		TotalPages: 1,
	}}
	router := newImageRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me/images", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var page models.ImagePage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Nil(t, page.SavedImages)
	assert.Len(t, page.Data, 1)
}
