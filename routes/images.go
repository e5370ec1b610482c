package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"picvault-backend/internal/logger"
	"picvault-backend/internal/telemetry"
	"picvault-backend/middleware"
	"picvault-backend/models"
	"picvault-backend/services"
	"picvault-backend/utils"
)

// ImageStore is the data-access surface the handlers depend on.
type ImageStore interface {
	AddImage(ctx context.Context, req models.AddImageRequest, userID string) (*models.ImageView, error)
	UpdateImage(ctx context.Context, imageID string, req models.UpdateImageRequest, userID string) (*models.ImageView, error)
	DeleteImage(ctx context.Context, imageID string) error
	GetImageByID(ctx context.Context, imageID string) (*models.ImageView, error)
	ListImages(ctx context.Context, q models.ListImagesQuery) (*models.ImagePage, error)
	ListUserImages(ctx context.Context, q models.ListUserImagesQuery) (*models.ImagePage, error)
}

func SetupImageRoutes(router *gin.Engine, store ImageStore, reval *services.Revalidator, metrics *telemetry.Metrics) {
	images := router.Group("/images")

	images.POST("", HandleAddImage(store, metrics))
	images.GET("", HandleListImages(store, reval))
	images.GET("/:id", HandleGetImage(store))
	images.PUT("/:id", HandleUpdateImage(store, metrics))
	images.DELETE("/:id", HandleDeleteImage(store, metrics))

	router.GET("/users/me/images", HandleListOwnImages(store))
}

// HandleAddImage persists a new image owned by the session user.
func HandleAddImage(store ImageStore, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AddImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		view, err := store.AddImage(ctx, req, middleware.GetUserID(c))
		if err != nil {
			metrics.RecordImageOp("add", false)
			respondImageError(c, err)
			return
		}

		metrics.RecordImageOp("add", true)
		c.JSON(http.StatusCreated, view)
	}
}

// HandleUpdateImage replaces the mutable fields of an owned image.
func HandleUpdateImage(store ImageStore, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		view, err := store.UpdateImage(ctx, c.Param("id"), req, middleware.GetUserID(c))
		if err != nil {
			metrics.RecordImageOp("update", false)
			respondImageError(c, err)
			return
		}

		metrics.RecordImageOp("update", true)
		c.JSON(http.StatusOK, view)
	}
}

// HandleDeleteImage deletes best-effort and always navigates the caller
// back to the gallery. Failures are logged, never surfaced.
func HandleDeleteImage(store ImageStore, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		if err := store.DeleteImage(ctx, c.Param("id")); err != nil {
			logger.Error("image delete failed", "image_id", c.Param("id"), "error", err)
			metrics.RecordImageOp("delete", false)
		} else {
			metrics.RecordImageOp("delete", true)
		}

		c.Redirect(http.StatusSeeOther, "/")
	}
}

// HandleGetImage fetches one image with its owner populated.
func HandleGetImage(store ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		view, err := store.GetImageByID(ctx, c.Param("id"))
		if err != nil {
			respondImageError(c, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// HandleListImages serves the searchable gallery page. Responses are cached
// per request path until a mutation invalidates them.
func HandleListImages(store ImageStore, reval *services.Revalidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		cachePath := c.Request.URL.RequestURI()
		if payload, ok := reval.CachedView(ctx, cachePath); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
			return
		}

		page, err := store.ListImages(ctx, models.ListImagesQuery{
			Limit:       queryInt(c, "limit", 0),
			Page:        queryInt(c, "page", 1),
			SearchQuery: c.Query("query"),
		})
		if err != nil {
			respondImageError(c, err)
			return
		}

		payload, err := json.Marshal(page)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to serialize gallery page", nil)
			return
		}

		reval.StoreView(ctx, cachePath, payload)
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
	}
}

// HandleListOwnImages lists the session user's images.
func HandleListOwnImages(store ImageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		page, err := store.ListUserImages(ctx, models.ListUserImagesQuery{
			Limit:  queryInt(c, "limit", 0),
			Page:   queryInt(c, "page", 1),
			UserID: middleware.GetUserID(c),
		})
		if err != nil {
			respondImageError(c, err)
			return
		}

		c.JSON(http.StatusOK, page)
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return value
}

func respondImageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithNotFound(c, "User not found")
	case errors.Is(err, services.ErrImageNotFound):
		utils.RespondWithNotFound(c, "Image not found")
	case errors.Is(err, services.ErrNotImageOwner):
		utils.RespondWithForbidden(c, "You do not own this image")
	default:
		logger.Error("image operation failed", "error", err)
		utils.RespondWithInternalError(c, "Operation failed", nil)
	}
}
