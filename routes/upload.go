package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"picvault-backend/internal/config"
	"picvault-backend/internal/logger"
	"picvault-backend/internal/media"
	"picvault-backend/internal/telemetry"
	"picvault-backend/middleware"
	"picvault-backend/models"
	"picvault-backend/services"
	"picvault-backend/utils"
)

func SetupUploadRoutes(router *gin.Engine, cfg *config.Config, mediaClient *media.Client, users *services.UserService, metrics *telemetry.Metrics) {
	upload := router.Group("/upload")

	// Signature endpoint for the hosted upload widget. The browser uploads
	// straight to the media host; we only sign the parameters.
	upload.POST("/signature", func(c *gin.Context) {
		params, err := mediaClient.SignUploadParams(time.Now().Unix())
		if err != nil {
			logger.Error("failed to sign upload params", "error", err)
			utils.RespondWithInternalError(c, "Failed to sign upload parameters", nil)
			return
		}
		c.JSON(http.StatusOK, params)
	})

	// Server-side upload for clients that cannot use the widget.
	upload.POST("", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "Missing file", gin.H{"error": err.Error()})
			return
		}

		if fileHeader.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
				"File exceeds the maximum allowed size", gin.H{"max_bytes": cfg.MaxFileSize})
			return
		}

		if !utils.IsValidImageType(fileHeader.Header.Get("Content-Type")) {
			utils.RespondWithBadRequest(c, "Unsupported file type",
				gin.H{"allowed": []string{"image/jpeg", "image/png", "image/gif", "image/webp"}})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read uploaded file", nil)
			return
		}
		defer file.Close()

		ctx, cancel := utils.WithLongTimeout(c.Request.Context())
		defer cancel()

		userID := middleware.GetUserID(c)
		if err := users.DeductCredit(ctx, userID); err != nil {
			if errors.Is(err, services.ErrInsufficientCredits) {
				metrics.RecordUpload(false)
				utils.RespondWithError(c, http.StatusPaymentRequired, "insufficient_credits",
					"Not enough credits to upload", nil)
				return
			}
			logger.Error("credit deduction failed", "user_id", userID, "error", err)
			utils.RespondWithInternalError(c, "Failed to charge upload credit", nil)
			return
		}

		info, err := mediaClient.Upload(ctx, file)
		if err != nil {
			logger.Error("upload to media host failed", "user_id", userID, "error", err)
			metrics.RecordUpload(false)
			utils.RespondWithInternalError(c, "Upload failed", nil)
			return
		}

		metrics.RecordUpload(true)
		c.JSON(http.StatusOK, info)
	})

	// Widget completion callback. The browser posts back the asset fields it
	// received from the media host; we validate the shape before the client
	// persists them through the image routes.
	upload.POST("/complete", func(c *gin.Context) {
		var payload models.UploadResultPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			utils.RespondWithBadRequest(c, "Invalid upload result", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		userID := middleware.GetUserID(c)
		if err := users.DeductCredit(ctx, userID); err != nil {
			if errors.Is(err, services.ErrInsufficientCredits) {
				utils.RespondWithError(c, http.StatusPaymentRequired, "insufficient_credits",
					"Not enough credits to upload", nil)
				return
			}
			logger.Error("credit deduction failed", "user_id", userID, "error", err)
			utils.RespondWithInternalError(c, "Failed to charge upload credit", nil)
			return
		}

		metrics.RecordUpload(true)
		c.JSON(http.StatusOK, payload)
	})
}
