package routes

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"picvault-backend/internal/config"
	"picvault-backend/internal/logger"
	"picvault-backend/models"
	"picvault-backend/services"
	"picvault-backend/utils"
)

// WebhookSecretHeader carries the shared secret external senders must present.
const WebhookSecretHeader = "X-Webhook-Secret"

func SetupWebhookRoutes(router *gin.Engine, cfg *config.Config, users *services.UserService) {
	webhooks := router.Group("/webhooks")

	// Auth provider account lifecycle events.
	webhooks.POST("/clerk", func(c *gin.Context) {
		if !verifyWebhookSecret(c, cfg.ClerkWebhookSecret) {
			return
		}

		var event models.ClerkWebhookEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			utils.RespondWithBadRequest(c, "Invalid webhook payload", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		switch event.Type {
		case "user.created", "user.updated":
			if event.Data.ID == "" {
				utils.RespondWithBadRequest(c, "Missing user id in webhook payload", nil)
				return
			}
			if err := users.UpsertClerkUser(ctx, event.Data, cfg.StartingCredits); err != nil {
				logger.Error("clerk user sync failed", "clerk_id", event.Data.ID, "error", err)
				utils.RespondWithInternalError(c, "Failed to sync user", nil)
				return
			}
		case "user.deleted":
			if event.Data.ID == "" {
				utils.RespondWithBadRequest(c, "Missing user id in webhook payload", nil)
				return
			}
			if err := users.DeleteUserByClerkID(ctx, event.Data.ID); err != nil && err != services.ErrUserNotFound {
				logger.Error("clerk user delete failed", "clerk_id", event.Data.ID, "error", err)
				utils.RespondWithInternalError(c, "Failed to delete user", nil)
				return
			}
		default:
			// Unknown event types are acknowledged so the sender stops retrying.
			logger.Debug("ignoring webhook event", "type", event.Type)
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	})

	// Billing checkout events credit the purchasing account.
	webhooks.POST("/billing", func(c *gin.Context) {
		if !verifyWebhookSecret(c, cfg.BillingWebhookSecret) {
			return
		}

		var event models.BillingWebhookEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			utils.RespondWithBadRequest(c, "Invalid webhook payload", gin.H{"error": err.Error()})
			return
		}

		if event.Type != "checkout.completed" {
			logger.Debug("ignoring webhook event", "type", event.Type)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		if event.Data.ClerkID == "" || event.Data.Credits <= 0 {
			utils.RespondWithBadRequest(c, "Invalid checkout payload",
				gin.H{"clerk_id": event.Data.ClerkID, "credits": event.Data.Credits})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		if err := users.AddCredits(ctx, event.Data.ClerkID, event.Data.Credits, event.Data.PlanID); err != nil {
			logger.Error("billing credit failed", "clerk_id", event.Data.ClerkID, "error", err)
			utils.RespondWithInternalError(c, "Failed to apply credits", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	})
}

func verifyWebhookSecret(c *gin.Context, secret string) bool {
	if secret == "" {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "webhook_not_configured",
			"Webhook secret is not configured", nil)
		c.Abort()
		return false
	}

	provided := c.GetHeader(WebhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
		utils.RespondWithUnauthorized(c, "Invalid webhook signature")
		c.Abort()
		return false
	}
	return true
}
