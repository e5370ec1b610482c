package routes

import (
	"net/http"
	"time"

	"picvault-backend/internal/config"
	"picvault-backend/models"
	"picvault-backend/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, mongoClient *mongo.Client) {
	auth := router.Group("/auth")

	db := mongoClient.Database(cfg.DBName)
	usersCollection := db.Collection("users")

	// Register endpoint
	auth.POST("/register", func(c *gin.Context) {
		var req models.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		// Check if username or email already exists
		var existingUser models.User
		err := usersCollection.FindOne(ctx, bson.M{
			"$or": []bson.M{{"username": req.Username}, {"email": req.Email}},
		}).Decode(&existingUser)
		if err == nil {
			utils.RespondWithError(c, http.StatusConflict, "account_exists",
				"Username or email already registered", nil)
			return
		}
		if err != mongo.ErrNoDocuments {
			utils.RespondWithInternalError(c, "Failed to check existing accounts", nil)
			return
		}

		hashedPassword, err := utils.HashPassword(req.Password, cfg.BcryptCost)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to process password", nil)
			return
		}

		now := time.Now()
		user := models.User{
			Username:      req.Username,
			Email:         req.Email,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			PasswordHash:  hashedPassword,
			PlanID:        1,
			CreditBalance: cfg.StartingCredits,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		result, err := usersCollection.InsertOne(ctx, user)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create user", nil)
			return
		}

		userID := result.InsertedID.(primitive.ObjectID).Hex()

		duration, _ := time.ParseDuration(cfg.JWTExpiresIn)
		token, err := utils.GenerateJWT(userID, req.Username, cfg.JWTSecret, duration)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate token", nil)
			return
		}

		c.JSON(http.StatusCreated, models.LoginResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(duration),
			User: models.UserInfo{
				ID:            userID,
				Username:      req.Username,
				Email:         req.Email,
				FirstName:     req.FirstName,
				LastName:      req.LastName,
				CreditBalance: cfg.StartingCredits,
			},
		})
	})

	// Login endpoint
	auth.POST("/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		var user models.User
		if err := usersCollection.FindOne(ctx, bson.M{"username": req.Username}).Decode(&user); err != nil {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		if !utils.CheckPassword(req.Password, user.PasswordHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		duration, _ := time.ParseDuration(cfg.JWTExpiresIn)
		token, err := utils.GenerateJWT(user.ID.Hex(), user.Username, cfg.JWTSecret, duration)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to generate token", nil)
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Token:     token,
			ExpiresAt: time.Now().Add(duration),
			User: models.UserInfo{
				ID:            user.ID.Hex(),
				Username:      user.Username,
				Email:         user.Email,
				FirstName:     user.FirstName,
				LastName:      user.LastName,
				CreditBalance: user.CreditBalance,
			},
		})
	})
}
