package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"picvault-backend/models"
)

var ErrInsufficientCredits = errors.New("insufficient credit balance")

type UserService struct {
	users *mongo.Collection
}

func NewUserService(db *mongo.Database) *UserService {
	return &UserService{
		users: db.Collection("users"),
	}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := s.users.InsertOne(ctx, user)
	if err != nil {
		return err
	}

	user.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"clerk_id": clerkID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpsertClerkUser syncs an auth-provider account into the users collection.
// Created and updated events share this path.
func (s *UserService) UpsertClerkUser(ctx context.Context, data models.ClerkWebhookUser, startingCredits int) error {
	now := time.Now()

	update := bson.M{
		"$set": bson.M{
			"email":      data.Email,
			"username":   data.Username,
			"first_name": data.FirstName,
			"last_name":  data.LastName,
			"photo":      data.ImageURL,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"clerk_id":       data.ID,
			"credit_balance": startingCredits,
			"plan_id":        1,
			"created_at":     now,
		},
	}

	_, err := s.users.UpdateOne(ctx, bson.M{"clerk_id": data.ID}, update, options.Update().SetUpsert(true))
	return err
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.users.DeleteOne(ctx, bson.M{"clerk_id": clerkID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddCredits applies a billing top-up to the referenced account.
func (s *UserService) AddCredits(ctx context.Context, clerkID string, credits, planID int) error {
	update := bson.M{
		"$inc": bson.M{"credit_balance": credits},
		"$set": bson.M{"updated_at": time.Now()},
	}
	if planID > 0 {
		update["$set"].(bson.M)["plan_id"] = planID
	}

	result, err := s.users.UpdateOne(ctx, bson.M{"clerk_id": clerkID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeductCredit charges one credit for a completed upload. The balance check
// is part of the write filter so the charge is atomic.
func (s *UserService) DeductCredit(ctx context.Context, userID string) error {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}

	result, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id, "credit_balance": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"credit_balance": -1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrInsufficientCredits
	}
	return nil
}
