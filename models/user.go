package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClerkID       string             `bson:"clerk_id,omitempty" json:"clerk_id,omitempty"`
	Email         string             `bson:"email" json:"email"`
	Username      string             `bson:"username" json:"username"`
	FirstName     string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName      string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Photo         string             `bson:"photo,omitempty" json:"photo,omitempty"`
	PasswordHash  string             `bson:"password_hash,omitempty" json:"-"`
	PlanID        int                `bson:"plan_id" json:"plan_id"`
	CreditBalance int                `bson:"credit_balance" json:"credit_balance"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50,alphanum"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"omitempty,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	CreditBalance int    `json:"credit_balance"`
}

// ClerkWebhookEvent is the payload shape the auth provider posts on
// account lifecycle changes.
// Only the event type is validated at bind time; payload shapes vary by
// event, so handlers check the fields they consume.
type ClerkWebhookEvent struct {
	Type string           `json:"type" binding:"required"`
	Data ClerkWebhookUser `json:"data"`
}

type ClerkWebhookUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

// BillingWebhookEvent is posted by the billing provider after a completed
// checkout; credits are added to the referenced account.
type BillingWebhookEvent struct {
	Type string          `json:"type" binding:"required"`
	Data BillingCheckout `json:"data"`
}

type BillingCheckout struct {
	ClerkID string `json:"clerk_id"`
	Credits int    `json:"credits"`
	PlanID  int    `json:"plan_id"`
}
