package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Image represents one uploaded or transformed asset. The public_id keys
// the asset on the media host; author references the owning user.
type Image struct {
	ID                 primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Title              string                 `bson:"title" json:"title"`
	Author             primitive.ObjectID     `bson:"author" json:"author"`
	TransformationType string                 `bson:"transformation_type" json:"transformation_type"`
	PublicID           string                 `bson:"public_id" json:"public_id"`
	SecureURL          string                 `bson:"secure_url" json:"secure_url"`
	Width              int                    `bson:"width,omitempty" json:"width,omitempty"`
	Height             int                    `bson:"height,omitempty" json:"height,omitempty"`
	Config             map[string]interface{} `bson:"config,omitempty" json:"config,omitempty"`
	TransformationURL  string                 `bson:"transformation_url,omitempty" json:"transformation_url,omitempty"`
	AspectRatio        string                 `bson:"aspect_ratio,omitempty" json:"aspect_ratio,omitempty"`
	Color              string                 `bson:"color,omitempty" json:"color,omitempty"`
	Prompt             string                 `bson:"prompt,omitempty" json:"prompt,omitempty"`
	CreatedAt          time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time              `bson:"updated_at" json:"updated_at"`
}

// AuthorInfo is the resolved owner reference attached to serialized images.
type AuthorInfo struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	ClerkID   string `json:"clerk_id,omitempty"`
}

// ImageView is the serialized form returned to callers. Identifiers are
// plain hex strings so no driver types leak out.
type ImageView struct {
	ID                 string                 `json:"id"`
	Title              string                 `json:"title"`
	Author             *AuthorInfo            `json:"author,omitempty"`
	TransformationType string                 `json:"transformation_type"`
	PublicID           string                 `json:"public_id"`
	SecureURL          string                 `json:"secure_url"`
	Width              int                    `json:"width,omitempty"`
	Height             int                    `json:"height,omitempty"`
	Config             map[string]interface{} `json:"config,omitempty"`
	TransformationURL  string                 `json:"transformation_url,omitempty"`
	AspectRatio        string                 `json:"aspect_ratio,omitempty"`
	Color              string                 `json:"color,omitempty"`
	Prompt             string                 `json:"prompt,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// ImagePage is one page of gallery results. SavedImages is the unfiltered
// total, set only for the all-images listing; a pointer so a zero count
// still serializes there while owner listings omit the field entirely.
type ImagePage struct {
	Data        []ImageView `json:"data"`
	TotalPages  int         `json:"total_pages"`
	SavedImages *int64      `json:"saved_images,omitempty"`
}

type AddImageRequest struct {
	Title              string                 `json:"title" binding:"required,max=200"`
	TransformationType string                 `json:"transformation_type" binding:"required"`
	PublicID           string                 `json:"public_id" binding:"required"`
	SecureURL          string                 `json:"secure_url" binding:"required,url"`
	Width              int                    `json:"width" binding:"omitempty,gt=0"`
	Height             int                    `json:"height" binding:"omitempty,gt=0"`
	Config             map[string]interface{} `json:"config"`
	TransformationURL  string                 `json:"transformation_url"`
	AspectRatio        string                 `json:"aspect_ratio"`
	Color              string                 `json:"color"`
	Prompt             string                 `json:"prompt"`
	Path               string                 `json:"path" binding:"required"`
}

type UpdateImageRequest struct {
	Title              string                 `json:"title" binding:"required,max=200"`
	TransformationType string                 `json:"transformation_type" binding:"required"`
	PublicID           string                 `json:"public_id" binding:"required"`
	SecureURL          string                 `json:"secure_url" binding:"required,url"`
	Width              int                    `json:"width" binding:"omitempty,gt=0"`
	Height             int                    `json:"height" binding:"omitempty,gt=0"`
	Config             map[string]interface{} `json:"config"`
	TransformationURL  string                 `json:"transformation_url"`
	AspectRatio        string                 `json:"aspect_ratio"`
	Color              string                 `json:"color"`
	Prompt             string                 `json:"prompt"`
	Path               string                 `json:"path" binding:"required"`
}

type ListImagesQuery struct {
	Limit       int
	Page        int
	SearchQuery string
}

type ListUserImagesQuery struct {
	Limit  int
	Page   int
	UserID string
}

// UploadResultPayload mirrors the fields the hosted upload widget reports
// on success. Dimensions must be positive once an upload completes.
type UploadResultPayload struct {
	PublicID  string `json:"public_id" binding:"required"`
	SecureURL string `json:"secure_url" binding:"required,url"`
	Width     int    `json:"width" binding:"required,gt=0"`
	Height    int    `json:"height" binding:"required,gt=0"`
}
