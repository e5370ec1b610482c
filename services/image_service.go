package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"picvault-backend/internal/logger"
	"picvault-backend/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrImageNotFound = errors.New("image not found")
	ErrNotImageOwner = errors.New("caller does not own this image")
)

// AssetSearcher narrows a free-text query to public IDs via the media
// host's search index.
type AssetSearcher interface {
	SearchFolder(ctx context.Context, term string) ([]string, error)
}

// TaskEnqueuer hands asset cleanup off to the background queue.
type TaskEnqueuer interface {
	EnqueueAssetDestroy(publicID string) error
}

type ImageService struct {
	images   *mongo.Collection
	users    *mongo.Collection
	search   AssetSearcher
	tasks    TaskEnqueuer
	reval    *Revalidator
	pageSize int
}

func NewImageService(db *mongo.Database, search AssetSearcher, tasks TaskEnqueuer, reval *Revalidator, pageSize int) *ImageService {
	if pageSize <= 0 {
		pageSize = 9
	}
	return &ImageService{
		images:   db.Collection("images"),
		users:    db.Collection("users"),
		search:   search,
		tasks:    tasks,
		reval:    reval,
		pageSize: pageSize,
	}
}

// AddImage persists a new image owned by userID. The user must exist.
func (s *ImageService) AddImage(ctx context.Context, req models.AddImageRequest, userID string) (*models.ImageView, error) {
	authorID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	var author models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": authorID}).Decode(&author); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	image := models.Image{
		Title:              req.Title,
		Author:             author.ID,
		TransformationType: req.TransformationType,
		PublicID:           req.PublicID,
		SecureURL:          req.SecureURL,
		Width:              req.Width,
		Height:             req.Height,
		Config:             req.Config,
		TransformationURL:  req.TransformationURL,
		AspectRatio:        req.AspectRatio,
		Color:              req.Color,
		Prompt:             req.Prompt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	result, err := s.images.InsertOne(ctx, image)
	if err != nil {
		return nil, err
	}
	image.ID = result.InsertedID.(primitive.ObjectID)

	s.reval.InvalidatePath(ctx, req.Path)

	view := toImageView(image, &author)
	return &view, nil
}

// UpdateImage replaces the mutable fields of an image. Ownership is part of
// the write filter so the check and the mutation are one atomic operation.
func (s *ImageService) UpdateImage(ctx context.Context, imageID string, req models.UpdateImageRequest, userID string) (*models.ImageView, error) {
	id, err := primitive.ObjectIDFromHex(imageID)
	if err != nil {
		return nil, ErrImageNotFound
	}
	authorID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotImageOwner
	}

	update := bson.M{"$set": updateFields(req)}

	var updated models.Image
	err = s.images.FindOneAndUpdate(ctx,
		ownershipFilter(id, authorID),
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, s.classifyUpdateFailure(ctx, id)
		}
		return nil, err
	}

	s.reval.InvalidatePath(ctx, req.Path)

	var author models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": updated.Author}).Decode(&author); err != nil {
		view := toImageView(updated, nil)
		return &view, nil
	}
	view := toImageView(updated, &author)
	return &view, nil
}

// classifyUpdateFailure distinguishes a missing image from a foreign one
// after a zero-match conditional update. The classification read is
// best-effort; the mutation itself was already race-free.
func (s *ImageService) classifyUpdateFailure(ctx context.Context, id primitive.ObjectID) error {
	err := s.images.FindOne(ctx, bson.M{"_id": id}).Err()
	if err == mongo.ErrNoDocuments {
		return ErrImageNotFound
	}
	if err != nil {
		return err
	}
	return ErrNotImageOwner
}

// DeleteImage removes the document and hands media-host cleanup to the
// background queue. Callers are expected to navigate away regardless of the
// returned error; it exists so failures stay visible in logs.
func (s *ImageService) DeleteImage(ctx context.Context, imageID string) error {
	id, err := primitive.ObjectIDFromHex(imageID)
	if err != nil {
		return ErrImageNotFound
	}

	var deleted models.Image
	if err := s.images.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&deleted); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrImageNotFound
		}
		return err
	}

	if s.tasks != nil && deleted.PublicID != "" {
		if err := s.tasks.EnqueueAssetDestroy(deleted.PublicID); err != nil {
			logger.Warn("failed to enqueue asset cleanup", "public_id", deleted.PublicID, "error", err)
		}
	}

	return nil
}

// GetImageByID fetches one image with its owner populated.
func (s *ImageService) GetImageByID(ctx context.Context, imageID string) (*models.ImageView, error) {
	id, err := primitive.ObjectIDFromHex(imageID)
	if err != nil {
		return nil, ErrImageNotFound
	}

	var image models.Image
	if err := s.images.FindOne(ctx, bson.M{"_id": id}).Decode(&image); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrImageNotFound
		}
		return nil, err
	}

	views, err := s.populateAuthors(ctx, []models.Image{image})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListImages returns one gallery page. With a search term the media host
// index is consulted first and the document query is narrowed to the
// returned public IDs; a search failure aborts the listing.
func (s *ImageService) ListImages(ctx context.Context, q models.ListImagesQuery) (*models.ImagePage, error) {
	limit, skip := s.pageWindow(q.Limit, q.Page)

	filter := bson.M{}
	if q.SearchQuery != "" {
		ids, err := s.search.SearchFolder(ctx, q.SearchQuery)
		if err != nil {
			return nil, err
		}
		filter = searchScope(ids)
	}

	views, total, err := s.findPage(ctx, filter, limit, skip)
	if err != nil {
		return nil, err
	}

	saved, err := s.images.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	return &models.ImagePage{
		Data:        views,
		TotalPages:  totalPages(total, limit),
		SavedImages: &saved,
	}, nil
}

// ListUserImages returns one page of a single owner's images.
func (s *ImageService) ListUserImages(ctx context.Context, q models.ListUserImagesQuery) (*models.ImagePage, error) {
	authorID, err := primitive.ObjectIDFromHex(q.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	limit, skip := s.pageWindow(q.Limit, q.Page)

	views, total, err := s.findPage(ctx, bson.M{"author": authorID}, limit, skip)
	if err != nil {
		return nil, err
	}

	return &models.ImagePage{
		Data:       views,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *ImageService) findPage(ctx context.Context, filter bson.M, limit, skip int64) ([]models.ImageView, int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.images.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var images []models.Image
	if err := cursor.All(ctx, &images); err != nil {
		return nil, 0, err
	}

	total, err := s.images.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	views, err := s.populateAuthors(ctx, images)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// pageWindow normalizes limit/page and returns the skip offset.
func (s *ImageService) pageWindow(limit, page int) (int64, int64) {
	if limit <= 0 {
		limit = s.pageSize
	}
	if page < 1 {
		page = 1
	}
	return int64(limit), int64(page-1) * int64(limit)
}

// totalPages is ceil(total/limit) in integer arithmetic.
func totalPages(total, limit int64) int {
	if limit <= 0 {
		return 0
	}
	return int((total + limit - 1) / limit)
}

// searchScope narrows a listing to the public IDs the media host search
// returned. The $in clause stays even for an empty result set, so a search
// that matched nothing lists nothing rather than everything.
func searchScope(ids []string) bson.M {
	return bson.M{"public_id": bson.M{"$in": ids}}
}

func ownershipFilter(imageID, authorID primitive.ObjectID) bson.M {
	return bson.M{"_id": imageID, "author": authorID}
}

// updateFields builds the $set document for an update; only mutable fields
// and the update timestamp are replaced.
func updateFields(req models.UpdateImageRequest) bson.M {
	return bson.M{
		"title":               req.Title,
		"transformation_type": req.TransformationType,
		"public_id":           req.PublicID,
		"secure_url":          req.SecureURL,
		"width":               req.Width,
		"height":              req.Height,
		"config":              req.Config,
		"transformation_url":  req.TransformationURL,
		"aspect_ratio":        req.AspectRatio,
		"color":               req.Color,
		"prompt":              req.Prompt,
		"updated_at":          time.Now(),
	}
}

// populateAuthors resolves owner references in one batched read.
func (s *ImageService) populateAuthors(ctx context.Context, images []models.Image) ([]models.ImageView, error) {
	authorIDs := make([]primitive.ObjectID, 0, len(images))
	seen := make(map[primitive.ObjectID]bool, len(images))
	for _, img := range images {
		if !seen[img.Author] {
			seen[img.Author] = true
			authorIDs = append(authorIDs, img.Author)
		}
	}

	authors := make(map[primitive.ObjectID]*models.User, len(authorIDs))
	if len(authorIDs) > 0 {
		cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": authorIDs}})
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		var users []models.User
		if err := cursor.All(ctx, &users); err != nil {
			return nil, err
		}
		for i := range users {
			authors[users[i].ID] = &users[i]
		}
	}

	views := make([]models.ImageView, 0, len(images))
	for _, img := range images {
		views = append(views, toImageView(img, authors[img.Author]))
	}
	return views, nil
}

func toImageView(img models.Image, author *models.User) models.ImageView {
	view := models.ImageView{
		ID:                 img.ID.Hex(),
		Title:              img.Title,
		TransformationType: img.TransformationType,
		PublicID:           img.PublicID,
		SecureURL:          img.SecureURL,
		Width:              img.Width,
		Height:             img.Height,
		Config:             img.Config,
		TransformationURL:  img.TransformationURL,
		AspectRatio:        img.AspectRatio,
		Color:              img.Color,
		Prompt:             img.Prompt,
		CreatedAt:          img.CreatedAt,
		UpdatedAt:          img.UpdatedAt,
	}
	if author != nil {
		view.Author = &models.AuthorInfo{
			ID:        author.ID.Hex(),
			FirstName: author.FirstName,
			LastName:  author.LastName,
			ClerkID:   author.ClerkID,
		}
	}
	return view
}
