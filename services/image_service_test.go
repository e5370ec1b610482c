package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"picvault-backend/models"
)

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total, limit int64
		want         int
	}{
		{0, 9, 0},
		{1, 9, 1},
		{9, 9, 1},
		{10, 9, 2},
		{18, 9, 2},
		{19, 9, 3},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := totalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}

func TestPageWindow(t *testing.T) {
	s := &ImageService{pageSize: 9}

	cases := []struct {
		limit, page int
		wantLimit   int64
		wantSkip    int64
	}{
		{0, 1, 9, 0},   // defaults
		{9, 2, 9, 9},   // second page
		{5, 3, 5, 10},  // custom limit
		{9, 0, 9, 0},   // page clamps to 1
		{-1, -1, 9, 0}, // garbage clamps to defaults
	}
	for _, tc := range cases {
		limit, skip := s.pageWindow(tc.limit, tc.page)
		if limit != tc.wantLimit || skip != tc.wantSkip {
			t.Errorf("pageWindow(%d, %d) = (%d, %d), want (%d, %d)",
				tc.limit, tc.page, limit, skip, tc.wantLimit, tc.wantSkip)
		}
	}
}

func TestSearchScope(t *testing.T) {
	cases := []struct {
		name string
		ids  []string
	}{
		{"matches", []string{"picvault/a", "picvault/b"}},
		{"single match", []string{"picvault/a"}},
		{"no matches", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			filter := searchScope(tc.ids)

			clause, ok := filter["public_id"].(bson.M)
			if !ok {
				t.Fatalf("filter = %v, want a public_id clause", filter)
			}
			in, ok := clause["$in"].([]string)
			if !ok {
				t.Fatalf("clause = %v, want $in over ids", clause)
			}
			if len(in) != len(tc.ids) {
				t.Errorf("$in holds %d ids, want %d", len(in), len(tc.ids))
			}
			for i, id := range tc.ids {
				if in[i] != id {
					t.Errorf("$in[%d] = %q, want %q", i, in[i], id)
				}
			}
		})
	}
}

type failingSearcher struct {
	err error
}

func (f failingSearcher) SearchFolder(ctx context.Context, term string) ([]string, error) {
	return nil, f.err
}

// A first-phase search failure aborts the listing; the document store is
// never consulted.
func TestListImagesAbortsOnSearchFailure(t *testing.T) {
	searchErr := errors.New("search index unavailable")
	s := &ImageService{search: failingSearcher{err: searchErr}, pageSize: 9}

	page, err := s.ListImages(context.Background(), models.ListImagesQuery{SearchQuery: "sunset"})
	if !errors.Is(err, searchErr) {
		t.Fatalf("err = %v, want %v", err, searchErr)
	}
	if page != nil {
		t.Errorf("page = %v, want nil on search failure", page)
	}
}

func TestImagePageSerializesZeroSavedImages(t *testing.T) {
	saved := int64(0)
	gallery := models.ImagePage{TotalPages: 0, SavedImages: &saved}

	payload, err := json.Marshal(gallery)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(payload), `"saved_images":0`) {
		t.Errorf("gallery page must always carry saved_images, got %s", payload)
	}

	owner := models.ImagePage{TotalPages: 1}
	payload, err = json.Marshal(owner)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(payload), "saved_images") {
		t.Errorf("owner page must omit saved_images, got %s", payload)
	}
}

func TestOwnershipFilter(t *testing.T) {
	imageID := primitive.NewObjectID()
	authorID := primitive.NewObjectID()

	filter := ownershipFilter(imageID, authorID)

	if filter["_id"] != imageID {
		t.Errorf("filter _id = %v, want %v", filter["_id"], imageID)
	}
	if filter["author"] != authorID {
		t.Errorf("filter author = %v, want %v", filter["author"], authorID)
	}
	if len(filter) != 2 {
		t.Errorf("filter has %d fields, want 2", len(filter))
	}
}

func TestUpdateFields(t *testing.T) {
	req := models.UpdateImageRequest{
		Title:              "sunset",
		TransformationType: "restore",
		PublicID:           "picvault/abc",
		SecureURL:          "https://res.example.com/abc.jpg",
		Width:              800,
		Height:             600,
		Path:               "/",
	}

	set := updateFields(req)

	if set["title"] != "sunset" {
		t.Errorf("title = %v", set["title"])
	}
	if set["public_id"] != "picvault/abc" {
		t.Errorf("public_id = %v", set["public_id"])
	}
	if _, ok := set["updated_at"]; !ok {
		t.Error("updated_at missing from update document")
	}
	if _, ok := set["author"]; ok {
		t.Error("author must never be part of an update")
	}
	if _, ok := set["created_at"]; ok {
		t.Error("created_at must never be part of an update")
	}
}

func TestToImageView(t *testing.T) {
	img := models.Image{
		ID:       primitive.NewObjectID(),
		Title:    "sunset",
		Author:   primitive.NewObjectID(),
		PublicID: "picvault/abc",
	}

	view := toImageView(img, nil)
	if view.ID != img.ID.Hex() {
		t.Errorf("view ID = %q, want %q", view.ID, img.ID.Hex())
	}
	if view.Author != nil {
		t.Error("author should be nil when unresolved")
	}

	author := models.User{ID: img.Author, FirstName: "Ana", LastName: "M"}
	view = toImageView(img, &author)
	if view.Author == nil {
		t.Fatal("author should be populated")
	}
	if view.Author.ID != img.Author.Hex() {
		t.Errorf("author ID = %q, want %q", view.Author.ID, img.Author.Hex())
	}
	if view.Author.FirstName != "Ana" {
		t.Errorf("author first name = %q", view.Author.FirstName)
	}
}
