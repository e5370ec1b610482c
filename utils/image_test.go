package utils

import "testing"

func TestIsValidImageType(t *testing.T) {
	valid := []string{"image/jpeg", "image/jpg", "IMAGE/PNG", "image/gif", "image/webp"}
	for _, contentType := range valid {
		if !IsValidImageType(contentType) {
			t.Errorf("IsValidImageType(%q) = false, want true", contentType)
		}
	}

	invalid := []string{"application/pdf", "text/html", "image/svg+xml", "video/mp4", ""}
	for _, contentType := range invalid {
		if IsValidImageType(contentType) {
			t.Errorf("IsValidImageType(%q) = true, want false", contentType)
		}
	}
}
