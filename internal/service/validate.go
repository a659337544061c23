package service

import (
	"strings"
	"unicode/utf8"

	"ripple/internal/models"
)

// The outer validation layer is expected to reject bad input before the
// core is invoked; these checks are defensive.

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxContentLen {
		return models.NewValidationError("Content too long (max 280 characters)")
	}
	return nil
}

func validateMedia(media []models.Media) error {
	if len(media) > models.MaxMediaPerItem {
		return models.NewValidationError("At most 3 media items are allowed")
	}
	for _, m := range media {
		if strings.TrimSpace(m.URL) == "" {
			return models.NewValidationError("Media URL is required")
		}
		switch m.Type {
		case models.MediaTypeImage, models.MediaTypeVideo, models.MediaTypeGif:
		default:
			return models.NewValidationError("Invalid media type")
		}
	}
	return nil
}
