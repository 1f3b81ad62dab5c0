package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidatePostTitle requires a non-blank title of at most MaxTitleLength characters.
func ValidatePostTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateCommentContent requires non-blank comment text.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if utf8.RuneCountInString(content) > 5000 {
		return fmt.Errorf("content must not exceed 5000 characters")
	}
	return nil
}

// UniqueField is a user attribute that can be probed for availability.
type UniqueField string

const (
	FieldEmail    UniqueField = "email"
	FieldUsername UniqueField = "username"
)

// ParseUniqueField accepts only "email" or "username".
func ParseUniqueField(raw string) (UniqueField, error) {
	switch UniqueField(raw) {
	case FieldEmail, FieldUsername:
		return UniqueField(raw), nil
	}
	return "", fmt.Errorf("field must be one of: email, username")
}
