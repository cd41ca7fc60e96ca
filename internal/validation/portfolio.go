package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	MinRating          = 1
	MaxRating          = 5
	maxFeedbackLen     = 2000
	maxPortfolioText   = 5000
	maxPortfolioURLLen = 2048
)

// ValidateRatingNumber enforces the 1..5 star scale.
func ValidateRatingNumber(n int) error {
	if n < MinRating || n > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateFeedbackText requires non-blank text of at most 2000 characters.
func ValidateFeedbackText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("feedback text is required")
	}
	if utf8.RuneCountInString(text) > maxFeedbackLen {
		return fmt.Errorf("feedback must not exceed %d characters", maxFeedbackLen)
	}
	return nil
}

// ValidatePortfolioText bounds the free-form description. Empty is allowed.
func ValidatePortfolioText(text string) error {
	if utf8.RuneCountInString(text) > maxPortfolioText {
		return fmt.Errorf("portfolio text must not exceed %d characters", maxPortfolioText)
	}
	return nil
}

// ValidateLink bounds a link field and rejects any scheme other than
// http or https. Scheme-less values such as "/media/..." or "ada.dev" pass.
func ValidateLink(field, raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > maxPortfolioURLLen {
		return fmt.Errorf("%s must not exceed %d characters", field, maxPortfolioURLLen)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid link", field)
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return nil
	default:
		return fmt.Errorf("%s must be an http or https URL", field)
	}
}
