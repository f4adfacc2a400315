package pin

import (
	"errors"
	"strings"

	"github.com/junhong-liao/art-club/internal/dto"
)

var (
	ErrMissingDescription = errors.New("imgDescription is required")
	ErrMissingImgLink     = errors.New("imgLink is required")
	ErrDescriptionTooLong = errors.New("imgDescription too long")
)

const maxDescriptionLen = 500

// ValidateSubmission checks a pin submission at the orchestration
// boundary; the document store enforces nothing.
func ValidateSubmission(sub dto.PinSubmission) error {
	if strings.TrimSpace(sub.ImgDescription) == "" {
		return ErrMissingDescription
	}
	if len(sub.ImgDescription) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if strings.TrimSpace(sub.ImgLink) == "" {
		return ErrMissingImgLink
	}
	return nil
}
