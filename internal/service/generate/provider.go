// Package generate wraps the external content generation backends. The rest
// of the system depends on the Provider interface only; the Gemini client is
// one implementation.
package generate

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAPIKeyRequired means no generation API key is configured. Video
	// generation requires the caller to pick a key first.
	ErrAPIKeyRequired = errors.New("api key required")
	// ErrAPIKeyInvalid means the backend rejected the configured key.
	ErrAPIKeyInvalid = errors.New("api key invalid")
)

// ProviderError is any other generation failure, carrying the backend's
// diagnostic message.
type ProviderError struct {
	Op      string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

type Provider interface {
	// GenerateText returns the generated post text.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateImage returns a reference to the generated image (a data URL
	// or storage URL).
	GenerateImage(ctx context.Context, prompt string) (string, error)
	// GenerateVideo returns a reference to the generated video. The optional
	// start image URL seeds the first frame.
	GenerateVideo(ctx context.Context, prompt, startImageURL string) (string, error)
}

// UserMessage maps a generation error to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrAPIKeyRequired):
		return "Please select an API key to generate videos."
	case errors.Is(err, ErrAPIKeyInvalid):
		return "Your API key is invalid. Please select a new one."
	default:
		return err.Error()
	}
}
