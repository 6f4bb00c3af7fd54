package types

import "errors"

// Error kinds shared across packages. Wrap them with fmt.Errorf("...: %w")
// and test with errors.Is.
var (
	// ErrClassificationAmbiguous marks a routing decision that fell back to
	// INFO. The router records it; it is never returned to callers.
	ErrClassificationAmbiguous = errors.New("classification ambiguous")

	// ErrMissingSourceImage means an edit named an image that cannot be found.
	ErrMissingSourceImage = errors.New("source image not found")

	// ErrExternalService covers model failures and empty model output.
	ErrExternalService = errors.New("external service failure")

	// ErrPersistenceUnavailable means the artifact store cannot be used.
	// It is non-fatal; callers fall back to local files.
	ErrPersistenceUnavailable = errors.New("artifact persistence unavailable")

	// ErrTransientOverload means the model stayed overloaded after retries.
	ErrTransientOverload = errors.New("model overloaded")
)

// MissingImageError names the image an edit could not resolve.
type MissingImageError struct {
	Name string
}

func (e *MissingImageError) Error() string {
	return "Could not find image: " + e.Name
}

func (e *MissingImageError) Is(target error) bool {
	return target == ErrMissingSourceImage
}

// UserMessage converts an error into text suitable for the chat surface.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingSourceImage):
		var mi *MissingImageError
		if errors.As(err, &mi) {
			return mi.Error() + ". Please ensure the image was uploaded or generated."
		}
		return "Could not find the source image. Please upload a photo or create a rendering first."
	case errors.Is(err, ErrTransientOverload):
		return "The image service is overloaded right now. Please try again in a minute."
	case errors.Is(err, ErrPersistenceUnavailable):
		return "Saved locally; artifact storage is unavailable."
	case errors.Is(err, ErrExternalService):
		return "The model request failed: " + err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}
