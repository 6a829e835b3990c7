package catalog

import (
	"errors"
	"fmt"

	"github.com/mmynk/mypeeps/internal/storage"
)

// Error kinds returned by the catalog. Callers match them with errors.Is.
var (
	// ErrValidation reports an empty required field.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound reports an ID that does not exist for the owner.
	ErrNotFound = errors.New("not found")

	// ErrUpload reports a failed photo upload.
	ErrUpload = errors.New("upload failed")

	// ErrRemoteUnavailable reports a document store failure.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr classifies a store failure. storage.ErrNotFound becomes
// ErrNotFound; everything else is ErrRemoteUnavailable. The original error
// stays in the chain.
func storeErr(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteUnavailable, err)
}
