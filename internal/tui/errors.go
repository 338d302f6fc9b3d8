package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/daybook/internal/listing"
	"github.com/pders01/daybook/internal/media"
	"github.com/pders01/daybook/internal/storage"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeError turns known failures into short status text.
func describeError(err error) (string, StatusKind) {
	switch {
	case errors.Is(err, media.ErrNoAttachment):
		return MsgNoAttachment, StatusWarn
	case errors.Is(err, listing.ErrNothingLoaded):
		return MsgLoading, StatusInfo
	case errors.Is(err, storage.ErrNotFound):
		return "That day no longer exists", StatusWarn
	case errors.Is(err, listing.ErrMalformedRecord):
		return "Malformed entry: " + err.Error(), StatusError
	case errors.Is(err, listing.ErrStoreUnavailable):
		return "Diary unavailable: " + err.Error(), StatusError
	default:
		return err.Error(), StatusError
	}
}
