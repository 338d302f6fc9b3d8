package validation

import (
	"fmt"
	"net/url"
	"strings"
)

const maxAttachmentLength = 2048

// IsRemote reports whether an attachment reference is an http(s) URL.
func IsRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ValidateAttachment checks a record's attachment reference, which is either
// a local file path or an http(s) URL. Empty means no attachment.
func ValidateAttachment(ref string) error {
	if ref == "" {
		return nil
	}
	if len(ref) > maxAttachmentLength {
		return fmt.Errorf("attachment too long (max %d characters)", maxAttachmentLength)
	}
	if !IsRemote(ref) {
		if !IsPathSafe(ref) {
			return fmt.Errorf("%w: attachment %q", ErrUnsafePath, ref)
		}
		return nil
	}

	if strings.ContainsAny(ref, "<>\"'`") {
		return fmt.Errorf("attachment URL contains invalid characters")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return fmt.Errorf("invalid attachment URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("attachment URL must have a hostname")
	}
	if u.User != nil {
		return fmt.Errorf("attachment URL must not carry credentials")
	}
	if strings.Contains(u.Path, "..") {
		return fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	return nil
}
