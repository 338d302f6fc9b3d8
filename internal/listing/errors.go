package listing

import (
	"errors"
)

var (
	// ErrStoreUnavailable wraps a failed Count or Page call.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrMalformedRecord wraps a record whose date does not parse.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrNothingLoaded is returned by an ADD request when no published result
	// exists for the current query, or a NEW is still pending.
	ErrNothingLoaded = errors.New("nothing loaded to extend")
	ErrUnknownList   = errors.New("unknown list")
	ErrDuplicateList = errors.New("list already registered")
	ErrClosed        = errors.New("list closed")
)

// ErrorKind classifies a failed load for consumers.
type ErrorKind int

const (
	ErrorStoreUnavailable ErrorKind = iota + 1
	ErrorMalformedRecord
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorStoreUnavailable:
		return "store unavailable"
	case ErrorMalformedRecord:
		return "malformed record"
	default:
		return "unknown"
	}
}

// KindOf reports the ErrorKind for an error produced by a load.
func KindOf(err error) ErrorKind {
	if errors.Is(err, ErrMalformedRecord) {
		return ErrorMalformedRecord
	}
	return ErrorStoreUnavailable
}
