package catalog

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors shared by the synchronizer and its stores.
var (
	// ErrNotFound is returned when an operation targets a missing product id.
	ErrNotFound = errors.New("product not found")

	// ErrAlreadyExists is returned by the strict category-creation path when a
	// category with the same name (case-insensitive) exists.
	ErrAlreadyExists = errors.New("category already exists")

	// ErrRemoteUnavailable indicates the catalog store could not be reached or
	// timed out. Callers should treat the failure as transient.
	ErrRemoteUnavailable = errors.New("catalog store unavailable")
)

// ValidationError reports bad input. It is always returned before any gateway
// call is made, so a validation failure never has partial side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResyncError signals that a remote delete failed after the caller's local
// view was already updated. The only safe recovery is a full refetch of the
// product list; reinserting the locally removed copy could clobber newer
// remote state.
type ResyncError struct {
	Cause error
}

func (e *ResyncError) Error() string {
	return fmt.Sprintf("remote delete failed, resync required: %v", e.Cause)
}

func (e *ResyncError) Unwrap() error { return e.Cause }
