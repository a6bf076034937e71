package preimage

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryUnreadable is returned when the preimage directory cannot be listed.
	ErrDirectoryUnreadable = errors.New("preimage: directory unreadable")
	// ErrMalformedEntry matches every *MalformedEntryError.
	ErrMalformedEntry = errors.New("preimage: malformed entry")
)

// MalformedEntryError reports a directory entry whose name does not encode a
// valid 32-byte key.
type MalformedEntryError struct {
	File   string
	Reason string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("preimage: malformed entry %q: %s", e.File, e.Reason)
}

func (e *MalformedEntryError) Is(target error) bool {
	return target == ErrMalformedEntry
}
