package storage

import "errors"

// ErrConflict is returned when a record with the same unique key exists.
var ErrConflict = errors.New("record already exists")

// NotFoundError is returned when a record doesn't exist in the store.
type NotFoundError struct {
	// Kind is the record type, e.g. "wiki" or "document".
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "record"
	}
	if e.ID == "" {
		return kind + " not found"
	}

	return kind + " not found: " + e.ID
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
