package corpcode

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset means a downloaded dataset produced no directory entries.
var ErrEmptyDataset = errors.New("corpcode: dataset has no usable company records")

// NotFoundError means the query did not resolve to any directory entry.
type NotFoundError struct {
	Query string
	Kind  QueryKind
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Query == "":
		return "corpcode: empty company query; pass a company name, 6-digit stock code or 8-digit corp code"
	case e.Kind == QueryStockCode:
		return fmt.Sprintf("corpcode: no company with stock code %q", e.Query)
	default:
		return fmt.Sprintf("corpcode: no company matches %q", e.Query)
	}
}

// UnavailableError means no directory file could be loaded.
type UnavailableError struct {
	Paths []string
	Err   error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("corpcode: company directory is unavailable (looked in %v); set DART_API_KEY and restart, or run `opendart update-corp-codes`", e.Paths)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUnavailable reports whether err is an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
