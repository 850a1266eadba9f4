package store

import "github.com/circulateapp/circulate-server/internal/errors"

// Sentinel errors. Coded so handlers can map them straight to HTTP
// responses with errors.Is.
var (
	ErrBookNotFound   = errors.NotFound("book not found")
	ErrBookExists     = errors.AlreadyExists("book already exists")
	ErrReaderNotFound = errors.NotFound("reader not found")
	ErrReaderExists   = errors.AlreadyExists("reader already exists")
	ErrLoanNotFound   = errors.NotFound("loan not found")
	ErrLoanExists     = errors.AlreadyExists("loan already exists")
)
