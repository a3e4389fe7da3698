package errs

import (
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrISBNInUse         = errors.New("ISBN already in use.")
	ErrBookAlreadyLoaned = errors.New("book already loaned")
	ErrBookHasLoans      = errors.New("book has loan records")
	ErrBookByISBN        = errors.New("book not found for informed isbn")
)
