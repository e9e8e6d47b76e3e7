package content

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrProjectNotFound = errors.New("project not found")
	ErrAuthorNotFound  = errors.New("author not found")
)
