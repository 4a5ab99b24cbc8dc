package services

import (
	"errors"
	"fmt"

	"github.com/h77compass/first-repo/store"
)

var (
	// ErrNotFound is returned when an id does not resolve, or resolves to a
	// row hidden from readers (inactive category or tag, draft post).
	ErrNotFound = store.ErrNotFound
	// ErrNotPublished is returned for a post that exists as a draft.
	ErrNotPublished = fmt.Errorf("post not published: %w", ErrNotFound)
	// ErrValidation is returned for rejected input such as blank comments.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrSlugTaken is returned when a post slug clashes on its publish date.
	ErrSlugTaken = store.ErrSlugTaken
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
