// Package store persists blog content through gorm. Cascading deletes are
// carried out here inside transactions rather than by the schema, so every
// supported database behaves the same way.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an id does not resolve to a row.
	ErrNotFound = errors.New("record not found")
	// ErrSlugTaken is returned when another post already uses the slug on the same publish date.
	ErrSlugTaken = errors.New("slug already used on this publish date")
)

// Store is the content store shared by the query and mutation services.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock returns a copy of the store that reads the current time from now.
func (s *Store) WithClock(now func() time.Time) *Store {
	cp := *s
	cp.now = func() time.Time { return now().UTC() }
	return &cp
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.conn(ctx).Transaction(fn)
}

// mapErr converts gorm's not-found error into ErrNotFound.
func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// exists reports whether a row with id exists in model's table.
func exists(tx *gorm.DB, model interface{}, id uint) (bool, error) {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// createWithActive inserts model and forces is_active to false when needed;
// gorm skips zero values of columns that carry a default.
func createWithActive(tx *gorm.DB, model interface{}, active bool) error {
	if err := tx.Create(model).Error; err != nil {
		return err
	}
	if active {
		return nil
	}
	return tx.Model(model).UpdateColumn("is_active", false).Error
}
