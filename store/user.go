package store

import (
	"context"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/h77compass/first-repo/models"
)

// EnsureUser records the author identity asserted by the identity provider,
// refreshing the display name when it changed.
func (s *Store) EnsureUser(ctx context.Context, id uint, username string) (*models.User, error) {
	u := &models.User{ID: id, Username: strings.TrimSpace(username)}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// GetUser loads an author.
func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}
