package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/h77compass/first-repo/models"
)

// CommentFilter selects comments of one post.
type CommentFilter struct {
	PostID       uint
	TopLevelOnly bool
	ActiveOnly   bool
}

// CreateComment inserts c. New comments are active.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	c.IsActive = true
	if err := s.conn(ctx).Omit("Author", "Replies").Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// GetComment loads a comment and its author.
func (s *Store) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.conn(ctx).Preload("Author").First(&c, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *Store) ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error) {
	q := s.conn(ctx).Preload("Author").Where("post_id = ?", f.PostID)
	if f.TopLevelOnly {
		q = q.Where("parent_id IS NULL")
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	items := []models.Comment{}
	if err := q.Order("created_at ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return items, nil
}

// SetCommentActive shows or hides a comment without deleting it.
func (s *Store) SetCommentActive(ctx context.Context, id uint, active bool) error {
	res := s.conn(ctx).Model(&models.Comment{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"is_active":  active,
		"updated_at": s.now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment removes the comment and every reply below it.
func (s *Store) DeleteComment(ctx context.Context, id uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Comment{}, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		ids, err := commentSubtree(tx, id)
		if err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error
	})
}

// commentSubtree collects id and all of its descendants breadth first.
func commentSubtree(tx *gorm.DB, id uint) ([]uint, error) {
	all := []uint{id}
	seen := map[uint]bool{id: true}
	frontier := []uint{id}
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, c := range children {
			if seen[c] {
				continue
			}
			seen[c] = true
			all = append(all, c)
			frontier = append(frontier, c)
		}
	}
	return all, nil
}
