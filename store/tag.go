package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/h77compass/first-repo/models"
)

// postTag is a row of the post/tag join table.
type postTag struct {
	PostID uint
	TagID  uint
}

func (postTag) TableName() string { return "post_tags" }

// CreateTag inserts t.
func (s *Store) CreateTag(ctx context.Context, t *models.Tag) error {
	active := t.IsActive
	return s.transaction(ctx, func(tx *gorm.DB) error {
		if err := createWithActive(tx, t, active); err != nil {
			return fmt.Errorf("create tag: %w", err)
		}
		t.IsActive = active
		return nil
	})
}

// UpdateTag writes name and active flag of t.
func (s *Store) UpdateTag(ctx context.Context, t *models.Tag) error {
	res := s.conn(ctx).Model(&models.Tag{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"name":       t.Name,
		"is_active":  t.IsActive,
		"updated_at": s.now(),
	})
	if res.Error != nil {
		return fmt.Errorf("update tag: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTag loads a tag regardless of its active flag.
func (s *Store) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var t models.Tag
	if err := s.conn(ctx).First(&t, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// ListActiveTags returns active tags, newest first.
func (s *Store) ListActiveTags(ctx context.Context) ([]models.Tag, error) {
	var items []models.Tag
	err := s.conn(ctx).Where("is_active = ?", true).Order("created_at DESC").Order("id DESC").Find(&items).Error
	return items, err
}

// DeleteTag detaches the tag from every post and removes it. Posts are kept.
func (s *Store) DeleteTag(ctx context.Context, id uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Tag{}, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if err := tx.Where("tag_id = ?", id).Delete(&postTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tag{}, id).Error
	})
}

// replacePostTags sets the tags of postID to exactly tagIDs.
func replacePostTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	if err := tx.Where("post_id = ?", postID).Delete(&postTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Tag{}).Where("id IN ?", tagIDs).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(tagIDs) {
		return fmt.Errorf("tag: %w", ErrNotFound)
	}
	rows := make([]postTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, postTag{PostID: postID, TagID: id})
	}
	return tx.Create(&rows).Error
}
