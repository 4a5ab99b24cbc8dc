package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/h77compass/first-repo/models"
)

// CreateCategory inserts c.
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	active := c.IsActive
	return s.transaction(ctx, func(tx *gorm.DB) error {
		if err := createWithActive(tx, c, active); err != nil {
			return fmt.Errorf("create category: %w", err)
		}
		c.IsActive = active
		return nil
	})
}

// UpdateCategory writes name, description and active flag of c.
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	res := s.conn(ctx).Model(&models.Category{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":        c.Name,
		"description": c.Description,
		"is_active":   c.IsActive,
		"updated_at":  s.now(),
	})
	if res.Error != nil {
		return fmt.Errorf("update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCategory loads a category regardless of its active flag.
func (s *Store) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// ListActiveCategories returns active categories, newest first.
func (s *Store) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	err := s.conn(ctx).Where("is_active = ?", true).Order("created_at DESC").Order("id DESC").Find(&items).Error
	return items, err
}

// DeleteCategory removes the category together with its posts and their comments.
func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Category{}, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("category_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if err := deletePosts(tx, postIDs); err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
}
