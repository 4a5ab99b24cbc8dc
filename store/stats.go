package store

import (
	"context"

	"github.com/h77compass/first-repo/models"
)

// Stats aggregates blog-wide counters.
type Stats struct {
	PublishedPosts int64 `json:"published_posts"`
	DraftPosts     int64 `json:"draft_posts"`
	Comments       int64 `json:"comments"`
	Categories     int64 `json:"categories"`
	Tags           int64 `json:"tags"`
	TotalViews     int64 `json:"total_views"`
}

// Stats counts rows per table and sums post views.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.conn(ctx)
	if err := db.Model(&models.Post{}).Where("status = ?", models.PostStatusPublished).Count(&st.PublishedPosts).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Post{}).Where("status = ?", models.PostStatusDraft).Count(&st.DraftPosts).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Comment{}).Count(&st.Comments).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Category{}).Count(&st.Categories).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Tag{}).Count(&st.Tags).Error; err != nil {
		return st, err
	}
	if err := db.Model(&models.Post{}).Select("COALESCE(SUM(views),0)").Scan(&st.TotalViews).Error; err != nil {
		return st, err
	}
	return st, nil
}
