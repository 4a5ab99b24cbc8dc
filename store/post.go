package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/h77compass/first-repo/models"
	"github.com/h77compass/first-repo/utils"
)

// PostFilter narrows a published-post listing. Zero fields are ignored.
type PostFilter struct {
	CategoryID uint `json:"category_id,omitempty"`
	TagID      uint `json:"tag_id,omitempty"`
	AuthorID   uint `json:"author_id,omitempty"`
}

// publishedOrder is the listing order; publish time alone is not unique.
var publishedOrder = []string{"posts.publish_time DESC", "posts.created_at DESC", "posts.id DESC"}

// CreatePost inserts p with the tags listed in p.Tags (only ids are used).
// An empty slug is derived from the title.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	s.preparePost(p)
	return s.transaction(ctx, func(tx *gorm.DB) error {
		if err := checkPostRefs(tx, p); err != nil {
			return err
		}
		if err := checkSlug(tx, p.Slug, p.PublishTime, 0); err != nil {
			return err
		}
		if err := tx.Omit("Author", "Category", "Tags", "Comments").Create(p).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return replacePostTags(tx, p.ID, tagIDs(p.Tags))
	})
}

// SavePost writes every editable column of p and replaces its tags. The view
// counter is never written here; IncrementViews owns it.
func (s *Store) SavePost(ctx context.Context, p *models.Post) error {
	s.preparePost(p)
	return s.transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Post{}, p.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		if err := checkPostRefs(tx, p); err != nil {
			return err
		}
		if err := checkSlug(tx, p.Slug, p.PublishTime, p.ID); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		err = tx.Session(&gorm.Session{SkipHooks: true}).Model(&models.Post{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"title":        p.Title,
			"slug":         p.Slug,
			"author_id":    p.AuthorID,
			"category_id":  p.CategoryID,
			"excerpt":      p.Excerpt,
			"content":      p.Content,
			"status":       p.Status,
			"publish_time": p.PublishTime,
			"updated_at":   p.UpdatedAt,
		}).Error
		if err != nil {
			return fmt.Errorf("save post: %w", err)
		}
		return replacePostTags(tx, p.ID, tagIDs(p.Tags))
	})
}

// preparePost fills the slug and default status and stamps the publish time.
func (s *Store) preparePost(p *models.Post) {
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = utils.Slugify(p.Title)
	}
	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	if p.PublishTime != nil {
		t := p.PublishTime.UTC()
		p.PublishTime = &t
	}
	p.StampPublishTime(s.now())
}

// GetPost loads a post with its author, category and tags, in any status.
func (s *Store) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	err := s.conn(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		First(&p, id).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// PublishPost marks the post published. The publish time is stamped only if
// it was never set, in the same statement, so repeated calls keep the first stamp.
func (s *Store) PublishPost(ctx context.Context, id uint) (*models.Post, error) {
	now := s.now()
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var current models.Post
		if err := tx.Select("id", "slug", "publish_time").First(&current, id).Error; err != nil {
			return mapErr(err)
		}
		if current.PublishTime == nil {
			if err := checkSlug(tx, current.Slug, &now, id); err != nil {
				return err
			}
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
			"status":       models.PostStatusPublished,
			"publish_time": gorm.Expr("COALESCE(publish_time, ?)", now),
			"updated_at":   now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetPost(ctx, id)
}

// UnpublishPost moves the post back to draft. The publish time is kept.
func (s *Store) UnpublishPost(ctx context.Context, id uint) (*models.Post, error) {
	res := s.conn(ctx).Model(&models.Post{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"status":     models.PostStatusDraft,
		"updated_at": s.now(),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetPost(ctx, id)
}

// IncrementViews adds one to the view counter in place and returns the new value.
func (s *Store) IncrementViews(ctx context.Context, id uint) (uint64, error) {
	res := s.conn(ctx).Model(&models.Post{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment views: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	var views uint64
	if err := s.conn(ctx).Model(&models.Post{}).Where("id = ?", id).Select("views").Scan(&views).Error; err != nil {
		return 0, err
	}
	return views, nil
}

// DeletePost removes the post together with its comments and tag links.
func (s *Store) DeletePost(ctx context.Context, id uint) error {
	return s.transaction(ctx, func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.Post{}, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return deletePosts(tx, []uint{id})
	})
}

func deletePosts(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("post_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", ids).Delete(&postTag{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", ids).Delete(&models.Post{}).Error
}

// ListPublishedPosts returns one window of published posts and the total count.
func (s *Store) ListPublishedPosts(ctx context.Context, f PostFilter, offset, limit int) ([]models.Post, int64, error) {
	q := s.published(ctx)
	if f.CategoryID != 0 {
		q = q.Where("posts.category_id = ?", f.CategoryID)
	}
	if f.TagID != 0 {
		q = q.Where("posts.id IN (?)", s.conn(ctx).Model(&postTag{}).Select("post_id").Where("tag_id = ?", f.TagID))
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	return s.window(q, offset, limit)
}

// SearchPublishedPosts matches query case-insensitively as a substring of
// title, content or excerpt. An empty query matches nothing.
func (s *Store) SearchPublishedPosts(ctx context.Context, query string, offset, limit int) ([]models.Post, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Post{}, 0, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	q := s.published(ctx).Where(
		"(LOWER(posts.title) LIKE LOWER(?) ESCAPE '!' OR LOWER(posts.content) LIKE LOWER(?) ESCAPE '!' OR LOWER(posts.excerpt) LIKE LOWER(?) ESCAPE '!')",
		pattern, pattern, pattern,
	)
	return s.window(q, offset, limit)
}

// RecentPublished returns the latest published posts.
func (s *Store) RecentPublished(ctx context.Context, limit int) ([]models.Post, error) {
	items, _, err := s.window(s.published(ctx), 0, limit)
	return items, err
}

// PreviousPublished returns the nearest published post with an earlier publish time, or nil.
func (s *Store) PreviousPublished(ctx context.Context, t time.Time) (*models.Post, error) {
	return s.adjacent(s.published(ctx).Where("posts.publish_time < ?", t.UTC()).
		Order("posts.publish_time DESC").Order("posts.created_at DESC").Order("posts.id DESC"))
}

// NextPublished returns the nearest published post with a later publish time, or nil.
func (s *Store) NextPublished(ctx context.Context, t time.Time) (*models.Post, error) {
	return s.adjacent(s.published(ctx).Where("posts.publish_time > ?", t.UTC()).
		Order("posts.publish_time ASC").Order("posts.created_at ASC").Order("posts.id ASC"))
}

func (s *Store) adjacent(q *gorm.DB) (*models.Post, error) {
	var p models.Post
	err := q.Limit(1).Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) published(ctx context.Context) *gorm.DB {
	return s.conn(ctx).Model(&models.Post{}).Where("posts.status = ?", models.PostStatusPublished)
}

func (s *Store) window(q *gorm.DB, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	items := []models.Post{}
	if total == 0 || offset < 0 || int64(offset) >= total {
		return items, total, nil
	}
	find := q.Session(&gorm.Session{}).
		Preload("Author").
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") })
	for _, o := range publishedOrder {
		find = find.Order(o)
	}
	if err := find.Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return items, total, nil
}

// checkPostRefs verifies the category and author of p exist.
func checkPostRefs(tx *gorm.DB, p *models.Post) error {
	ok, err := exists(tx, &models.Category{}, p.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("category %d: %w", p.CategoryID, ErrNotFound)
	}
	ok, err = exists(tx, &models.User{}, p.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("author %d: %w", p.AuthorID, ErrNotFound)
	}
	return nil
}

// checkSlug enforces slug uniqueness within a publish date (UTC calendar day).
// Posts without a publish time are not constrained.
func checkSlug(tx *gorm.DB, slug string, publishTime *time.Time, excludeID uint) error {
	if publishTime == nil {
		return nil
	}
	t := publishTime.UTC()
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	var n int64
	err := tx.Model(&models.Post{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Where("publish_time >= ? AND publish_time < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrSlugTaken
	}
	return nil
}

func tagIDs(tags []models.Tag) []uint {
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return utils.Unique(ids)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike escapes LIKE wildcards using '!' as the escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
