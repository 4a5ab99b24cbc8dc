package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/h77compass/first-repo/models"
	"github.com/h77compass/first-repo/store"
	"github.com/h77compass/first-repo/utils"
)

const (
	// ListCachePrefix prefixes every cached listing page.
	ListCachePrefix = "cache:posts:list:"

	DefaultRecentPosts = 5
	// listCacheTTL bounds how long a cached page may lag behind view counts
	// and author renames; content writes drop cached pages immediately.
	listCacheTTL = time.Hour
)

// QueryService answers the read side: listings, search, post detail,
// navigation and comment threads. Readers only ever see published posts.
type QueryService struct {
	store  *store.Store
	cache  *utils.Cache
	recent int
}

// NewQueryService creates a QueryService. cache may be nil and recent falls
// back to DefaultRecentPosts when not positive.
func NewQueryService(st *store.Store, cache *utils.Cache, recent int) *QueryService {
	if recent <= 0 {
		recent = DefaultRecentPosts
	}
	return &QueryService{store: st, cache: cache, recent: recent}
}

// ListPublished returns published posts, newest first, optionally narrowed to
// a category, tag or author. A filter naming a missing or inactive category
// or tag, or an unknown author, yields ErrNotFound.
func (q *QueryService) ListPublished(ctx context.Context, f store.PostFilter, page, pageSize int) (Page[models.Post], error) {
	page, pageSize = NormalizePage(page, pageSize)
	if err := q.checkFilter(ctx, f); err != nil {
		return Page[models.Post]{}, err
	}

	key := fmt.Sprintf("%scat=%d:tag=%d:author=%d:page=%d:size=%d", ListCachePrefix, f.CategoryID, f.TagID, f.AuthorID, page, pageSize)
	var cached Page[models.Post]
	if q.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	items, total, err := q.store.ListPublishedPosts(ctx, f, pageOffset(page, pageSize), pageSize)
	if err != nil {
		return Page[models.Post]{}, err
	}
	result := newPage(items, page, pageSize, total)
	q.cache.SetJSON(ctx, key, result, listCacheTTL)
	return result, nil
}

func (q *QueryService) checkFilter(ctx context.Context, f store.PostFilter) error {
	if f.CategoryID != 0 {
		c, err := q.store.GetCategory(ctx, f.CategoryID)
		if err != nil {
			return fmt.Errorf("category %d: %w", f.CategoryID, err)
		}
		if !c.IsActive {
			return fmt.Errorf("category %d inactive: %w", f.CategoryID, ErrNotFound)
		}
	}
	if f.TagID != 0 {
		t, err := q.store.GetTag(ctx, f.TagID)
		if err != nil {
			return fmt.Errorf("tag %d: %w", f.TagID, err)
		}
		if !t.IsActive {
			return fmt.Errorf("tag %d inactive: %w", f.TagID, ErrNotFound)
		}
	}
	if f.AuthorID != 0 {
		if _, err := q.store.GetUser(ctx, f.AuthorID); err != nil {
			return fmt.Errorf("author %d: %w", f.AuthorID, err)
		}
	}
	return nil
}

// GetPublishedPost returns a published post. Drafts yield ErrNotPublished,
// which also matches ErrNotFound.
func (q *QueryService) GetPublishedPost(ctx context.Context, id uint) (*models.Post, error) {
	p, err := q.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished() {
		return nil, ErrNotPublished
	}
	return p, nil
}

// Search matches text case-insensitively against title, content and excerpt
// of published posts. Blank text yields an empty page, never the full listing.
func (q *QueryService) Search(ctx context.Context, text string, page, pageSize int) (Page[models.Post], error) {
	page, pageSize = NormalizePage(page, pageSize)
	if strings.TrimSpace(text) == "" {
		return newPage([]models.Post{}, page, pageSize, 0), nil
	}
	items, total, err := q.store.SearchPublishedPosts(ctx, text, pageOffset(page, pageSize), pageSize)
	if err != nil {
		return Page[models.Post]{}, err
	}
	return newPage(items, page, pageSize, total), nil
}

// AdjacentPosts returns the nearest published posts before and after post by
// publish time. A post that was never published has no neighbours.
func (q *QueryService) AdjacentPosts(ctx context.Context, post *models.Post) (prev, next *models.Post, err error) {
	if post == nil || post.PublishTime == nil {
		return nil, nil, nil
	}
	if prev, err = q.store.PreviousPublished(ctx, *post.PublishTime); err != nil {
		return nil, nil, err
	}
	if next, err = q.store.NextPublished(ctx, *post.PublishTime); err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

// ActiveTopLevelComments returns the visible direct comments of a post,
// oldest first.
func (q *QueryService) ActiveTopLevelComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return q.store.ListComments(ctx, store.CommentFilter{PostID: postID, TopLevelOnly: true, ActiveOnly: true})
}

// CommentThread returns the active top-level comments of a post with their
// active replies attached at every depth. Replies under a hidden comment are
// hidden with it.
func (q *QueryService) CommentThread(ctx context.Context, postID uint) ([]models.Comment, error) {
	flat, err := q.store.ListComments(ctx, store.CommentFilter{PostID: postID, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return buildThread(flat), nil
}

// buildThread links comments to their parents. flat must be in display order;
// children keep that order.
func buildThread(flat []models.Comment) []models.Comment {
	children := make(map[uint][]int, len(flat))
	var roots []int
	for i := range flat {
		if flat[i].IsTopLevel() {
			roots = append(roots, i)
			continue
		}
		children[*flat[i].ParentID] = append(children[*flat[i].ParentID], i)
	}

	var attach func(i int, depth int) models.Comment
	attach = func(i int, depth int) models.Comment {
		c := flat[i]
		c.Replies = nil
		if depth > len(flat) {
			return c
		}
		for _, ci := range children[c.ID] {
			c.Replies = append(c.Replies, attach(ci, depth+1))
		}
		return c
	}

	out := make([]models.Comment, 0, len(roots))
	for _, i := range roots {
		out = append(out, attach(i, 0))
	}
	return out
}

// Sidebar is the navigation shown next to every listing.
type Sidebar struct {
	Categories  []models.Category `json:"categories"`
	Tags        []models.Tag      `json:"tags"`
	RecentPosts []models.Post     `json:"recent_posts"`
}

// Sidebar loads active categories, active tags and the most recent published
// posts concurrently.
func (q *QueryService) Sidebar(ctx context.Context) (*Sidebar, error) {
	var sb Sidebar
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sb.Categories, err = q.store.ListActiveCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sb.Tags, err = q.store.ListActiveTags(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sb.RecentPosts, err = q.store.RecentPublished(gctx, q.recent)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load sidebar: %w", err)
	}
	if sb.Categories == nil {
		sb.Categories = []models.Category{}
	}
	if sb.Tags == nil {
		sb.Tags = []models.Tag{}
	}
	return &sb, nil
}

// Stats returns blog-wide counters.
func (q *QueryService) Stats(ctx context.Context) (store.Stats, error) {
	return q.store.Stats(ctx)
}
