package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/h77compass/first-repo/models"
	"github.com/h77compass/first-repo/store"
	"github.com/h77compass/first-repo/utils"
)

// MutationService performs every write: publishing, view counting,
// commenting and authoring. Callers establish identity beforehand.
type MutationService struct {
	store *store.Store
	cache *utils.Cache
}

// NewMutationService creates a MutationService. cache may be nil.
func NewMutationService(st *store.Store, cache *utils.Cache) *MutationService {
	return &MutationService{store: st, cache: cache}
}

func (m *MutationService) invalidateLists(ctx context.Context) {
	m.cache.InvalidateByPrefix(ctx, ListCachePrefix)
}

// Publish marks a post published, stamping the publish time on first publish only.
func (m *MutationService) Publish(ctx context.Context, postID uint) (*models.Post, error) {
	p, err := m.store.PublishPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	m.invalidateLists(ctx)
	utils.Sugar.Infow("post published", "post_id", p.ID, "publish_time", p.PublishTime)
	return p, nil
}

// Unpublish moves a post back to draft. The publish time is kept, so a later
// Publish restores the original date.
func (m *MutationService) Unpublish(ctx context.Context, postID uint) (*models.Post, error) {
	p, err := m.store.UnpublishPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	m.invalidateLists(ctx)
	utils.Sugar.Infow("post unpublished", "post_id", p.ID)
	return p, nil
}

// IncrementViews counts one detail view and returns the new total.
func (m *MutationService) IncrementViews(ctx context.Context, postID uint) (uint64, error) {
	return m.store.IncrementViews(ctx, postID)
}

// AddComment adds a top-level comment to a published post.
func (m *MutationService) AddComment(ctx context.Context, postID, authorID uint, content string) (*models.Comment, error) {
	body, err := commentBody(content)
	if err != nil {
		return nil, err
	}
	if err := m.requirePublished(ctx, postID); err != nil {
		return nil, err
	}
	c := &models.Comment{PostID: postID, AuthorID: authorID, Content: body}
	if err := m.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return m.store.GetComment(ctx, c.ID)
}

// ReplyToComment answers an existing comment at any depth. The reply belongs
// to the parent's post, which must be published.
func (m *MutationService) ReplyToComment(ctx context.Context, parentID, authorID uint, content string) (*models.Comment, error) {
	body, err := commentBody(content)
	if err != nil {
		return nil, err
	}
	parent, err := m.store.GetComment(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("comment %d: %w", parentID, err)
	}
	if err := m.requirePublished(ctx, parent.PostID); err != nil {
		return nil, err
	}
	c := &models.Comment{PostID: parent.PostID, AuthorID: authorID, Content: body, ParentID: &parent.ID}
	if err := m.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return m.store.GetComment(ctx, c.ID)
}

func (m *MutationService) requirePublished(ctx context.Context, postID uint) error {
	p, err := m.store.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("post %d: %w", postID, err)
	}
	if !p.IsPublished() {
		return ErrNotPublished
	}
	return nil
}

func commentBody(content string) (string, error) {
	body := strings.TrimSpace(utils.Sanitize(strings.TrimSpace(content)))
	if body == "" {
		return "", invalid("content cannot be empty")
	}
	return body, nil
}

// DeleteComment removes a comment and its replies. Only the comment's author
// or an admin may delete it.
func (m *MutationService) DeleteComment(ctx context.Context, id, actorID uint, admin bool) error {
	c, err := m.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != actorID && !admin {
		return ErrForbidden
	}
	return m.store.DeleteComment(ctx, id)
}

// SetCommentActive hides or shows a comment.
func (m *MutationService) SetCommentActive(ctx context.Context, id uint, active bool) error {
	return m.store.SetCommentActive(ctx, id, active)
}

// EnsureAuthor records the identity asserted by the caller.
func (m *MutationService) EnsureAuthor(ctx context.Context, id uint, username string) (*models.User, error) {
	if id == 0 {
		return nil, invalid("author id is required")
	}
	return m.store.EnsureUser(ctx, id, username)
}

// PostInput carries the editable fields of a post. An empty Slug is derived
// from Title and an empty Status keeps the current one (draft for new posts).
type PostInput struct {
	Title      string            `json:"title"`
	Slug       string            `json:"slug"`
	Excerpt    string            `json:"excerpt"`
	Content    string            `json:"content"`
	CategoryID uint              `json:"category_id"`
	TagIDs     []uint            `json:"tag_ids"`
	Status     models.PostStatus `json:"status"`
}

func (in PostInput) apply(p *models.Post) error {
	title := utils.SanitizeText(in.Title)
	if title == "" {
		return invalid("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > 200 {
		return invalid("title is longer than 200 characters")
	}
	content := strings.TrimSpace(utils.Sanitize(in.Content))
	if content == "" {
		return invalid("content cannot be empty")
	}
	excerpt := utils.SanitizeText(in.Excerpt)
	if utf8.RuneCountInString(excerpt) > 500 {
		return invalid("excerpt is longer than 500 characters")
	}
	if in.CategoryID == 0 {
		return invalid("category is required")
	}
	slug := utils.Slugify(in.Slug)
	if slug == "" {
		slug = utils.Slugify(title)
	}
	if slug == "" {
		return invalid("slug cannot be derived from title %q", title)
	}
	switch in.Status {
	case "":
	case models.PostStatusDraft, models.PostStatusPublished:
		p.Status = in.Status
	default:
		return invalid("unknown status %q", in.Status)
	}

	p.Title = title
	p.Slug = slug
	p.Excerpt = excerpt
	p.Content = content
	p.CategoryID = in.CategoryID
	p.Tags = make([]models.Tag, 0, len(in.TagIDs))
	for _, id := range utils.Unique(in.TagIDs) {
		p.Tags = append(p.Tags, models.Tag{ID: id})
	}
	return nil
}

// CreatePost stores a new post written by authorID.
func (m *MutationService) CreatePost(ctx context.Context, authorID uint, in PostInput) (*models.Post, error) {
	p := &models.Post{AuthorID: authorID, Status: models.PostStatusDraft}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := m.store.CreatePost(ctx, p); err != nil {
		return nil, refError(err)
	}
	m.invalidateLists(ctx)
	return m.store.GetPost(ctx, p.ID)
}

// UpdatePost rewrites the editable fields of a post. The view counter and an
// existing publish time are preserved.
func (m *MutationService) UpdatePost(ctx context.Context, id uint, in PostInput) (*models.Post, error) {
	p, err := m.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(p); err != nil {
		return nil, err
	}
	if err := m.store.SavePost(ctx, p); err != nil {
		return nil, refError(err)
	}
	m.invalidateLists(ctx)
	return m.store.GetPost(ctx, id)
}

// refError turns an unresolved category, author or tag reference into a
// validation error; the post itself was found.
func refError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return invalid("%v", err)
	}
	return err
}

// DeletePost removes a post with its comments.
func (m *MutationService) DeletePost(ctx context.Context, id uint) error {
	if err := m.store.DeletePost(ctx, id); err != nil {
		return err
	}
	m.invalidateLists(ctx)
	return nil
}

// CreateCategory adds a category.
func (m *MutationService) CreateCategory(ctx context.Context, name, description string, active bool) (*models.Category, error) {
	c := &models.Category{Name: name, Description: description, IsActive: active}
	if err := cleanCategory(c); err != nil {
		return nil, err
	}
	if err := m.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// CategoryUpdate carries the category fields to change; nil fields are kept.
type CategoryUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateCategory renames, redescribes, hides or shows a category. Hiding a
// category drops its posts from filtered listings and the sidebar.
func (m *MutationService) UpdateCategory(ctx context.Context, id uint, in CategoryUpdate) (*models.Category, error) {
	c, err := m.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := cleanCategory(c); err != nil {
		return nil, err
	}
	if err := m.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	m.invalidateLists(ctx)
	utils.Sugar.Infow("category updated", "category_id", c.ID, "is_active", c.IsActive)
	return m.store.GetCategory(ctx, id)
}

func cleanCategory(c *models.Category) error {
	c.Name = utils.SanitizeText(c.Name)
	if c.Name == "" {
		return invalid("category name cannot be empty")
	}
	if utf8.RuneCountInString(c.Name) > 100 {
		return invalid("category name is longer than 100 characters")
	}
	c.Description = utils.SanitizeText(c.Description)
	if utf8.RuneCountInString(c.Description) > 500 {
		return invalid("category description is longer than 500 characters")
	}
	return nil
}

// DeleteCategory removes a category together with its posts.
func (m *MutationService) DeleteCategory(ctx context.Context, id uint) error {
	if err := m.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	m.invalidateLists(ctx)
	return nil
}

// CreateTag adds a tag.
func (m *MutationService) CreateTag(ctx context.Context, name string, active bool) (*models.Tag, error) {
	t := &models.Tag{Name: name, IsActive: active}
	if err := cleanTag(t); err != nil {
		return nil, err
	}
	if err := m.store.CreateTag(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// TagUpdate carries the tag fields to change; nil fields are kept.
type TagUpdate struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// UpdateTag renames, hides or shows a tag.
func (m *MutationService) UpdateTag(ctx context.Context, id uint, in TagUpdate) (*models.Tag, error) {
	t, err := m.store.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := cleanTag(t); err != nil {
		return nil, err
	}
	if err := m.store.UpdateTag(ctx, t); err != nil {
		return nil, err
	}
	m.invalidateLists(ctx)
	utils.Sugar.Infow("tag updated", "tag_id", t.ID, "is_active", t.IsActive)
	return m.store.GetTag(ctx, id)
}

func cleanTag(t *models.Tag) error {
	t.Name = utils.SanitizeText(t.Name)
	if t.Name == "" {
		return invalid("tag name cannot be empty")
	}
	if utf8.RuneCountInString(t.Name) > 50 {
		return invalid("tag name is longer than 50 characters")
	}
	return nil
}

// DeleteTag removes a tag; its posts are kept.
func (m *MutationService) DeleteTag(ctx context.Context, id uint) error {
	if err := m.store.DeleteTag(ctx, id); err != nil {
		return err
	}
	m.invalidateLists(ctx)
	return nil
}
