package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Post is a blog article written by an author inside a category.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Slug        string     `gorm:"size:200;not null;index" json:"slug"`
	AuthorID    uint       `gorm:"index;not null" json:"author_id"`
	CategoryID  uint       `gorm:"index;not null" json:"category_id"`
	Excerpt     string     `gorm:"size:500" json:"excerpt"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Status      PostStatus `gorm:"size:10;not null;default:draft;index" json:"status"`
	PublishTime *time.Time `gorm:"index" json:"publish_time"`
	Views       uint64     `gorm:"not null;default:0" json:"views"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Author      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category    Category   `json:"category"`
	Tags        []Tag      `gorm:"many2many:post_tags;" json:"tags"`
	Comments    []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// IsPublished reports whether the post is visible to readers.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// StampPublishTime sets PublishTime to now when the post is published and has
// never been stamped. It returns true when a stamp was applied.
func (p *Post) StampPublishTime(now time.Time) bool {
	if p.Status != PostStatusPublished || p.PublishTime != nil {
		return false
	}
	t := now
	p.PublishTime = &t
	return true
}

// BeforeSave stamps the publish time on the first save as published.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = PostStatusDraft
	}
	p.StampPublishTime(time.Now().UTC())
	return nil
}
