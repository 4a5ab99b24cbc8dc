// Package storetest opens throwaway SQLite databases with the blog schema and
// inserts fixtures for tests.
package storetest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/h77compass/first-repo/config"
	"github.com/h77compass/first-repo/models"
)

var seq atomic.Int64

// Base is a fixed instant fixtures are built around.
var Base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// OpenDB returns a migrated in-memory database private to the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storetest_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(config.SQLiteDialector(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// User inserts an author.
func User(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username}
	mustCreate(t, db, u)
	return u
}

// Category inserts a category; inactive ones are flipped after insert.
func Category(t testing.TB, db *gorm.DB, name string, active bool) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, IsActive: true}
	mustCreate(t, db, c)
	if !active {
		setInactive(t, db, c)
		c.IsActive = false
	}
	return c
}

// Tag inserts a tag; inactive ones are flipped after insert.
func Tag(t testing.TB, db *gorm.DB, name string, active bool) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, IsActive: true}
	mustCreate(t, db, tag)
	if !active {
		setInactive(t, db, tag)
		tag.IsActive = false
	}
	return tag
}

// PostOpts describes a post fixture.
type PostOpts struct {
	Title    string
	Content  string
	Excerpt  string
	Author   *models.User
	Category *models.Category
	Tags     []*models.Tag
	// PublishedAt publishes the post at the given time; nil leaves a draft.
	PublishedAt *time.Time
}

// Post inserts a post with the given options.
func Post(t testing.TB, db *gorm.DB, o PostOpts) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:      o.Title,
		Slug:       fmt.Sprintf("post-%d", seq.Add(1)),
		AuthorID:   o.Author.ID,
		CategoryID: o.Category.ID,
		Excerpt:    o.Excerpt,
		Content:    o.Content,
		Status:     models.PostStatusDraft,
	}
	if p.Content == "" {
		p.Content = "body of " + o.Title
	}
	if o.PublishedAt != nil {
		at := o.PublishedAt.UTC()
		p.Status = models.PostStatusPublished
		p.PublishTime = &at
	}
	if err := db.Omit("Author", "Category", "Tags", "Comments").Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	for _, tag := range o.Tags {
		row := map[string]interface{}{"post_id": p.ID, "tag_id": tag.ID}
		if err := db.Table("post_tags").Create(row).Error; err != nil {
			t.Fatalf("link tag: %v", err)
		}
	}
	return p
}

// Comment inserts a comment; parent may be nil.
func Comment(t testing.TB, db *gorm.DB, post *models.Post, author *models.User, parent *models.Comment, content string, createdAt time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Content:   content,
		IsActive:  true,
		CreatedAt: createdAt.UTC(),
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	if err := db.Omit("Author", "Replies").Create(c).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}

// At returns Base shifted by d.
func At(d time.Duration) *time.Time {
	t := Base.Add(d)
	return &t
}

func mustCreate(t testing.TB, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func setInactive(t testing.TB, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Model(v).UpdateColumn("is_active", false).Error; err != nil {
		t.Fatalf("deactivate %T: %v", v, err)
	}
}
