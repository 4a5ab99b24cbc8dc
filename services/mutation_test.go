package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h77compass/first-repo/models"
	"github.com/h77compass/first-repo/store"
	"github.com/h77compass/first-repo/store/storetest"
)

func countComments(t *testing.T, e *env) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Comment{}).Count(&n).Error)
	return n
}

func TestPublishStampsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.draft(t, "draft")

	first, err := e.mutate.Publish(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, first.PublishTime)
	assert.Equal(t, models.PostStatusPublished, first.Status)

	again, err := e.mutate.Publish(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, again.PublishTime.Equal(*first.PublishTime))

	down, err := e.mutate.Unpublish(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, down.Status)
	require.NotNil(t, down.PublishTime)
	assert.True(t, down.PublishTime.Equal(*first.PublishTime))

	_, err = e.mutate.Publish(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementViewsConcurrently(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.published(t, "hot", 0)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.mutate.IncrementViews(ctx, p.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := e.store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, got.Views)
}

func TestIncrementViewsSurvivesConcurrentEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.published(t, "before", 0)

	loaded, err := e.store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	_, err = e.mutate.IncrementViews(ctx, p.ID)
	require.NoError(t, err)

	_, err = e.mutate.UpdatePost(ctx, loaded.ID, PostInput{Title: "after", Content: loaded.Content, CategoryID: loaded.CategoryID})
	require.NoError(t, err)

	got, err := e.store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.EqualValues(t, 1, got.Views)
}

func TestAddComment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.published(t, "A", 0)
	draft := e.draft(t, "D")

	for _, content := range []string{"", "   ", "<script>alert(1)</script>"} {
		_, err := e.mutate.AddComment(ctx, p.ID, e.author.ID, content)
		assert.ErrorIs(t, err, ErrValidation, "content %q", content)
	}
	assert.Zero(t, countComments(t, e))

	_, err := e.mutate.AddComment(ctx, 999, e.author.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.mutate.AddComment(ctx, draft.ID, e.author.ID, "hi")
	assert.ErrorIs(t, err, ErrNotPublished)
	assert.Zero(t, countComments(t, e))

	c, err := e.mutate.AddComment(ctx, p.ID, e.author.ID, "  <b>nice</b> post <script>x</script> ")
	require.NoError(t, err)
	assert.Nil(t, c.ParentID)
	assert.True(t, c.IsActive)
	assert.Equal(t, "<b>nice</b> post", c.Content)
	assert.Equal(t, "alice", c.Author.Username)
}

func TestReplyToComment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.published(t, "A", 0)
	u2 := storetest.User(t, e.db, "u2")
	c1 := storetest.Comment(t, e.db, a, e.author, nil, "first", storetest.Base)

	reply, err := e.mutate.ReplyToComment(ctx, c1.ID, u2.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, a.ID, reply.PostID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, c1.ID, *reply.ParentID)
	assert.Equal(t, u2.ID, reply.AuthorID)

	deeper, err := e.mutate.ReplyToComment(ctx, reply.ID, e.author.ID, "and again")
	require.NoError(t, err)
	assert.Equal(t, reply.ID, *deeper.ParentID)
	assert.Equal(t, a.ID, deeper.PostID)

	_, err = e.mutate.ReplyToComment(ctx, 999, u2.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.mutate.ReplyToComment(ctx, c1.ID, u2.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.mutate.Unpublish(ctx, a.ID)
	require.NoError(t, err)
	_, err = e.mutate.ReplyToComment(ctx, c1.ID, u2.ID, "late")
	assert.ErrorIs(t, err, ErrNotPublished)
	assert.EqualValues(t, 3, countComments(t, e))
}

func TestDeleteCommentOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.published(t, "P", 0)
	bob := storetest.User(t, e.db, "bob")
	mine := storetest.Comment(t, e.db, p, e.author, nil, "mine", storetest.Base)
	storetest.Comment(t, e.db, p, bob, mine, "reply", storetest.Base)
	theirs := storetest.Comment(t, e.db, p, bob, nil, "theirs", storetest.Base)

	assert.ErrorIs(t, e.mutate.DeleteComment(ctx, theirs.ID, e.author.ID, false), ErrForbidden)
	require.NoError(t, e.mutate.DeleteComment(ctx, mine.ID, e.author.ID, false))
	assert.EqualValues(t, 1, countComments(t, e))
	require.NoError(t, e.mutate.DeleteComment(ctx, theirs.ID, e.author.ID, true))
	assert.ErrorIs(t, e.mutate.DeleteComment(ctx, theirs.ID, bob.ID, false), ErrNotFound)
}

func TestCreateAndUpdatePost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tag := storetest.Tag(t, e.db, "go", true)

	p, err := e.mutate.CreatePost(ctx, e.author.ID, PostInput{
		Title:      "  Hello <i>World</i> ",
		Content:    "<p>body</p>",
		CategoryID: e.cat.ID,
		TagIDs:     []uint{tag.ID, tag.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", p.Title)
	assert.Equal(t, "hello-world", p.Slug)
	assert.Equal(t, models.PostStatusDraft, p.Status)
	assert.Nil(t, p.PublishTime)
	require.Len(t, p.Tags, 1)

	p, err = e.mutate.UpdatePost(ctx, p.ID, PostInput{Title: "Hello World", Slug: "Custom Slug", Content: "body", CategoryID: e.cat.ID, Status: models.PostStatusPublished})
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", p.Slug)
	require.NotNil(t, p.PublishTime)
	assert.Empty(t, p.Tags)
	stamped := *p.PublishTime

	time.Sleep(time.Millisecond)
	p, err = e.mutate.UpdatePost(ctx, p.ID, PostInput{Title: "Renamed", Content: "body", CategoryID: e.cat.ID})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, p.Status)
	assert.True(t, p.PublishTime.Equal(stamped))
}

func TestCreatePostValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := map[string]PostInput{
		"blank title":      {Title: " ", Content: "x", CategoryID: e.cat.ID},
		"blank content":    {Title: "t", Content: "<script></script>", CategoryID: e.cat.ID},
		"no category":      {Title: "t", Content: "x"},
		"unknown category": {Title: "t", Content: "x", CategoryID: 999},
		"unknown tag":      {Title: "t", Content: "x", CategoryID: e.cat.ID, TagIDs: []uint{999}},
		"bad status":       {Title: "t", Content: "x", CategoryID: e.cat.ID, Status: "archived"},
		"no slug":          {Title: "!!!", Content: "x", CategoryID: e.cat.ID},
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := e.mutate.CreatePost(ctx, e.author.ID, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := e.mutate.UpdatePost(ctx, 999, PostInput{Title: "t", Content: "x", CategoryID: e.cat.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePostSlugClash(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	in := PostInput{Title: "Daily", Content: "x", CategoryID: e.cat.ID, Status: models.PostStatusPublished}

	_, err := e.mutate.CreatePost(ctx, e.author.ID, in)
	require.NoError(t, err)
	_, err = e.mutate.CreatePost(ctx, e.author.ID, in)
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestCategoryAndTagLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.mutate.CreateCategory(ctx, "  ", "", true)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.mutate.CreateTag(ctx, "", true)
	assert.ErrorIs(t, err, ErrValidation)

	cat, err := e.mutate.CreateCategory(ctx, "Rust", "systems", false)
	require.NoError(t, err)
	assert.False(t, cat.IsActive)
	tag, err := e.mutate.CreateTag(ctx, "tips", true)
	require.NoError(t, err)

	p := storetest.Post(t, e.db, storetest.PostOpts{Title: "r", Author: e.author, Category: cat, Tags: []*models.Tag{tag}, PublishedAt: storetest.At(0)})
	storetest.Comment(t, e.db, p, e.author, nil, "c", storetest.Base)

	require.NoError(t, e.mutate.DeleteTag(ctx, tag.ID))
	_, err = e.store.GetPost(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, e.mutate.DeleteCategory(ctx, cat.ID))
	_, err = e.store.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, countComments(t, e))

	require.NoError(t, e.mutate.DeletePost(ctx, e.published(t, "x", 0).ID))
	assert.ErrorIs(t, e.mutate.DeletePost(ctx, 999), ErrNotFound)
}

func TestEnsureAuthor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.mutate.EnsureAuthor(ctx, 0, "nobody")
	assert.ErrorIs(t, err, ErrValidation)

	u, err := e.mutate.EnsureAuthor(ctx, 42, "zed")
	require.NoError(t, err)
	assert.Equal(t, uint(42), u.ID)

	res, err := e.query.ListPublished(ctx, store.PostFilter{AuthorID: 42}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestUpdateCategoryAndTag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tag := storetest.Tag(t, e.db, "tips", true)
	storetest.Post(t, e.db, storetest.PostOpts{Title: "p", Author: e.author, Category: e.cat, Tags: []*models.Tag{tag}, PublishedAt: storetest.At(0)})

	hidden := false
	cat, err := e.mutate.UpdateCategory(ctx, e.cat.ID, CategoryUpdate{IsActive: &hidden})
	require.NoError(t, err)
	assert.False(t, cat.IsActive)
	assert.Equal(t, "Go", cat.Name, "unset fields are kept")
	_, err = e.query.ListPublished(ctx, store.PostFilter{CategoryID: e.cat.ID}, 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	name, desc, shown := "  <b>Golang</b> ", "all things go", true
	cat, err = e.mutate.UpdateCategory(ctx, e.cat.ID, CategoryUpdate{Name: &name, Description: &desc, IsActive: &shown})
	require.NoError(t, err)
	assert.Equal(t, "Golang", cat.Name)
	assert.Equal(t, "all things go", cat.Description)
	res, err := e.query.ListPublished(ctx, store.PostFilter{CategoryID: e.cat.ID}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)

	tg, err := e.mutate.UpdateTag(ctx, tag.ID, TagUpdate{IsActive: &hidden})
	require.NoError(t, err)
	assert.False(t, tg.IsActive)
	assert.Equal(t, "tips", tg.Name)
	_, err = e.query.ListPublished(ctx, store.PostFilter{TagID: tag.ID}, 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)

	blank := "   "
	_, err = e.mutate.UpdateCategory(ctx, e.cat.ID, CategoryUpdate{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)
	long := strings.Repeat("x", 51)
	_, err = e.mutate.UpdateTag(ctx, tag.ID, TagUpdate{Name: &long})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = e.mutate.UpdateCategory(ctx, 999, CategoryUpdate{IsActive: &shown})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.mutate.UpdateTag(ctx, 999, TagUpdate{IsActive: &shown})
	assert.ErrorIs(t, err, ErrNotFound)
}
