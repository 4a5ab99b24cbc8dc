package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h77compass/first-repo/models"
	"github.com/h77compass/first-repo/store"
	"github.com/h77compass/first-repo/store/storetest"
)

func TestListPublishedPagesPartitionResults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var want []uint
	// Several posts share a publish time so the tiebreak decides the order.
	offsets := []time.Duration{0, time.Hour, time.Hour, time.Hour, 2 * time.Hour, 3 * time.Hour, 3 * time.Hour}
	for i, d := range offsets {
		p := e.published(t, "post", d)
		want = append([]uint{p.ID}, want...)
		if i%3 == 0 {
			e.draft(t, "draft")
		}
	}

	var got []uint
	for page := 1; ; page++ {
		res, err := e.query.ListPublished(ctx, store.PostFilter{}, page, 3)
		require.NoError(t, err)
		assert.EqualValues(t, len(offsets), res.Pagination.Total)
		assert.Equal(t, 3, res.Pagination.TotalPages)
		if len(res.Items) == 0 {
			break
		}
		for _, p := range res.Items {
			assert.Equal(t, models.PostStatusPublished, p.Status)
		}
		got = append(got, postIDs(res.Items)...)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("listing order mismatch (-want +got):\n%s", diff)
	}
}

func TestListPublishedRejectsHiddenFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	hiddenCat := storetest.Category(t, e.db, "Hidden", false)
	hiddenTag := storetest.Tag(t, e.db, "hidden", false)
	tag := storetest.Tag(t, e.db, "visible", true)
	p := storetest.Post(t, e.db, storetest.PostOpts{Title: "tagged", Author: e.author, Category: e.cat, Tags: []*models.Tag{tag}, PublishedAt: storetest.At(0)})

	for name, f := range map[string]store.PostFilter{
		"missing category":  {CategoryID: 999},
		"inactive category": {CategoryID: hiddenCat.ID},
		"missing tag":       {TagID: 999},
		"inactive tag":      {TagID: hiddenTag.ID},
		"unknown author":    {AuthorID: 999},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.query.ListPublished(ctx, f, 1, 10)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}

	res, err := e.query.ListPublished(ctx, store.PostFilter{TagID: tag.ID, AuthorID: e.author.ID, CategoryID: e.cat.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{p.ID}, postIDs(res.Items))
}

func TestGetPublishedPost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	pub := e.published(t, "live", 0)
	draft := e.draft(t, "secret")

	got, err := e.query.GetPublishedPost(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Author.Username)

	_, err = e.query.GetPublishedPost(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotPublished)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.query.GetPublishedPost(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrNotPublished)
}

func TestSearchBlankQueryReturnsNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.published(t, "anything", 0)

	for _, q := range []string{"", "  \t"} {
		res, err := e.query.Search(ctx, q, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Zero(t, res.Pagination.Total)
	}

	res, err := e.query.Search(ctx, "ANYTHING", 0, 0)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, DefaultPageSize, res.Pagination.PageSize)
}

func TestAdjacentPosts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.published(t, "A", 0)
	b := e.published(t, "B", time.Hour)
	draft := e.draft(t, "D")

	prev, next, err := e.query.AdjacentPosts(ctx, a)
	require.NoError(t, err)
	assert.Nil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, b.ID, next.ID)

	prev, next, err = e.query.AdjacentPosts(ctx, b)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, a.ID, prev.ID)
	assert.Nil(t, next)

	prev, next, err = e.query.AdjacentPosts(ctx, draft)
	require.NoError(t, err)
	assert.Nil(t, prev)
	assert.Nil(t, next)
}

func TestActiveTopLevelCommentsAndThread(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.published(t, "P", 0)
	bob := storetest.User(t, e.db, "bob")

	late := storetest.Comment(t, e.db, p, e.author, nil, "late", storetest.Base.Add(3*time.Minute))
	early := storetest.Comment(t, e.db, p, bob, nil, "early", storetest.Base.Add(time.Minute))
	reply := storetest.Comment(t, e.db, p, e.author, early, "reply", storetest.Base.Add(4*time.Minute))
	nested := storetest.Comment(t, e.db, p, bob, reply, "nested", storetest.Base.Add(5*time.Minute))
	hidden := storetest.Comment(t, e.db, p, bob, nil, "hidden", storetest.Base.Add(2*time.Minute))
	underHidden := storetest.Comment(t, e.db, p, e.author, hidden, "orphaned", storetest.Base.Add(6*time.Minute))
	require.NoError(t, e.store.SetCommentActive(ctx, hidden.ID, false))

	top, err := e.query.ActiveTopLevelComments(ctx, p.ID)
	require.NoError(t, err)
	if diff := cmp.Diff([]uint{early.ID, late.ID}, commentIDs(top)); diff != "" {
		t.Fatalf("top-level comments (-want +got):\n%s", diff)
	}

	thread, err := e.query.CommentThread(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, early.ID, thread[0].ID)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, reply.ID, thread[0].Replies[0].ID)
	require.Len(t, thread[0].Replies[0].Replies, 1)
	assert.Equal(t, nested.ID, thread[0].Replies[0].Replies[0].ID)
	assert.Empty(t, thread[1].Replies)
	for _, c := range thread {
		assert.NotEqual(t, underHidden.ID, c.ID)
	}
}

func TestBuildThreadKeepsOrderOfChildren(t *testing.T) {
	parent := uint(1)
	flat := []models.Comment{
		{ID: 1},
		{ID: 3, ParentID: &parent},
		{ID: 2},
		{ID: 4, ParentID: &parent},
	}
	got := buildThread(flat)
	require.Len(t, got, 2)
	assert.Equal(t, []uint{1, 2}, commentIDs(got))
	assert.Equal(t, []uint{3, 4}, commentIDs(got[0].Replies))
}

func TestSidebar(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	storetest.Category(t, e.db, "Hidden", false)
	active := storetest.Tag(t, e.db, "on", true)
	storetest.Tag(t, e.db, "off", false)
	var newest []uint
	for i := 0; i < 7; i++ {
		p := e.published(t, "p", time.Duration(i)*time.Hour)
		newest = append([]uint{p.ID}, newest...)
	}
	e.draft(t, "not shown")

	q := NewQueryService(e.store, nil, 5)
	sb, err := q.Sidebar(ctx)
	require.NoError(t, err)
	require.Len(t, sb.Categories, 1)
	assert.Equal(t, e.cat.ID, sb.Categories[0].ID)
	require.Len(t, sb.Tags, 1)
	assert.Equal(t, active.ID, sb.Tags[0].ID)
	if diff := cmp.Diff(newest[:5], postIDs(sb.RecentPosts)); diff != "" {
		t.Fatalf("recent posts (-want +got):\n%s", diff)
	}
}

func TestListPublishedHugePageIsEmpty(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.published(t, "only", 0)

	for _, page := range []int{math.MaxInt / 5, math.MaxInt, MaxPage} {
		res, err := e.query.ListPublished(ctx, store.PostFilter{}, page, 10)
		require.NoError(t, err)
		assert.Empty(t, res.Items, "page %d", page)
		assert.EqualValues(t, 1, res.Pagination.Total)

		found, err := e.query.Search(ctx, "only", page, 10)
		require.NoError(t, err)
		assert.Empty(t, found.Items, "search page %d", page)
	}
}
