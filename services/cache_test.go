package services

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h77compass/first-repo/store"
	"github.com/h77compass/first-repo/utils"
)

// withRedis rebuilds e's services over an in-process Redis.
func withRedis(t *testing.T, e *env) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	cache := utils.NewCache(rc)
	e.query = NewQueryService(e.store, cache, 0)
	e.mutate = NewMutationService(e.store, cache)
	return mr
}

func listKeys(mr *miniredis.Miniredis) []string {
	var out []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, ListCachePrefix) {
			out = append(out, k)
		}
	}
	return out
}

func TestListPublishedServesCachedPage(t *testing.T) {
	e := newEnv(t)
	mr := withRedis(t, e)
	ctx := context.Background()
	first := e.published(t, "first", 0)

	res, err := e.query.ListPublished(ctx, store.PostFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID}, postIDs(res.Items))
	require.Len(t, listKeys(mr), 1)

	// Written behind the service's back, so only a cache miss would show it.
	e.published(t, "second", 0)
	res, err = e.query.ListPublished(ctx, store.PostFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID}, postIDs(res.Items))
	assert.EqualValues(t, 1, res.Pagination.Total)
}

func TestUnpublishDropsCachedPages(t *testing.T) {
	e := newEnv(t)
	mr := withRedis(t, e)
	ctx := context.Background()
	older := e.published(t, "older", 0)
	newer := e.published(t, "newer", 0)

	res, err := e.query.ListPublished(ctx, store.PostFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	_, err = e.query.ListPublished(ctx, store.PostFilter{CategoryID: e.cat.ID}, 1, 10)
	require.NoError(t, err)
	require.Len(t, listKeys(mr), 2)

	_, err = e.mutate.Unpublish(ctx, newer.ID)
	require.NoError(t, err)
	assert.Empty(t, listKeys(mr))

	res, err = e.query.ListPublished(ctx, store.PostFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{older.ID}, postIDs(res.Items))

	_, err = e.mutate.Publish(ctx, newer.ID)
	require.NoError(t, err)
	assert.Empty(t, listKeys(mr))
}

func TestAuthoringWritesDropCachedPages(t *testing.T) {
	e := newEnv(t)
	mr := withRedis(t, e)
	ctx := context.Background()
	e.published(t, "p", 0)

	warm := func() {
		t.Helper()
		_, err := e.query.ListPublished(ctx, store.PostFilter{}, 1, 10)
		require.NoError(t, err)
		require.NotEmpty(t, listKeys(mr))
	}

	warm()
	hidden := false
	_, err := e.mutate.UpdateCategory(ctx, e.cat.ID, CategoryUpdate{IsActive: &hidden})
	require.NoError(t, err)
	assert.Empty(t, listKeys(mr), "category update")

	warm()
	_, err = e.mutate.CreatePost(ctx, e.author.ID, PostInput{Title: "new", Content: "body", CategoryID: e.cat.ID, Status: "published"})
	require.NoError(t, err)
	assert.Empty(t, listKeys(mr), "post create")

	warm()
	_, err = e.mutate.IncrementViews(ctx, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, listKeys(mr), "view counts do not drop cached pages")
}
