package utils

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World! 2026":      "hello-world-2026",
		"  spaces   and_under  ": "spaces-and-under",
		"--Already-Slugged--":     "already-slugged",
		"Grüße aus Köln":          "grüße-aus-köln",
		"!!!":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}

	long := Slugify(strings.Repeat("ab ", 150))
	assert.LessOrEqual(t, len([]rune(long)), 200)
	assert.False(t, strings.HasSuffix(long, "-"))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, Unique([]uint{3, 1, 3, 2, 1}))
	assert.Empty(t, Unique([]string(nil)))
}

func TestSanitize(t *testing.T) {
	out := Sanitize(`<a href="https://go.dev" onclick="x()">go</a> <script>alert(1)</script>`)
	assert.Contains(t, out, `href="https://go.dev"`)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "script")
	assert.Equal(t, "Title", SanitizeText("  <h1>Title</h1> "))
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("s3cret", 9, "alice", time.Minute)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = ParseToken("other", tok)
	assert.Error(t, err)

	_, err = GenerateToken("", 9, "alice", time.Minute)
	assert.Error(t, err)

	anonymous, err := GenerateToken("s3cret", 0, "ghost", time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("s3cret", anonymous)
	assert.Error(t, err)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 2, PageSize: 10, Total: 21, TotalPages: 3}, NewPagination(2, 10, 21))
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
	assert.Equal(t, 0, NewPagination(1, 0, 5).TotalPages)
}

func TestResponseEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	Abort(ctx, http.StatusTeapot, 41800, "no coffee")
	assert.True(t, ctx.IsAborted())
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.JSONEq(t, `{"code":41800,"message":"no coffee"}`, w.Body.String())

	w = httptest.NewRecorder()
	ctx, _ = gin.CreateTestContext(w)
	Success(ctx, gin.H{"ok": true})
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"ok":true}}`, w.Body.String())
}

func TestCacheWithoutRedisIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*Cache{nil, NewCache(nil)} {
		assert.False(t, c.Enabled())
		c.SetJSON(ctx, "k", map[string]int{"a": 1}, time.Minute)
		var v map[string]int
		assert.False(t, c.GetJSON(ctx, "k", &v))
		c.InvalidateByPrefix(ctx, "k")
	}
}

func TestServerShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := NewServer(ln.Addr().String(), handler, time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
