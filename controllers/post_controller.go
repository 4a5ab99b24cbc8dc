package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/h77compass/first-repo/models"
	"github.com/h77compass/first-repo/services"
	"github.com/h77compass/first-repo/store"
	"github.com/h77compass/first-repo/utils"
)

// PostController serves the reader side: listings, search and post detail.
type PostController struct {
	query  *services.QueryService
	mutate *services.MutationService
}

// NewPostController creates a new PostController instance.
func NewPostController(query *services.QueryService, mutate *services.MutationService) *PostController {
	return &PostController{query: query, mutate: mutate}
}

// ListPosts returns published posts with the sidebar.
func (p *PostController) ListPosts(ctx *gin.Context) {
	p.list(ctx, store.PostFilter{})
}

// ListCategoryPosts returns published posts of an active category.
func (p *PostController) ListCategoryPosts(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	p.list(ctx, store.PostFilter{CategoryID: id})
}

// ListTagPosts returns published posts carrying an active tag.
func (p *PostController) ListTagPosts(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	p.list(ctx, store.PostFilter{TagID: id})
}

// ListAuthorPosts returns published posts of one author.
func (p *PostController) ListAuthorPosts(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	p.list(ctx, store.PostFilter{AuthorID: id})
}

func (p *PostController) list(ctx *gin.Context, f store.PostFilter) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	res, err := p.query.ListPublished(ctx.Request.Context(), f, page, pageSize)
	if err != nil {
		respondError(ctx, err, "failed to list posts")
		return
	}
	sidebar, err := p.query.Sidebar(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, "failed to load sidebar")
		return
	}
	utils.Success(ctx, gin.H{
		"items":      res.Items,
		"pagination": res.Pagination,
		"sidebar":    sidebar,
	})
}

// Search matches published posts against the q parameter.
func (p *PostController) Search(ctx *gin.Context) {
	q, present := ctx.GetQuery("q")
	if !present || strings.TrimSpace(q) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40010, "missing search query")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	res, err := p.query.Search(ctx.Request.Context(), q, page, pageSize)
	if err != nil {
		respondError(ctx, err, "failed to search posts")
		return
	}
	utils.Success(ctx, gin.H{
		"query":      strings.TrimSpace(q),
		"items":      res.Items,
		"pagination": res.Pagination,
	})
}

// GetPost returns a published post with its comment thread and neighbours,
// counting the view.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	c := ctx.Request.Context()

	post, err := p.query.GetPublishedPost(c, id)
	if err != nil {
		respondError(ctx, err, "failed to load post")
		return
	}
	views, err := p.mutate.IncrementViews(c, id)
	if err != nil {
		respondError(ctx, err, "failed to count view")
		return
	}
	post.Views = views

	comments, err := p.query.CommentThread(c, id)
	if err != nil {
		respondError(ctx, err, "failed to load comments")
		return
	}
	prev, next, err := p.query.AdjacentPosts(c, post)
	if err != nil {
		respondError(ctx, err, "failed to load adjacent posts")
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	utils.Success(ctx, gin.H{
		"post":     post,
		"comments": comments,
		"previous": prev,
		"next":     next,
	})
}
