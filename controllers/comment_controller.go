package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/h77compass/first-repo/services"
	"github.com/h77compass/first-repo/utils"
)

// CommentController lets authenticated readers comment and reply.
type CommentController struct {
	mutate *services.MutationService
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(mutate *services.MutationService) *CommentController {
	return &CommentController{mutate: mutate}
}

type commentRequest struct {
	Content string `json:"content"`
}

// CreateComment adds a top-level comment to a published post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}
	author, ok := currentAuthor(ctx, c.mutate)
	if !ok {
		return
	}
	comment, err := c.mutate.AddComment(ctx.Request.Context(), postID, author.ID, req.Content)
	if err != nil {
		respondError(ctx, err, "failed to create comment")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"comment": comment})
}

// ReplyComment answers an existing comment.
func (c *CommentController) ReplyComment(ctx *gin.Context) {
	parentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}
	author, ok := currentAuthor(ctx, c.mutate)
	if !ok {
		return
	}
	comment, err := c.mutate.ReplyToComment(ctx.Request.Context(), parentID, author.ID, req.Content)
	if err != nil {
		respondError(ctx, err, "failed to create reply")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"comment": comment})
}

// DeleteComment allows the comment owner or an admin to delete a comment and
// its replies.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	author, ok := currentAuthor(ctx, c.mutate)
	if !ok {
		return
	}
	if err := c.mutate.DeleteComment(ctx.Request.Context(), id, author.ID, isAdmin(ctx)); err != nil {
		respondError(ctx, err, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
