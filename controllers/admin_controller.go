package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/h77compass/first-repo/services"
	"github.com/h77compass/first-repo/utils"
)

// AdminController handles authoring: posts, categories, tags and comment
// moderation. Routes are guarded by middleware.AdminRequired.
type AdminController struct {
	mutate *services.MutationService
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(mutate *services.MutationService) *AdminController {
	return &AdminController{mutate: mutate}
}

// CreatePost stores a post authored by the caller.
func (a *AdminController) CreatePost(ctx *gin.Context) {
	var in services.PostInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	author, ok := currentAuthor(ctx, a.mutate)
	if !ok {
		return
	}
	post, err := a.mutate.CreatePost(ctx.Request.Context(), author.ID, in)
	if err != nil {
		respondError(ctx, err, "failed to create post")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"post": post})
}

// UpdatePost rewrites the editable fields of a post.
func (a *AdminController) UpdatePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var in services.PostInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	post, err := a.mutate.UpdatePost(ctx.Request.Context(), id, in)
	if err != nil {
		respondError(ctx, err, "failed to update post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// PublishPost publishes a post.
func (a *AdminController) PublishPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	post, err := a.mutate.Publish(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "failed to publish post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// UnpublishPost moves a post back to draft.
func (a *AdminController) UnpublishPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	post, err := a.mutate.Unpublish(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "failed to unpublish post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost deletes a post with its comments.
func (a *AdminController) DeletePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.mutate.DeletePost(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "failed to delete post")
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateCategory adds a category. Categories are active unless is_active is false.
func (a *AdminController) CreateCategory(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		IsActive    *bool  `json:"is_active"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	cat, err := a.mutate.CreateCategory(ctx.Request.Context(), req.Name, req.Description, req.IsActive == nil || *req.IsActive)
	if err != nil {
		respondError(ctx, err, "failed to create category")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"category": cat})
}

// UpdateCategory changes name, description or visibility of a category.
func (a *AdminController) UpdateCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req services.CategoryUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	cat, err := a.mutate.UpdateCategory(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err, "failed to update category")
		return
	}
	utils.Success(ctx, gin.H{"category": cat})
}

// DeleteCategory deletes a category and every post in it.
func (a *AdminController) DeleteCategory(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.mutate.DeleteCategory(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "failed to delete category")
		return
	}
	utils.Success(ctx, gin.H{"message": "category deleted"})
}

// CreateTag adds a tag.
func (a *AdminController) CreateTag(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		IsActive *bool  `json:"is_active"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	tag, err := a.mutate.CreateTag(ctx.Request.Context(), req.Name, req.IsActive == nil || *req.IsActive)
	if err != nil {
		respondError(ctx, err, "failed to create tag")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"tag": tag})
}

// UpdateTag changes name or visibility of a tag.
func (a *AdminController) UpdateTag(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req services.TagUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	tag, err := a.mutate.UpdateTag(ctx.Request.Context(), id, req)
	if err != nil {
		respondError(ctx, err, "failed to update tag")
		return
	}
	utils.Success(ctx, gin.H{"tag": tag})
}

// DeleteTag deletes a tag; tagged posts are kept.
func (a *AdminController) DeleteTag(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := a.mutate.DeleteTag(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err, "failed to delete tag")
		return
	}
	utils.Success(ctx, gin.H{"message": "tag deleted"})
}

// SetCommentActive hides or shows a comment.
func (a *AdminController) SetCommentActive(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if err := a.mutate.SetCommentActive(ctx.Request.Context(), id, *req.IsActive); err != nil {
		respondError(ctx, err, "failed to update comment")
		return
	}
	utils.Success(ctx, gin.H{"id": id, "is_active": *req.IsActive})
}
