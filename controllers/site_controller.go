package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/h77compass/first-repo/config"
	"github.com/h77compass/first-repo/utils"
)

// SiteController serves configuration-driven site information.
type SiteController struct{}

func NewSiteController() *SiteController { return &SiteController{} }

// GetSite returns the site title, description and notice.
func (s *SiteController) GetSite(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"title":       cfg.SiteTitle,
		"description": cfg.SiteDescription,
		"notice_html": cfg.NoticeHTML,
	})
}
