package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/h77compass/first-repo/config"
	"github.com/h77compass/first-repo/controllers"
	"github.com/h77compass/first-repo/middleware"
	"github.com/h77compass/first-repo/services"
	"github.com/h77compass/first-repo/store"
	"github.com/h77compass/first-repo/utils"
)

// Deps are the collaborators the router hands to controllers.
type Deps struct {
	Query  *services.QueryService
	Mutate *services.MutationService
	// AccessLog receives one entry per request; nil falls back to utils.Logger.
	AccessLog *zap.Logger
}

// SetupRouter builds the services over db and the configured Redis cache and
// wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	st := store.New(db)
	cache := utils.NewCache(utils.GetRedis())

	deps := Deps{
		Query:  services.NewQueryService(st, cache, cfg.RecentPosts),
		Mutate: services.NewMutationService(st, cache),
	}
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("access log unavailable, using application log: %v", err)
	} else {
		deps.AccessLog = gl
	}
	return NewRouter(cfg, deps)
}

// NewRouter wires routes for cfg over deps.
func NewRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	accessLog := deps.AccessLog
	if accessLog == nil {
		accessLog = utils.Logger
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Ginzap(accessLog, time.RFC3339, true))
	r.Use(middleware.RecoveryWithZap(accessLog, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(deps.Query, deps.Mutate)
	commentController := controllers.NewCommentController(deps.Mutate)
	adminController := controllers.NewAdminController(deps.Mutate)
	statsController := controllers.NewStatsController(deps.Query)
	siteController := controllers.NewSiteController()

	api := r.Group("/api/v1")

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/categories/:id/posts", postController.ListCategoryPosts)
	api.GET("/tags/:id/posts", postController.ListTagPosts)
	api.GET("/authors/:id/posts", postController.ListAuthorPosts)
	api.GET("/search", postController.Search)
	api.GET("/stats", statsController.GetStats)
	api.GET("/site", siteController.GetSite)

	limiter := middleware.RateLimit(cfg.RateLimitPerMinute)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), limiter)
	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.POST("/comments/:id/replies", commentController.ReplyComment)
	protected.DELETE("/comments/:id", commentController.DeleteComment)

	admin := api.Group("")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), limiter)
	admin.POST("/posts", adminController.CreatePost)
	admin.PUT("/posts/:id", adminController.UpdatePost)
	admin.POST("/posts/:id/publish", adminController.PublishPost)
	admin.POST("/posts/:id/unpublish", adminController.UnpublishPost)
	admin.DELETE("/posts/:id", adminController.DeletePost)
	admin.POST("/categories", adminController.CreateCategory)
	admin.PUT("/categories/:id", adminController.UpdateCategory)
	admin.DELETE("/categories/:id", adminController.DeleteCategory)
	admin.POST("/tags", adminController.CreateTag)
	admin.PUT("/tags/:id", adminController.UpdateTag)
	admin.DELETE("/tags/:id", adminController.DeleteTag)
	admin.PUT("/comments/:id/active", adminController.SetCommentActive)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
	})

	return r
}
