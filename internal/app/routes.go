package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/nodepress/internal/middleware"
	"github.com/mx-space/nodepress/internal/modules/comment"
	"github.com/mx-space/nodepress/internal/modules/disqus"
	"github.com/mx-space/nodepress/internal/modules/option"
	"github.com/mx-space/nodepress/internal/modules/post"
	"github.com/mx-space/nodepress/internal/modules/vote"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
	"github.com/mx-space/nodepress/internal/pkg/response"
	"github.com/redis/go-redis/v9"
)

const (
	apiPrefix = "/api"

	commentWriteLimit = 10
	voteWriteLimit    = 30
	writeLimitWindow  = time.Minute
)

func (a *App) registerRoutes() {
	r := a.router
	db := a.db
	authMW := middleware.Auth()
	optionalAuthMW := middleware.OptionalAuth()

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "not found")
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	var rdb *redis.Client
	if a.rc != nil {
		rdb = a.rc.Raw()
	}
	commentLimit := middleware.RateLimit(rdb, "comment", commentWriteLimit, writeLimitWindow, a.logger)
	voteLimit := middleware.RateLimit(rdb, "vote", voteWriteLimit, writeLimitWindow, a.logger)

	commentSvc := comment.NewService(db, a.spam, a.cfg.Site.URL, a.logger)

	api := disqusapi.New(disqusapi.Options{
		APIKey:    a.cfg.Disqus.PublicKey,
		APISecret: a.cfg.Disqus.SecretKey,
	})
	opts := disqus.Options{
		Forum:            a.cfg.Disqus.Forum,
		SiteURL:          a.cfg.Site.URL,
		CallbackURL:      a.cfg.Disqus.OAuthCallbackURL,
		AdminAccessToken: a.cfg.Disqus.AdminAccessToken,
		ThreadTTL:        a.cfg.CacheTTL,
	}
	privateSvc := disqus.NewPrivateService(api, commentSvc, opts, a.logger)
	disqusSvc := disqus.NewService(api, privateSvc, commentSvc, a.cache, opts, a.logger)
	voteSvc := vote.NewService(db, disqusSvc, a.logger)

	appInfo := gin.H{
		"name":    a.cfg.Site.Name,
		"site":    a.cfg.Site.URL,
		"version": "1.0.0",
	}

	g := r.Group(apiPrefix)
	g.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	g.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	g.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	post.NewHandler(post.NewService(db)).RegisterRoutes(g, authMW, optionalAuthMW)
	option.NewHandler(option.NewService(db)).RegisterRoutes(g, authMW)
	comment.NewHandler(commentSvc).RegisterRoutes(g, authMW, optionalAuthMW)
	disqus.NewHandler(disqusSvc, privateSvc, a.cfg).RegisterRoutes(g, authMW, commentLimit)
	vote.NewHandler(voteSvc).RegisterRoutes(g, authMW, voteLimit)
}
