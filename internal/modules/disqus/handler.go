package disqus

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/nodepress/internal/config"
	"github.com/mx-space/nodepress/internal/modules/comment"
	disqusapi "github.com/mx-space/nodepress/internal/pkg/disqus"
	"github.com/mx-space/nodepress/internal/pkg/response"
	"go.uber.org/zap"
)

const closeWindowPage = `<!DOCTYPE html><html><body><script>window.close();</script></body></html>`

type Handler struct {
	svc     *Service
	private *PrivateService
	cfg     config.DisqusConfig
	secure  bool
}

func NewHandler(svc *Service, private *PrivateService, cfg *config.AppConfig) *Handler {
	return &Handler{svc: svc, private: private, cfg: cfg.Disqus, secure: !cfg.IsDev()}
}

// RegisterRoutes mounts the Disqus endpoints. writeMW guards comment creation.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, writeMW gin.HandlerFunc) {
	g := rg.Group("/disqus")
	g.GET("/config", h.getConfig)
	g.GET("/oauth-callback", h.oauthCallback)
	g.POST("/oauth-refresh", h.oauthRefresh)
	g.POST("/oauth-logout", h.oauthLogout)
	g.GET("/user-info", h.userInfo)
	g.GET("/thread", h.thread)
	g.POST("/comment", writeMW, h.createComment)
	g.DELETE("/comment/:id", h.deleteComment)
	g.GET("/threads", authMW, h.listThreads)
}

func (h *Handler) getConfig(c *gin.Context) {
	response.OK(c, gin.H{
		"forum":         h.cfg.Forum,
		"admin":         h.cfg.AdminUsername,
		"public_key":    h.cfg.PublicKey,
		"authorize_url": h.svc.GetAuthorizeURL(),
	})
}

func (h *Handler) oauthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "code is required")
		return
	}
	ctx := c.Request.Context()
	token, err := h.svc.GetAccessToken(ctx, code)
	if err != nil {
		response.BadGateway(c, err)
		return
	}
	if user, err := h.svc.GetUserInfo(ctx, token.AccessToken); err == nil {
		ttl := time.Duration(token.ExpiresIn) * time.Second
		if err := h.svc.SetUserInfoCache(ctx, strconv.FormatInt(token.UserID, 10), user, ttl); err != nil {
			h.svc.logger.Warn("user info cache write failed", zap.Error(err))
		}
	}
	if !h.setTokenCookie(c, token) {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(closeWindowPage))
}

func (h *Handler) oauthRefresh(c *gin.Context) {
	current := TokenFromRequest(c)
	if current == nil || current.RefreshToken == "" {
		response.Unauthorized(c, "disqus token required")
		return
	}
	token, err := h.svc.RefreshAccessToken(c.Request.Context(), current.RefreshToken)
	if err != nil {
		response.BadGateway(c, err)
		return
	}
	if token.UserID == 0 {
		token.UserID = current.UserID
	}
	if !h.setTokenCookie(c, token) {
		return
	}
	response.NoContent(c)
}

func (h *Handler) oauthLogout(c *gin.Context) {
	if token := TokenFromRequest(c); token != nil {
		if err := h.svc.DeleteUserInfoCache(c.Request.Context(), strconv.FormatInt(token.UserID, 10)); err != nil {
			h.svc.logger.Warn("user info cache delete failed", zap.Error(err))
		}
	}
	c.SetCookie(TokenCookie, "", -1, "/", "", h.secure, true)
	response.NoContent(c)
}

func (h *Handler) userInfo(c *gin.Context) {
	token := TokenFromRequest(c)
	if token == nil {
		response.Unauthorized(c, "disqus token required")
		return
	}
	ctx := c.Request.Context()
	uid := strconv.FormatInt(token.UserID, 10)
	if cached, err := h.svc.GetUserInfoCache(ctx, uid); err == nil && cached != nil {
		response.OK(c, cached)
		return
	}
	user, err := h.svc.GetUserInfo(ctx, token.AccessToken)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}
	response.OK(c, user)
}

func (h *Handler) thread(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Query("post_id"), 10, 64)
	if err != nil || postID <= 0 {
		response.BadRequest(c, "invalid post_id")
		return
	}
	thread, err := h.svc.EnsureThreadDetailCache(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, thread)
}

func (h *Handler) createComment(c *gin.Context) {
	var dto comment.CreateCommentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	visitor := comment.Visitor{
		IP:      c.ClientIP(),
		Agent:   c.Request.UserAgent(),
		Referer: c.Request.Referer(),
	}
	created, err := h.svc.CreateUniversalComment(c.Request.Context(), dto, visitor, accessTokenOf(TokenFromRequest(c)))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, comment.ToResponse(created, false))
}

func (h *Handler) deleteComment(c *gin.Context) {
	number, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || number <= 0 {
		response.BadRequest(c, "invalid comment id")
		return
	}
	token := TokenFromRequest(c)
	if token == nil {
		response.Unauthorized(c, "disqus token required")
		return
	}
	deleted, err := h.svc.DeleteUniversalComment(c.Request.Context(), number, token.AccessToken)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, comment.ToResponse(deleted, false))
}

func (h *Handler) listThreads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	threads, cursor, err := h.private.GetThreads(c.Request.Context(), ThreadListQuery{
		Cursor: c.Query("cursor"),
		Limit:  limit,
	})
	if err != nil {
		response.BadGateway(c, err)
		return
	}
	response.OK(c, gin.H{"data": threads, "cursor": cursor})
}

func (h *Handler) setTokenCookie(c *gin.Context, token *disqusapi.AccessToken) bool {
	encoded, err := encodeToken(token)
	if err != nil {
		response.InternalError(c, err)
		return false
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, encoded, int(token.ExpiresIn), "/", "", h.secure, true)
	return true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotDeletable):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrAuthorizationFailed):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrRemoteLookupFailed), errors.Is(err, ErrRemoteCreateFailed), errors.Is(err, ErrRemoteDeleteFailed):
		response.BadGateway(c, err)
	default:
		comment.WriteError(c, err)
	}
}
