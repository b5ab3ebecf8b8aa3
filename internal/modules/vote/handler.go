package vote

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/modules/disqus"
	"github.com/mx-space/nodepress/internal/pkg/pagination"
	"github.com/mx-space/nodepress/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, writeMW gin.HandlerFunc) {
	g := rg.Group("/votes")
	g.POST("/comment", writeMW, h.voteComment)
	g.POST("/post", writeMW, h.likePost)
	g.GET("", authMW, h.list)
	g.DELETE("", authMW, h.delete)
}

func (h *Handler) voteComment(c *gin.Context) {
	var dto CommentVoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	counts, err := h.svc.VoteComment(c.Request.Context(), dto, voterOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, counts)
}

func (h *Handler) likePost(c *gin.Context) {
	var dto PostVoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	counts, err := h.svc.LikePost(c.Request.Context(), dto, voterOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, counts)
}

func (h *Handler) list(c *gin.Context) {
	var q ListQuery
	if v, err := strconv.Atoi(c.Query("target_type")); err == nil {
		t := models.VoteTarget(v)
		q.TargetType = &t
	}
	if v, err := strconv.ParseInt(c.Query("target_id"), 10, 64); err == nil {
		q.TargetID = &v
	}
	if v, err := strconv.Atoi(c.Query("vote_type")); err == nil {
		t := models.VoteType(v)
		q.VoteType = &t
	}
	if v, err := strconv.Atoi(c.Query("author_type")); err == nil {
		t := models.VoteAuthorType(v)
		q.AuthorType = &t
	}
	votes, pag, err := h.svc.List(c.Request.Context(), q, pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, votes, pag)
}

func (h *Handler) delete(c *gin.Context) {
	var dto DeleteVotesDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if _, err := h.svc.Delete(c.Request.Context(), dto.VoteIDs); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func voterOf(c *gin.Context) Voter {
	return Voter{
		IP:    c.ClientIP(),
		Agent: c.Request.UserAgent(),
		Token: disqus.TokenFromRequest(c),
	}
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrTargetNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	response.InternalError(c, err)
}
