package post

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/nodepress/internal/middleware"
	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/pkg/pagination"
	"github.com/mx-space/nodepress/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	g := rg.Group("/posts")
	g.GET("/:id", optionalAuthMW, h.get)

	a := g.Group("", authMW)
	a.GET("", h.list)
	a.POST("", h.create)
	a.PATCH("/:id", h.update)
}

func (h *Handler) get(c *gin.Context) {
	number, ok := parseNumber(c)
	if !ok {
		return
	}
	post, err := h.svc.GetByNumber(c.Request.Context(), number, middleware.IsAuthenticated(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, post)
}

func (h *Handler) list(c *gin.Context) {
	var lq ListQuery
	if raw := c.Query("state"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid state")
			return
		}
		state := models.PostState(n)
		lq.State = &state
	}
	posts, pag, err := h.svc.List(c.Request.Context(), pagination.FromContext(c), lq)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, posts, pag)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.svc.Create(c.Request.Context(), dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, post)
}

func (h *Handler) update(c *gin.Context) {
	number, ok := parseNumber(c)
	if !ok {
		return
	}
	var dto UpdatePostDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.svc.Update(c.Request.Context(), number, dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, post)
}

func parseNumber(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || n <= 0 {
		response.BadRequest(c, "invalid post id")
		return 0, false
	}
	return n, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrSlugExists):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
