package comment

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/nodepress/internal/middleware"
	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/pkg/extend"
	"github.com/mx-space/nodepress/internal/pkg/pagination"
	"github.com/mx-space/nodepress/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the read and moderation endpoints. Comment creation
// and deletion go through the Disqus module.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, optionalAuthMW gin.HandlerFunc) {
	g := rg.Group("/comments")
	g.GET("", optionalAuthMW, h.list)
	g.GET("/:id", optionalAuthMW, h.get)
	g.PATCH("/:id/state", authMW, h.updateState)
}

// Response is the public shape of a comment. Visitors never see the IP,
// agent or email.
type Response struct {
	ID       string               `json:"_id"`
	Number   int64                `json:"id"`
	PostID   int64                `json:"post_id"`
	PID      int64                `json:"pid"`
	Content  string               `json:"content"`
	Author   models.CommentAuthor `json:"author"`
	State    models.CommentState  `json:"state"`
	Likes    int                  `json:"likes"`
	Dislikes int                  `json:"dislikes"`
	IP       string               `json:"ip,omitempty"`
	Agent    string               `json:"agent,omitempty"`
	Extends  extend.List          `json:"extends"`
	Created  time.Time            `json:"created_at"`
	Modified time.Time            `json:"updated_at"`
}

func ToResponse(c *models.CommentModel, isAdmin bool) Response {
	r := Response{
		ID: c.ID, Number: c.Number, PostID: c.PostID, PID: c.PID,
		Content: c.Content, Author: c.Author, State: c.State,
		Likes: c.Likes, Dislikes: c.Dislikes, Extends: c.Extends,
		Created: c.CreatedAt, Modified: c.UpdatedAt,
	}
	if isAdmin {
		r.IP = c.IP
		r.Agent = c.Agent
	} else {
		r.Author.Email = ""
	}
	return r
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{Keyword: c.Query("keyword")}
	if raw := c.Query("post_id"); raw != "" {
		postID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid post_id")
			return
		}
		q.PostID = &postID
	}

	isAdmin := middleware.IsAuthenticated(c)
	if isAdmin {
		if raw := c.Query("state"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || !models.CommentState(n).Valid() {
				response.BadRequest(c, "invalid state")
				return
			}
			state := models.CommentState(n)
			q.State = &state
		}
	} else {
		state := models.CommentNormal
		q.State = &state
		q.Keyword = ""
	}

	comments, pag, err := h.svc.Paginate(c.Request.Context(), q, pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]Response, len(comments))
	for i := range comments {
		out[i] = ToResponse(&comments[i], isAdmin)
	}
	response.Paged(c, out, pag)
}

func (h *Handler) get(c *gin.Context) {
	number, ok := parseNumber(c)
	if !ok {
		return
	}
	cm, err := h.svc.GetDetailByNumberID(c.Request.Context(), number)
	if err != nil {
		WriteError(c, err)
		return
	}
	isAdmin := middleware.IsAuthenticated(c)
	if !isAdmin && cm.State != models.CommentNormal {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	response.OK(c, ToResponse(cm, isAdmin))
}

func (h *Handler) updateState(c *gin.Context) {
	number, ok := parseNumber(c)
	if !ok {
		return
	}
	var dto UpdateStateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := dto.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cm, err := h.svc.UpdateState(c.Request.Context(), number, dto.State)
	if err != nil {
		WriteError(c, err)
		return
	}
	response.OK(c, ToResponse(cm, true))
}

func parseNumber(c *gin.Context) (int64, bool) {
	number, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || number <= 0 {
		response.BadRequest(c, "invalid comment id")
		return 0, false
	}
	return number, true
}

// WriteError maps the comment sentinels to HTTP statuses.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPostNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNotCommentable), errors.Is(err, ErrBlocklisted), errors.Is(err, ErrSpam):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrStateLocked), errors.Is(err, ErrRemoteManaged):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
