package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ucu-innovators/hub/backend/internal/middleware"
	"github.com/ucu-innovators/hub/backend/internal/services"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// ListForProject
// GET /api/comments/project/:projectId
func (h *CommentHandler) ListForProject(c *gin.Context) {
	comments, err := h.commentService.ListForProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, comments)
}

// Create
// POST /api/comments/project/:projectId
func (h *CommentHandler) Create(c *gin.Context) {
	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), middleware.GetIdentity(c), c.Param("projectId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// Delete
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.commentService.Delete(c.Request.Context(), middleware.GetIdentity(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Comment deleted successfully")
}
