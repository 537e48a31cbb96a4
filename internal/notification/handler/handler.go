package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"timebank_backend/internal/notification/service"
	"timebank_backend/platform/httpkit"
)

// Handler handles notification HTTP requests.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// List returns the caller's notifications.
// GET /api/v1/notifications?unread=true&limit=50&offset=0
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	unreadOnly := c.Query("unread") == "true"

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.List(c.Request.Context(), identity.AccountID(), unreadOnly, limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MarkRead marks one notification as read.
// PATCH /api/v1/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid notification ID", nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if httpkit.HandleError(c, h.svc.MarkRead(c.Request.Context(), id, identity.AccountID())) {
		return
	}
	httpkit.OK(c, gin.H{"status": "read"})
}

// MarkAllRead marks all the caller's notifications as read.
// POST /api/v1/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if httpkit.HandleError(c, h.svc.MarkAllRead(c.Request.Context(), identity.AccountID())) {
		return
	}
	httpkit.OK(c, gin.H{"status": "read"})
}
