package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"timebank_backend/internal/gamification/service"
	"timebank_backend/platform/httpkit"
)

// Handler handles gamification HTTP requests.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Progress returns the caller's XP standing.
// GET /api/v1/gamification/me
func (h *Handler) Progress(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	result, err := h.svc.Progress(c.Request.Context(), identity.AccountID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Leaderboard returns the community's top members by XP.
// GET /api/v1/gamification/leaderboard?limit=10
func (h *Handler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.svc.Leaderboard(c.Request.Context(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
