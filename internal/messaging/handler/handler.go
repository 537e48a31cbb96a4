package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"timebank_backend/internal/messaging/service"
	"timebank_backend/internal/messaging/transport"
	"timebank_backend/platform/httpkit"
	"timebank_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid conversation ID"
)

// Handler handles messaging HTTP requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Start opens or reuses a conversation with another member.
// POST /api/v1/conversations
func (h *Handler) Start(c *gin.Context) {
	var req transport.StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.StartConversation(c.Request.Context(), identity.AccountID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// List returns the caller's conversations.
// GET /api/v1/conversations
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.ListConversations(c.Request.Context(), identity.AccountID(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Send posts a message into a conversation.
// POST /api/v1/conversations/:id/messages
func (h *Handler) Send(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.SendMessage(c.Request.Context(), id, identity.AccountID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Messages returns a page of a conversation's messages.
// GET /api/v1/conversations/:id/messages
func (h *Handler) Messages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.ListMessages(c.Request.Context(), id, identity.AccountID(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
