package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"timebank_backend/internal/wallet/service"
	"timebank_backend/internal/wallet/transport"
	"timebank_backend/platform/httpkit"
	"timebank_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles wallet HTTP requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Transfer moves credits to another member of the caller's community.
// POST /api/v1/wallet/transfers
func (h *Handler) Transfer(c *gin.Context) {
	var req transport.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	result, err := h.svc.Transfer(c.Request.Context(), identity.AccountID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Balance returns the caller's current balance.
// GET /api/v1/wallet/balance
func (h *Handler) Balance(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)

	result, err := h.svc.Balance(c.Request.Context(), identity.AccountID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History returns a page of the caller's ledger entries.
// GET /api/v1/wallet/entries?limit=50&offset=0
func (h *Handler) History(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.svc.History(c.Request.Context(), identity.AccountID(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
