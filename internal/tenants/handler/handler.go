package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"timebank_backend/internal/tenants/service"
	"timebank_backend/internal/tenants/transport"
	"timebank_backend/platform/httpkit"
	"timebank_backend/platform/validator"
)

// Handler handles HTTP requests for tenant provisioning.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid tenant ID"
)

// New creates a new tenants handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Provision creates a new tenant community.
// POST /api/v1/admin/tenants
func (h *Handler) Provision(c *gin.Context) {
	var req transport.ProvisionTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Provision(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// List retrieves all tenants.
// GET /api/v1/admin/tenants
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetBySlug retrieves a tenant by slug (public, used by the login screen).
// GET /api/v1/tenants/:slug
func (h *Handler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		httpkit.Error(c, http.StatusBadRequest, "slug is required", nil)
		return
	}

	result, err := h.svc.GetBySlug(c.Request.Context(), slug)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Deactivate disables a tenant.
// PATCH /api/v1/admin/tenants/:id/deactivate
func (h *Handler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Deactivate(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deactivated"})
}
