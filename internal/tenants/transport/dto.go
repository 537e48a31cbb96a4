package transport

import "github.com/google/uuid"

// ProvisionTenantRequest contains data for creating a new tenant community.
type ProvisionTenantRequest struct {
	Slug string `json:"slug" validate:"required,min=2,max=50"`
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// TenantResponse represents a tenant in API responses.
type TenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt string    `json:"createdAt"`
}

// TenantListResponse wraps a list of tenants.
type TenantListResponse struct {
	Items []TenantResponse `json:"items"`
	Total int              `json:"total"`
}
