// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated principal.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access account information without depending on Gin.
type Identity interface {
	// AccountID returns the authenticated account's ID.
	AccountID() uuid.UUID
	// TenantID returns the tenant claim embedded in the credential.
	TenantID() uuid.UUID
	// Roles returns the account's assigned roles.
	Roles() []string
	// HasRole checks if the account has a specific role.
	HasRole(role string) bool
	// IsAuthenticated returns true if the principal is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	accountID     uuid.UUID
	tenantID      uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) AccountID() uuid.UUID {
	return i.accountID
}

func (i *identity) TenantID() uuid.UUID {
	return i.tenantID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if principal info is not present.
func GetIdentity(c *gin.Context) Identity {
	accountID, accountOK := c.Get(ContextAccountIDKey)
	if !accountOK {
		return &identity{authenticated: false}
	}

	aid, ok := accountID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	var tid uuid.UUID
	if tenantID, ok := c.Get(ContextTenantIDKey); ok {
		tid, _ = tenantID.(uuid.UUID)
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	return &identity{
		accountID:     aid,
		tenantID:      tid,
		roles:         roleList,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the principal is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
