// Package token issues and verifies the JWT pair used for member sessions.
// Every token carries the tenant_id claim; a session is always bound to the
// tenant it was opened in.
package token

import (
	"fmt"
	"time"

	"timebank_backend/platform/apperr"
	"timebank_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager signs and verifies access and refresh tokens.
type Manager struct {
	cfg config.AuthServiceConfig
}

func NewManager(cfg config.AuthServiceConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Pair is a freshly issued access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// Issue creates a token pair for an account. The tenant travels in the
// tenant_id claim so the resolver can restore the session's tenant on every
// subsequent request.
func (m *Manager) Issue(accountID, tenantID uuid.UUID, role string) (Pair, error) {
	now := time.Now()
	accessTTL := m.cfg.GetAccessTokenTTL()

	access, err := m.sign(jwt.MapClaims{
		"sub":       accountID.String(),
		"tenant_id": tenantID.String(),
		"roles":     []string{role},
		"type":      "access",
		"iat":       now.Unix(),
		"exp":       now.Add(accessTTL).Unix(),
	}, m.cfg.GetJWTAccessSecret())
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := m.sign(jwt.MapClaims{
		"sub":       accountID.String(),
		"tenant_id": tenantID.String(),
		"type":      "refresh",
		"iat":       now.Unix(),
		"exp":       now.Add(m.cfg.GetRefreshTokenTTL()).Unix(),
	}, m.cfg.GetJWTRefreshSecret())
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}

// VerifyRefresh validates a refresh token and returns the account and tenant
// it was issued for.
func (m *Manager) VerifyRefresh(raw string) (accountID, tenantID uuid.UUID, err error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.cfg.GetJWTRefreshSecret()), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, uuid.Nil, apperr.Unauthorized("invalid refresh token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, uuid.Nil, apperr.Unauthorized("invalid refresh token")
	}
	if tokenType, _ := claims["type"].(string); tokenType != "refresh" {
		return uuid.Nil, uuid.Nil, apperr.Unauthorized("invalid token type")
	}

	sub, _ := claims["sub"].(string)
	accountID, err = uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Unauthorized("invalid refresh token")
	}

	// A refresh token without a tenant claim is malformed: sessions are
	// always tenant-bound.
	rawTenant, _ := claims["tenant_id"].(string)
	tenantID, err = uuid.Parse(rawTenant)
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Unauthorized("malformed credential")
	}

	return accountID, tenantID, nil
}

func (m *Manager) sign(claims jwt.MapClaims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
