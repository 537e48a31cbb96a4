package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string        { return "test-access-secret" }
func (testConfig) GetJWTRefreshSecret() string       { return "test-refresh-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testConfig) GetRefreshTokenTTL() time.Duration { return 7 * 24 * time.Hour }

func TestIssueCarriesTenantClaim(t *testing.T) {
	m := NewManager(testConfig{})
	accountID := uuid.New()
	tenantID := uuid.New()

	pair, err := m.Issue(accountID, tenantID, "member")
	if err != nil {
		t.Fatal(err)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expiresIn %d", pair.ExpiresIn)
	}

	claims := parseClaims(t, pair.AccessToken, "test-access-secret")
	if claims["sub"] != accountID.String() {
		t.Fatalf("sub = %v, want %s", claims["sub"], accountID)
	}
	if claims["tenant_id"] != tenantID.String() {
		t.Fatalf("tenant_id = %v, want %s", claims["tenant_id"], tenantID)
	}
	if claims["type"] != "access" {
		t.Fatalf("type = %v, want access", claims["type"])
	}
}

func TestVerifyRefreshRoundTrip(t *testing.T) {
	m := NewManager(testConfig{})
	accountID := uuid.New()
	tenantID := uuid.New()

	pair, err := m.Issue(accountID, tenantID, "member")
	if err != nil {
		t.Fatal(err)
	}

	gotAccount, gotTenant, err := m.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}
	if gotAccount != accountID || gotTenant != tenantID {
		t.Fatalf("got (%s, %s), want (%s, %s)", gotAccount, gotTenant, accountID, tenantID)
	}
}

func TestVerifyRefreshRejectsAccessToken(t *testing.T) {
	m := NewManager(testConfig{})

	pair, err := m.Issue(uuid.New(), uuid.New(), "member")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := m.VerifyRefresh(pair.AccessToken); err == nil {
		t.Fatal("access token must not pass refresh verification")
	}
}

func TestVerifyRefreshRejectsMissingTenant(t *testing.T) {
	m := NewManager(testConfig{})

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.New().String(),
		"type": "refresh",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-refresh-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := m.VerifyRefresh(raw); err == nil {
		t.Fatal("refresh token without tenant claim must be rejected")
	}
}

func parseClaims(t *testing.T, raw, secret string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return []byte(secret), nil })
	if err != nil {
		t.Fatal(err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not MapClaims")
	}
	return claims
}
