package session

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddie-kay0462/iris/internal/rbac"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(testSecret, WithClock(fixedClock))
	require.NoError(t, err)
	return r
}

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestResolveExpiryBoundary(t *testing.T) {
	r := newTestResolver(t)

	past := sign(t, jwt.MapClaims{"sub": "u1", "role": "admin", "exp": fixedNow.Add(-time.Second).Unix()})
	_, ok := r.Resolve(past)
	assert.False(t, ok, "token expired one second ago must be rejected")

	now := sign(t, jwt.MapClaims{"sub": "u1", "role": "admin", "exp": fixedNow.Unix()})
	_, ok = r.Resolve(now)
	assert.False(t, ok, "token expiring exactly now must be rejected")

	future := sign(t, jwt.MapClaims{"sub": "u1", "role": "admin", "exp": fixedNow.Add(time.Second).Unix()})
	claims, ok := r.Resolve(future)
	require.True(t, ok, "token expiring in one second must be accepted")
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, rbac.RoleAdmin, claims.Role)
	assert.Equal(t, fixedNow.Add(time.Second), claims.ExpiresAt)
}

func TestResolveRejectsBadExp(t *testing.T) {
	r := newTestResolver(t)
	cases := map[string]jwt.MapClaims{
		"missing":   {"sub": "u1", "role": "staff"},
		"string":    {"sub": "u1", "role": "staff", "exp": "9999999999"},
		"fraction":  {"sub": "u1", "role": "staff", "exp": float64(fixedNow.Unix()) + 3600.5},
		"null":      {"sub": "u1", "role": "staff", "exp": nil},
		"boolean":   {"sub": "u1", "role": "staff", "exp": true},
		"no sub":    {"role": "staff", "exp": fixedNow.Add(time.Hour).Unix()},
		"empty sub": {"sub": "", "role": "staff", "exp": fixedNow.Add(time.Hour).Unix()},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := r.Resolve(sign(t, claims))
			assert.False(t, ok)
		})
	}
}

func TestResolveMalformedNeverPanics(t *testing.T) {
	r := newTestResolver(t)
	valid := sign(t, jwt.MapClaims{"sub": "u1", "role": "admin", "exp": fixedNow.Add(time.Hour).Unix()})
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	inputs := []string{
		"",
		"   ",
		"abc",
		"a.b",
		"a.b.c.d",
		valid + ".extra",
		header + ".%%%not-base64%%%.sig",
		header + "." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig",
		header + "." + base64.RawURLEncoding.EncodeToString([]byte(`["array"]`)) + ".sig",
		"..",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_, ok := r.Resolve(in)
			assert.False(t, ok, "input %q", in)
		})
	}
}

func TestResolveRejectsForgedTokens(t *testing.T) {
	r := newTestResolver(t)
	claims := jwt.MapClaims{"sub": "u1", "role": "admin", "exp": fixedNow.Add(time.Hour).Unix()}

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-another-secret-xx"))
	require.NoError(t, err)
	_, err = r.Parse(otherKey)
	assert.ErrorIs(t, err, ErrSignature)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = r.Parse(hs512)
	assert.ErrorIs(t, err, ErrSignature)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok := r.Resolve(unsigned)
	assert.False(t, ok)
}

func TestResolveUnknownRoleDefaultsToPublic(t *testing.T) {
	r := newTestResolver(t)
	claims, ok := r.Resolve(sign(t, jwt.MapClaims{"sub": "u1", "role": "superuser", "exp": fixedNow.Add(time.Hour).Unix()}))
	require.True(t, ok)
	assert.Equal(t, rbac.RolePublic, claims.Role)

	claims, ok = r.Resolve(sign(t, jwt.MapClaims{"sub": "u1", "exp": fixedNow.Add(time.Hour).Unix()}))
	require.True(t, ok)
	assert.Equal(t, rbac.RolePublic, claims.Role)
}

func TestIssuerRoundTrip(t *testing.T) {
	issuer, err := NewIssuer(testSecret, time.Hour, WithClock(fixedClock))
	require.NoError(t, err)

	token, issued, err := issuer.Issue("user-42", "ops@iris.test", rbac.RoleManager)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)

	claims, ok := newTestResolver(t).Resolve(token)
	require.True(t, ok)
	assert.Equal(t, issued, claims)
}

func TestNewResolverRejectsShortSecret(t *testing.T) {
	_, err := NewResolver("short")
	assert.ErrorIs(t, err, ErrWeakSecret)
	_, err = NewIssuer("short", time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestExtract(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Extract(req, ""))

	req.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", Extract(req, ""))

	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "cookie-token"})
	assert.Equal(t, "cookie-token", Extract(req, ""), "cookie wins over header")

	basic := httptest.NewRequest(http.MethodGet, "/", nil)
	basic.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	assert.Empty(t, Extract(basic, ""))
}

func TestCandidatesKeepsBearerBehindCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Candidates(req, ""))

	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "cookie-token"})
	assert.Equal(t, []string{"cookie-token", "header-token"}, Candidates(req, ""))

	same := httptest.NewRequest(http.MethodGet, "/", nil)
	same.Header.Set("Authorization", "Bearer t1")
	same.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "t1"})
	assert.Equal(t, []string{"t1"}, Candidates(same, ""))
}
