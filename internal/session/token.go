// Package session decodes and issues the signed bearer tokens that carry a
// caller's identity between requests.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eddie-kay0462/iris/internal/rbac"
)

// DefaultCookieName is the cookie carrying the session token.
const DefaultCookieName = "iris_jwt"

// MinSecretLength is the minimum HS256 key size accepted by NewResolver and NewIssuer.
const MinSecretLength = 32

var (
	// ErrMalformed covers wrong segment counts, bad encoding and unparsable claims.
	ErrMalformed = errors.New("session: malformed token")
	// ErrSignature indicates a token whose signature or algorithm does not verify.
	ErrSignature = errors.New("session: invalid signature")
	// ErrExpired indicates a token whose exp is missing, not an integer, or not in the future.
	ErrExpired = errors.New("session: token expired")
	// ErrWeakSecret indicates a signing secret shorter than MinSecretLength.
	ErrWeakSecret = errors.New("session: signing secret too short")
)

// Claims is the decoded payload of a verified session token.
type Claims struct {
	Subject   string
	Email     string
	Role      rbac.Role
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Resolver or Issuer.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Resolver verifies raw tokens and yields their claims.
type Resolver struct {
	secret []byte
	clock  Clock
	parser *jwt.Parser
}

// NewResolver builds a Resolver for HS256 tokens signed with secret.
func NewResolver(secret string, opts ...Option) (*Resolver, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	o := buildOptions(opts)
	return &Resolver{
		secret: []byte(secret),
		clock:  o.clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithJSONNumber(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Resolve returns the claims of raw when it verifies and has not expired.
// Every failure collapses to ok == false.
func (r *Resolver) Resolve(raw string) (Claims, bool) {
	claims, err := r.Parse(raw)
	if err != nil {
		return Claims{}, false
	}
	return claims, true
}

// Parse is Resolve with the failure reason preserved for logging.
func (r *Resolver) Parse(raw string) (claims Claims, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			claims, err = Claims{}, fmt.Errorf("%w: %v", ErrMalformed, rec)
		}
	}()

	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Count(raw, ".") != 2 {
		return Claims{}, ErrMalformed
	}

	mc := jwt.MapClaims{}
	_, err = r.parser.ParseWithClaims(raw, mc, func(*jwt.Token) (any, error) {
		return r.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, ErrSignature
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	exp, err := integerClaim(mc, "exp")
	if err != nil {
		return Claims{}, ErrExpired
	}
	// Second granularity: exp*1000 must be strictly greater than now in ms.
	if exp*1000 <= r.clock().UnixMilli() {
		return Claims{}, ErrExpired
	}

	subject := stringClaim(mc, "sub")
	if subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	claims = Claims{
		Subject:   subject,
		Email:     stringClaim(mc, "email"),
		Role:      rbac.ParseRole(stringClaim(mc, "role")),
		ID:        stringClaim(mc, "jti"),
		ExpiresAt: time.Unix(exp, 0).UTC(),
	}
	if iat, err := integerClaim(mc, "iat"); err == nil {
		claims.IssuedAt = time.Unix(iat, 0).UTC()
	}
	return claims, nil
}

func integerClaim(mc jwt.MapClaims, key string) (int64, error) {
	v, ok := mc[key]
	if !ok {
		return 0, fmt.Errorf("claim %s missing", key)
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("claim %s is not a number", key)
	}
	return n.Int64()
}

func stringClaim(mc jwt.MapClaims, key string) string {
	s, _ := mc[key].(string)
	return s
}

// Issuer signs new session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

// NewIssuer builds an Issuer producing tokens valid for ttl.
func NewIssuer(secret string, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, errors.New("session: ttl must be positive")
	}
	o := buildOptions(opts)
	return &Issuer{secret: []byte(secret), ttl: ttl, clock: o.clock}, nil
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for subject carrying role.
func (i *Issuer) Issue(subject, email string, role rbac.Role) (string, Claims, error) {
	if subject == "" {
		return "", Claims{}, errors.New("session: subject required")
	}
	now := i.clock().UTC().Truncate(time.Second)
	claims := Claims{
		Subject:   subject,
		Email:     email,
		Role:      role,
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}
	mc := jwt.MapClaims{
		"sub":  claims.Subject,
		"role": string(claims.Role),
		"jti":  claims.ID,
		"iat":  claims.IssuedAt.Unix(),
		"exp":  claims.ExpiresAt.Unix(),
	}
	if email != "" {
		mc["email"] = email
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(i.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, claims, nil
}
