package session

import (
	"net/http"
	"strings"
	"time"
)

// Extract returns the raw token from the named cookie, falling back to an
// "Authorization: Bearer" header. It returns "" when neither is present.
func Extract(r *http.Request, cookieName string) string {
	if c := Candidates(r, cookieName); len(c) > 0 {
		return c[0]
	}
	return ""
}

// Candidates returns every token the request carries, cookie first, then the
// bearer header. Callers try them in order so that a stale cookie does not
// hide a valid bearer token.
func Candidates(r *http.Request, cookieName string) []string {
	if r == nil {
		return nil
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	var out []string
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		out = append(out, c.Value)
	}
	if bearer := bearerToken(r); bearer != "" && (len(out) == 0 || out[0] != bearer) {
		out = append(out, bearer)
	}
	return out
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CookieWriter sets and clears the session cookie.
type CookieWriter struct {
	Name   string
	Secure bool
}

// Set writes token as the session cookie expiring at expiresAt.
func (c CookieWriter) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (c CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieWriter) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}
