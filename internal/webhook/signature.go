// Package webhook authenticates inbound provider callbacks by HMAC signature.
// Webhook routes carry no user session, so the signature is their only gate.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eddie-kay0462/iris/internal/platform/httpx"
)

// Provider signature headers.
const (
	PaystackHeader = "X-Paystack-Signature"
	SMSHeader      = "X-Iris-Signature"
)

// MsgInvalidSignature is the error body returned for rejected callbacks.
const MsgInvalidSignature = "Invalid signature"

var (
	// ErrMissingSecret indicates a verifier built without a secret.
	ErrMissingSecret = errors.New("webhook: secret is required")
	// ErrMissingSignature indicates the signature header is absent.
	ErrMissingSignature = errors.New("webhook: signature is missing")
	// ErrSignatureMismatch indicates the signature does not match the payload.
	ErrSignatureMismatch = errors.New("webhook: signature mismatch")
)

// Verifier checks a hex HMAC signature carried in Header over the raw body.
type Verifier struct {
	Secret string
	Header string
	Hash   func() hash.Hash
}

// Paystack verifies payment callbacks signed with HMAC-SHA512.
func Paystack(secret string) Verifier {
	return Verifier{Secret: secret, Header: PaystackHeader, Hash: sha512.New}
}

// SMS verifies SMS delivery callbacks signed with HMAC-SHA256.
func SMS(secret string) Verifier {
	return Verifier{Secret: secret, Header: SMSHeader, Hash: sha256.New}
}

// Sign returns the hex signature of payload.
func (v Verifier) Sign(payload []byte) string {
	mac := hmac.New(v.hasher(), []byte(v.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares signature against payload in constant time.
func (v Verifier) Verify(payload []byte, signature string) error {
	if v.Secret == "" {
		return ErrMissingSecret
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}
	got, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return fmt.Errorf("%w: not hex", ErrSignatureMismatch)
	}
	mac := hmac.New(v.hasher(), []byte(v.Secret))
	mac.Write(payload)
	if !hmac.Equal(mac.Sum(nil), got) {
		return ErrSignatureMismatch
	}
	return nil
}

// Middleware rejects requests whose body does not match the signature header.
// Accepted bodies are restored for next.
func (v Verifier) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, httpx.MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					httpx.Error(w, http.StatusRequestEntityTooLarge, "Payload too large")
					return
				}
				httpx.Error(w, http.StatusBadRequest, "Invalid request")
				return
			}
			if err := v.Verify(body, r.Header.Get(v.Header)); err != nil {
				logger.Warn("webhook rejected",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				httpx.Error(w, http.StatusUnauthorized, MsgInvalidSignature)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			r.ContentLength = int64(len(body))
			next.ServeHTTP(w, r)
		})
	}
}

func (v Verifier) hasher() func() hash.Hash {
	if v.Hash == nil {
		return sha256.New
	}
	return v.Hash
}
