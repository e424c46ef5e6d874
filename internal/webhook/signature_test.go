package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"event":"charge.success","data":{"reference":"ord_123"}}`

func TestPaystackSignatureMatchesProviderFormat(t *testing.T) {
	mac := hmac.New(sha512.New, []byte("sk_test"))
	mac.Write([]byte(payload))
	want := hex.EncodeToString(mac.Sum(nil))

	v := Paystack("sk_test")
	assert.Equal(t, want, v.Sign([]byte(payload)))
	assert.NoError(t, v.Verify([]byte(payload), want))
	assert.NoError(t, v.Verify([]byte(payload), strings.ToUpper(want)))
}

func TestVerifyRejects(t *testing.T) {
	v := SMS("sms-secret")
	good := v.Sign([]byte(payload))

	assert.ErrorIs(t, v.Verify([]byte(payload), ""), ErrMissingSignature)
	assert.ErrorIs(t, v.Verify([]byte(payload), "zz"), ErrSignatureMismatch)
	assert.ErrorIs(t, v.Verify([]byte(payload+" "), good), ErrSignatureMismatch)
	assert.ErrorIs(t, SMS("other").Verify([]byte(payload), good), ErrSignatureMismatch)
	assert.ErrorIs(t, Paystack("sms-secret").Verify([]byte(payload), good), ErrSignatureMismatch)
	assert.ErrorIs(t, Verifier{}.Verify([]byte(payload), good), ErrMissingSecret)
}

func TestMiddlewareRestoresBody(t *testing.T) {
	v := Paystack("sk_test")
	var seen string
	h := v.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", strings.NewReader(payload))
	req.Header.Set(PaystackHeader, v.Sign([]byte(payload)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, payload, seen)
}

func TestMiddlewareRejectsBadSignature(t *testing.T) {
	v := Paystack("sk_test")
	called := false
	h := v.Middleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	for _, sig := range []string{"", "deadbeef", SMS("sk_test").Sign([]byte(payload))} {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", strings.NewReader(payload))
		if sig != "" {
			req.Header.Set(PaystackHeader, sig)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid signature"}`, rec.Body.String())
	}
	assert.False(t, called)
}

func TestMiddlewareRejectsOversizedBody(t *testing.T) {
	v := SMS("sms-secret")
	h := v.Middleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	big := strings.Repeat("a", (1<<20)+1)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms", strings.NewReader(big))
	req.Header.Set(SMSHeader, v.Sign([]byte(big)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandlerRoutes(t *testing.T) {
	h := NewHandler(nil, "sk_test", "sms-secret")
	r := chi.NewRouter()
	r.Route("/webhooks", h.MountRoutes)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms", strings.NewReader(payload))
	req.Header.Set(SMSHeader, SMS("sms-secret").Sign([]byte(payload)))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"received"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/webhooks/paystack", strings.NewReader(payload))
	req.Header.Set(PaystackHeader, SMS("sk_test").Sign([]byte(payload)))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
