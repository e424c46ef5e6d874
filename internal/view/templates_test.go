package view

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderLoginEscapesRedirect(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, "pages/login.html", TemplateData{
		Title:      "Sign in",
		RedirectTo: `/products"><script>`,
		Error:      "unauthorized",
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, `<form id="login-form"`)
	assert.Contains(t, body, "does not have access")
	assert.NotContains(t, body, `"><script>`)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRenderNilEngine(t *testing.T) {
	var e *Engine
	assert.Error(t, e.Render(httptest.NewRecorder(), "pages/login.html", TemplateData{}))
}
