package views_test

import (
	"bytes"
	"testing"

	"github.com/goliatone/go-blog-account/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTemplates(t *testing.T) {
	for _, name := range []string{
		"themes/standard/login",
		"themes/standard/register",
		"themes/standard/initialize",
		"themes/standard/profile",
		"errors/500",
	} {
		assert.True(t, views.Has(views.FS, name), name)
	}

	assert.False(t, views.Has(views.FS, "themes/standard/missing"))
}

func TestEngineRendersLogin(t *testing.T) {
	engine := views.New(views.Options{})
	require.NoError(t, engine.Load())

	var buf bytes.Buffer
	err := engine.Render(&buf, "themes/standard/login", map[string]any{
		"theme": "standard",
		"model": map[string]any{
			"email":       "alice@x.com",
			"redirectUri": "/welcome",
			"showError":   true,
		},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `value="alice@x.com"`)
	assert.Contains(t, html, `value="/welcome"`)
	assert.Contains(t, html, "Invalid login attempt.")
}

func TestEngineRegistersFunctions(t *testing.T) {
	engine := views.New(views.Options{
		Functions: map[string]any{
			"display_name": func(v any) string {
				u, _ := v.(map[string]any)
				name, _ := u["nickname"].(string)
				return "@" + name
			},
		},
	})
	require.NoError(t, engine.Load())

	var buf bytes.Buffer
	err := engine.Render(&buf, "themes/standard/profile", map[string]any{
		"theme":        "standard",
		"current_user": map[string]any{"user_id": "u1", "nickname": "Ally"},
		"blog":         map[string]any{"title": "My Blog"},
		"model": map[string]any{
			"username":    "alice",
			"bio":         "about <me>",
			"redirectUri": "/drafts",
		},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "@Ally")
	assert.Contains(t, html, "<title>My Blog</title>")
	assert.Contains(t, html, "Profile: alice")
	assert.Contains(t, html, "about &lt;me&gt;")
	assert.Contains(t, html, `<a href="/drafts">Back</a>`)
}
