package account

import (
	"html/template"
	"maps"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

var (
	TemplateUserKey      = "current_user"
	TemplateBlogKey      = "blog"
	TemplateCSRFKey      = "csrf_token"
	TemplateCSRFFieldKey = "csrf_field"
	TemplateModelKey     = "model"
	TemplateThemeKey     = "theme"
)

// CSRFContextKey is the Locals key the csrf middleware stores its token
// under.
var CSRFContextKey = "csrf"

// CSRFFormField is the hidden input name the csrf middleware reads.
var CSRFFormField = "_csrf"

// TemplateHelpers returns helper functions and constants to register on the
// view engine, e.g. views.Options{Functions: account.TemplateHelpers()}.
//
// In templates, you can then use:
//
//	{% if is_authenticated(current_user) %}
//	{% if is_admin(current_user) %}
//	{{ display_name(current_user) }}
//
// View data is serialized before rendering, so the helpers accept both the
// typed values and their JSON map form.
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": isAuthenticated,
		"is_admin":         isAdmin,
		"display_name":     displayName,
		"permissions": map[string]Permission{
			"admin":  PermissionAdmin,
			"author": PermissionAuthor,
		},
	}
}

// TemplateDataWithContext returns the request values every account view
// sees: the current session and the csrf token when the middleware is
// installed.
func TemplateDataWithContext(c router.Context) router.ViewContext {
	data := router.ViewContext{}

	if session, ok := SessionFromContext(c); ok {
		data[TemplateUserKey] = session
	}

	token, _ := c.Locals(CSRFContextKey).(string)
	data[TemplateCSRFKey] = token
	data[TemplateCSRFFieldKey] = csrfField(token)

	return data
}

// ViewContext merges the request values with the outcome of a workflow step
// into the data handed to the view engine.
func ViewContext(c router.Context, out Outcome, extra ...router.ViewContext) router.ViewContext {
	data := TemplateDataWithContext(c)

	data[TemplateModelKey] = out.Model
	data[TemplateThemeKey] = out.Theme
	if out.Site != nil {
		data[TemplateBlogKey] = out.Site
	}

	for _, e := range extra {
		maps.Copy(data, e)
	}

	return data
}

// csrfField is rendered with |safe, the token itself is escaped here.
func csrfField(token string) string {
	if token == "" {
		return ""
	}
	return `<input type="hidden" name="` + CSRFFormField + `" value="` + template.HTMLEscapeString(token) + `">`
}

func isAuthenticated(v any) bool {
	switch u := v.(type) {
	case *Session:
		return u.IsAuthenticated()
	case map[string]any:
		id, _ := u["user_id"].(string)
		parsed, err := uuid.Parse(id)
		return err == nil && parsed != uuid.Nil
	}
	return false
}

func isAdmin(v any) bool {
	switch u := v.(type) {
	case *Session:
		return u.IsAdmin()
	case *User:
		return u.IsAdmin()
	case map[string]any:
		return isAuthenticated(u) && permissionsOf(u).Has(PermissionAdmin)
	}
	return false
}

func displayName(v any) string {
	switch u := v.(type) {
	case *Session:
		return u.DisplayName()
	case *User:
		if u == nil {
			return ""
		}
		if u.NickName != "" {
			return u.NickName
		}
		return u.Username
	case map[string]any:
		if nick, _ := u["nickname"].(string); nick != "" {
			return nick
		}
		name, _ := u["username"].(string)
		return name
	}
	return ""
}

// JSON numbers decode as float64
func permissionsOf(m map[string]any) Permission {
	switch p := m["permissions"].(type) {
	case float64:
		return Permission(p)
	case Permission:
		return p
	}
	return PermissionNone
}
