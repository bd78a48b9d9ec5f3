package account

import (
	"net/url"
	"strings"
)

const (
	RootPath       = "/"
	LoginPath      = "/account/login"
	RedirectURIKey = "redirectUri"
)

// IsLocalURL reports whether target is a same-site path: it must start with
// a single slash and carry neither a scheme nor a host.
func IsLocalURL(target string) bool {
	if target == "" || target[0] != '/' {
		return false
	}

	// "//host" and "/\host" are protocol relative in browsers
	if len(target) > 1 && (target[1] == '/' || target[1] == '\\') {
		return false
	}

	if strings.ContainsAny(target, "\\\r\n\t") {
		return false
	}

	u, err := url.Parse(target)
	if err != nil {
		return false
	}

	return u.Scheme == "" && u.Host == "" && u.User == nil
}

// SafeRedirect returns target when it is local, root otherwise.
func SafeRedirect(target string) string {
	target = strings.TrimSpace(target)
	if IsLocalURL(target) {
		return target
	}
	return RootPath
}

// localOrEmpty keeps target only when it is local so views never echo a
// foreign or script URL back into a link or form.
func localOrEmpty(target string) string {
	target = strings.TrimSpace(target)
	if IsLocalURL(target) {
		return target
	}
	return ""
}

// LoginURL is the login path carrying target as redirectUri when target is
// local. Slashes are left unescaped so the value stays readable.
func LoginURL(target string) string {
	return withRedirectURI(LoginPath, target)
}

func withRedirectURI(path, target string) string {
	target = strings.TrimSpace(target)
	if !IsLocalURL(target) || target == RootPath {
		return path
	}

	q := url.Values{}
	q.Set(RedirectURIKey, target)
	return path + "?" + strings.ReplaceAll(q.Encode(), "%2F", "/")
}
