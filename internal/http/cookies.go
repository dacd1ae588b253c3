package httpx

import (
	"net/http"
	"strings"
	"time"
)

// cookieJar writes the application's cookies with consistent attributes.
type cookieJar struct {
	Domain string
}

// cookieSpec describes one cookie to set.
type cookieSpec struct {
	Name     string
	Value    string
	MaxAge   time.Duration // zero means a browser-session cookie
	SameSite http.SameSite
}

func (c cookieJar) set(w http.ResponseWriter, r *http.Request, s cookieSpec) {
	sameSite := s.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.Name,
		Value:    s.Value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: sameSite,
		MaxAge:   int(s.MaxAge.Seconds()),
	})
}

// clear expires a cookie, mirroring the attributes used to set it.
func (c cookieJar) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || isForwardedHTTPS(r)
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
