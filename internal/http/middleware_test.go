package httpx

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompression(t *testing.T) {
	body := strings.Repeat("onboard ", 200)

	tests := []struct {
		name           string
		acceptEncoding string
		contentType    string
		status         int
		wantGzip       bool
	}{
		{name: "html for gzip client", acceptEncoding: "gzip, deflate", contentType: "text/html; charset=utf-8", status: 200, wantGzip: true},
		{name: "json for gzip client", acceptEncoding: "gzip", contentType: "application/json", status: 200, wantGzip: true},
		{name: "client without gzip", acceptEncoding: "deflate", contentType: "text/html", status: 200},
		{name: "gzip refused with q=0", acceptEncoding: "gzip;q=0, br", contentType: "text/html", status: 200},
		{name: "jpeg preview passes through", acceptEncoding: "gzip", contentType: "image/jpeg", status: 200},
		{name: "event stream passes through", acceptEncoding: "gzip", contentType: "text/event-stream", status: 200},
		{name: "not modified", acceptEncoding: "gzip", contentType: "text/html", status: http.StatusNotModified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Compression(CompressionConfig{Logger: quietLogger()})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				if tt.status != http.StatusNotModified {
					_, _ = io.WriteString(w, body)
				}
			}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Accept-Encoding", tt.acceptEncoding)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, r)

			if !tt.wantGzip {
				assert.Empty(t, rr.Header().Get("Content-Encoding"))
				if tt.status == http.StatusOK {
					assert.Equal(t, body, rr.Body.String())
				}
				return
			}
			assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
			assert.Contains(t, rr.Header().Values("Vary"), "Accept-Encoding")
			zr, err := gzip.NewReader(rr.Body)
			require.NoError(t, err)
			got, err := io.ReadAll(zr)
			require.NoError(t, err)
			assert.Equal(t, body, string(got))
		})
	}
}

func TestCompressionSmallBodyIsWritten(t *testing.T) {
	h := Compression(CompressionConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(got))
}

func TestRecover(t *testing.T) {
	h := Recover(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/home", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestLoggingKeepsFlusher(t *testing.T) {
	var flushed bool
	h := Logging(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		flushed = http.NewResponseController(w).Flush() == nil
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.True(t, flushed)
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestBodyLimit(t *testing.T) {
	h := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("much too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func csrfCookie(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/signin", nil))
	for _, c := range rr.Result().Cookies() {
		if c.Name == DefaultCSRFCookieName {
			assert.False(t, c.HttpOnly, "page script reads the token")
			assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
			return c.Value
		}
	}
	t.Fatal("no csrf cookie issued")
	return ""
}

func TestCSRFProtection(t *testing.T) {
	var seen string
	h := CSRFProtection(CSRFConfig{Exempt: []string{"/hooks/"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCSRFToken(r)
		w.WriteHeader(http.StatusOK)
	}))
	token := csrfCookie(t, h)
	require.NotEmpty(t, token)
	assert.Equal(t, token, seen)

	post := func(path, body, contentType string, header string) int {
		r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if contentType != "" {
			r.Header.Set("Content-Type", contentType)
		}
		if header != "" {
			r.Header.Set(DefaultCSRFHeaderName, header)
		}
		r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: token})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr.Code
	}

	t.Run("htmx header", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post("/setup/skip", "", "", token))
	})
	t.Run("mismatched header", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, post("/setup/skip", "", "", token+"x"))
	})
	t.Run("form field", func(t *testing.T) {
		form := url.Values{"csrf_token": {token}, "username": {"ada"}}
		assert.Equal(t, http.StatusOK, post("/setup/username", form.Encode(), "application/x-www-form-urlencoded", ""))
	})
	t.Run("multipart field", func(t *testing.T) {
		var b strings.Builder
		b.WriteString("--XX\r\nContent-Disposition: form-data; name=\"csrf_token\"\r\n\r\n")
		b.WriteString(token)
		b.WriteString("\r\n--XX--\r\n")
		assert.Equal(t, http.StatusOK, post("/setup/picture", b.String(), "multipart/form-data; boundary=XX", ""))
	})
	t.Run("json without header", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, post("/api/modals", `{"type":"alert"}`, "application/json", ""))
	})
	t.Run("exempt prefix", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post("/hooks/x", "", "", ""))
	})
}

func TestCSRFCookieReused(t *testing.T) {
	h := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	assert.Empty(t, rr.Result().Cookies())
}

func TestCSRFCookieSecureBehindProxy(t *testing.T) {
	h := CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	require.Len(t, rr.Result().Cookies(), 1)
	assert.True(t, rr.Result().Cookies()[0].Secure)
}

func TestHTMXHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/setup", nil)
	assert.False(t, IsHTMX(r))
	assert.False(t, WantsPartial(r))

	r.Header.Set("Hx-Request", "true")
	r.Header.Set("Hx-Target", "content")
	assert.True(t, IsHTMX(r))
	assert.True(t, WantsPartial(r))
	assert.Equal(t, "content", HXTarget(r))

	rr := httptest.NewRecorder()
	Navigate(rr, r, PathHome)
	assert.Equal(t, PathHome, rr.Header().Get("Hx-Redirect"))

	plain := httptest.NewRequest(http.MethodPost, "/setup/finish", nil)
	rr = httptest.NewRecorder()
	Navigate(rr, plain, PathHome)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, PathHome, rr.Header().Get("Location"))
}
