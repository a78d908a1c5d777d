// Package tracking captures attribution data (job board referrer, landing
// URL, query parameters) on the first page hit, before the browser can
// strip it, and recovers it when the application is submitted.
package tracking

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"apply-portal/internal/common/logger"
	"apply-portal/internal/models"

	"github.com/samber/lo"
)

const (
	CookieName     = "st_tracking"
	cookieMaxAge   = 30 * time.Minute
	userAgentLimit = 80
)

// DefaultSkipPrefixes are paths that never carry attribution.
var DefaultSkipPrefixes = []string{"/api", "/static", "/favicon.ico", "/health", "/ready", "/metrics"}

// Payload is the cookie body. The field names are read by page JS.
type Payload struct {
	Params     map[string]string `json:"params"`
	LandingURL string            `json:"landingUrl"`
	Referer    string            `json:"referer"`
	CapturedAt int64             `json:"capturedAt"`
}

// Capture logs every page hit and, when the hit carries query parameters
// or a Referer, stores them in the tracking cookie.
func Capture(log logger.Logger, skipPrefixes ...string) func(http.Handler) http.Handler {
	if len(skipPrefixes) == 0 {
		skipPrefixes = DefaultSkipPrefixes
	}
	log = log.WithFields(map[string]interface{}{"component": "tracking"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || skipped(r.URL.Path, skipPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			referer := r.Header.Get("Referer")
			landing := landingURL(r)
			log.Info("incoming page request", map[string]interface{}{
				"url":       landing,
				"referer":   orNone(referer),
				"params":    orNone(r.URL.RawQuery),
				"userAgent": truncate(r.UserAgent(), userAgentLimit),
			})

			if r.URL.RawQuery != "" || referer != "" {
				p := Payload{
					Params:     flatten(r.URL.Query()),
					LandingURL: landing,
					Referer:    referer,
					CapturedAt: time.Now().UnixMilli(),
				}
				if err := setCookie(w, p); err != nil {
					log.Warn("failed to encode tracking cookie", map[string]interface{}{"error": err.Error()})
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// FromRequest builds the submission's tracking data from the form fields
// the page posts. When the form carries none, the cookie set by Capture
// is used instead. The request's multipart form must already be parsed.
func FromRequest(r *http.Request) models.Tracking {
	t := models.Tracking{
		Referrer:   strings.TrimSpace(r.FormValue("referrer")),
		LandingURL: strings.TrimSpace(r.FormValue("landingUrl")),
	}
	if raw := r.FormValue("urlParams"); raw != "" {
		var params map[string]string
		if err := json.Unmarshal([]byte(raw), &params); err == nil {
			t.Params = params
		}
	}
	if n, err := strconv.Atoi(r.FormValue("redirectCount")); err == nil && n > 0 {
		t.RedirectCount = n
	}

	if t.Referrer == "" && t.LandingURL == "" && len(t.Params) == 0 {
		if p, ok := ReadCookie(r); ok {
			t.Referrer = p.Referer
			t.LandingURL = p.LandingURL
			t.Params = p.Params
			t.CapturedAt = p.CapturedAt
		}
	}
	return t
}

// ReadCookie decodes the tracking cookie, if present and well formed.
func ReadCookie(r *http.Request) (Payload, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Payload{}, false
	}
	raw, err := url.PathUnescape(c.Value)
	if err != nil {
		return Payload{}, false
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, false
	}
	return p, true
}

// Cookie values cannot hold raw JSON, so the payload is percent-encoded
// the way the browser's decodeURIComponent expects.
func setCookie(w http.ResponseWriter, p Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    url.PathEscape(string(raw)),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func skipped(path string, prefixes []string) bool {
	return lo.SomeBy(prefixes, func(p string) bool { return strings.HasPrefix(path, p) })
}

// flatten keeps the last value of repeated parameters.
func flatten(q url.Values) map[string]string {
	return lo.MapValues(q, func(v []string, _ string) string {
		if len(v) == 0 {
			return ""
		}
		return v[len(v)-1]
	})
}

func landingURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
