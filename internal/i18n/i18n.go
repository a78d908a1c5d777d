// Package i18n holds the built-in translations and the language detection
// rules shared by every page.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var locales embed.FS

const cookieMaxAge = 365 * 24 * time.Hour

// Dictionary is a nested translation tree as decoded from JSON.
type Dictionary map[string]interface{}

// T resolves a dotted path such as "form.title". A missing or non-string
// leaf yields the path itself so gaps stay visible on the page.
func (d Dictionary) T(key string) string {
	var node interface{} = map[string]interface{}(d)
	for _, part := range strings.Split(key, ".") {
		m, ok := asMap(node)
		if !ok {
			return key
		}
		if node, ok = m[part]; !ok {
			return key
		}
	}
	if s, ok := node.(string); ok {
		return s
	}
	return key
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Dictionary:
		return m, true
	}
	return nil, false
}

type Catalog struct {
	defaultLanguage string
	supported       []string
	cookieName      string
	dictionaries    map[string]Dictionary
}

// NewCatalog loads the embedded dictionary of every supported language.
// The default language must be one of them.
func NewCatalog(defaultLanguage string, supported []string, cookieName string) (*Catalog, error) {
	if !lo.Contains(supported, defaultLanguage) {
		return nil, fmt.Errorf("default language %q is not in supported languages %v", defaultLanguage, supported)
	}

	c := &Catalog{
		defaultLanguage: defaultLanguage,
		supported:       supported,
		cookieName:      cookieName,
		dictionaries:    make(map[string]Dictionary, len(supported)),
	}
	for _, lang := range supported {
		raw, err := locales.ReadFile(path.Join("locales", lang+".json"))
		if err != nil {
			return nil, fmt.Errorf("no built-in translations for %q: %w", lang, err)
		}
		var d Dictionary
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("failed to parse %s.json: %w", lang, err)
		}
		c.dictionaries[lang] = d
	}
	return c, nil
}

func (c *Catalog) Default() string     { return c.defaultLanguage }
func (c *Catalog) Supported() []string { return c.supported }
func (c *Catalog) CookieName() string  { return c.cookieName }

func (c *Catalog) IsValid(lang string) bool {
	return lo.Contains(c.supported, lang)
}

// Dictionary returns the built-in dictionary for lang, falling back to the
// default language. Callers must not mutate it.
func (c *Catalog) Dictionary(lang string) Dictionary {
	if d, ok := c.dictionaries[lang]; ok {
		return d
	}
	return c.dictionaries[c.defaultLanguage]
}

// Detect picks the language in priority order: query, cookie, the first
// Accept-Language entry, default. Unsupported candidates are skipped.
func (c *Catalog) Detect(query, cookie, acceptLanguage string) string {
	if c.IsValid(query) {
		return query
	}
	if c.IsValid(cookie) {
		return cookie
	}
	if lang := c.FromAcceptLanguage(acceptLanguage); lang != "" {
		return lang
	}
	return c.defaultLanguage
}

// FromAcceptLanguage looks only at the first listed entry, ignoring
// q-values, and returns its base language when supported, else "".
func (c *Catalog) FromAcceptLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	first = strings.TrimSpace(first)
	if first == "" || first == "*" {
		return ""
	}
	tag, err := language.Parse(first)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if lang := base.String(); c.IsValid(lang) {
		return lang
	}
	return ""
}

// FromRequest applies Detect to a request. hint, typically the job
// descriptor's language, is consulted after the cookie and before
// Accept-Language.
func (c *Catalog) FromRequest(r *http.Request, hint string) string {
	query := r.URL.Query().Get("lang")
	var cookie string
	if ck, err := r.Cookie(c.cookieName); err == nil {
		cookie = ck.Value
	}
	if !c.IsValid(query) && !c.IsValid(cookie) && c.IsValid(hint) {
		return hint
	}
	return c.Detect(query, cookie, r.Header.Get("Accept-Language"))
}

// SetCookie persists lang for a year.
func (c *Catalog) SetCookie(w http.ResponseWriter, lang string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		SameSite: http.SameSiteLaxMode,
	})
}
