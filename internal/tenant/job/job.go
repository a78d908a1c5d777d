// Package job loads the optional job descriptor shown on /{tenant}/{jobId}.
package job

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"apply-portal/internal/common/cdn"
	"apply-portal/internal/common/logger"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// LocalizedName is one entry of the descriptor's name map, in document order.
type LocalizedName struct {
	Locale string
	Name   string
}

type Job struct {
	ID        string
	Names     []LocalizedName
	Language  string
	Locations []string
}

type Loader struct {
	fetcher         cdn.Getter
	assetBaseURL    string
	defaultLanguage string
	supported       []string
	logger          logger.Logger
}

func NewLoader(fetcher cdn.Getter, assetBaseURL, defaultLanguage string, supported []string, log logger.Logger) *Loader {
	return &Loader{
		fetcher:         fetcher,
		assetBaseURL:    strings.TrimRight(assetBaseURL, "/"),
		defaultLanguage: defaultLanguage,
		supported:       supported,
		logger:          log,
	}
}

func (l *Loader) URL(tenant, jobID string) string {
	return fmt.Sprintf("%s/tenants/%s/apply/%s.json", l.assetBaseURL, url.PathEscape(tenant), url.PathEscape(jobID))
}

// Load returns nil when the descriptor is unreachable or has no name.
func (l *Loader) Load(ctx context.Context, tenant, jobID string) *Job {
	if jobID == "" {
		return nil
	}
	raw, err := l.fetcher.GetJSON(ctx, l.URL(tenant, jobID))
	if err != nil {
		return nil
	}
	j := Parse(raw)
	if j == nil {
		l.logger.Debug("job descriptor rejected", map[string]interface{}{"tenant": tenant, "jobId": jobID})
		return nil
	}
	j.ID = jobID
	return j
}

// Parse accepts an object whose "name" is truthy. A plain string name is
// treated as a single unlabelled locale.
func Parse(raw []byte) *Job {
	if !gjson.ValidBytes(raw) {
		return nil
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil
	}
	name := doc.Get("name")

	j := &Job{Language: doc.Get("language").String()}
	switch {
	case name.IsObject():
		name.ForEach(func(k, v gjson.Result) bool {
			j.Names = append(j.Names, LocalizedName{Locale: k.String(), Name: v.String()})
			return true
		})
	case name.Type == gjson.String && name.Str != "":
		j.Names = []LocalizedName{{Name: name.Str}}
	case name.Type == gjson.True, name.Type == gjson.Number && name.Num != 0, name.IsArray():
		// truthy but unusable: the page shows no job title
	default:
		return nil
	}

	for _, loc := range doc.Get("locations").Array() {
		if city := loc.Get("city"); city.Exists() {
			j.Locations = append(j.Locations, city.String())
		} else if loc.Type == gjson.String {
			j.Locations = append(j.Locations, loc.Str)
		}
	}
	return j
}

// MapLocaleToLanguage maps "it-IT" to "it" when supported, else the default.
func (l *Loader) MapLocaleToLanguage(locale string) string {
	return MapLocaleToLanguage(locale, l.supported, l.defaultLanguage)
}

func MapLocaleToLanguage(locale string, supported []string, fallback string) string {
	prefix := strings.ToLower(prefix2(locale))
	if lo.Contains(supported, prefix) {
		return prefix
	}
	return fallback
}

// Name picks the first locale matching lang, else the first entry. It
// returns "" for a job without names.
func (j *Job) Name(lang string) string {
	if j == nil || len(j.Names) == 0 {
		return ""
	}
	if n, ok := lo.Find(j.Names, func(n LocalizedName) bool {
		return strings.ToLower(prefix2(n.Locale)) == lang
	}); ok {
		return n.Name
	}
	return j.Names[0].Name
}

func prefix2(s string) string {
	if len(s) < 2 {
		return s
	}
	return s[:2]
}
