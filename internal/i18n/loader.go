package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"apply-portal/internal/common/cdn"
	"apply-portal/internal/common/logger"
)

// Loader resolves a tenant's dictionary: CDN overrides on top of the
// built-in translations.
type Loader struct {
	catalog      *Catalog
	fetcher      cdn.Getter
	assetBaseURL string
	logger       logger.Logger
}

func NewLoader(catalog *Catalog, fetcher cdn.Getter, assetBaseURL string, log logger.Logger) *Loader {
	return &Loader{
		catalog:      catalog,
		fetcher:      fetcher,
		assetBaseURL: strings.TrimRight(assetBaseURL, "/"),
		logger:       log,
	}
}

func (l *Loader) Catalog() *Catalog { return l.catalog }

func (l *Loader) URL(tenant, lang string) string {
	return fmt.Sprintf("%s/tenants/%s/apply/i18n/%s.json", l.assetBaseURL, url.PathEscape(tenant), lang)
}

// Load never fails: any CDN problem yields the built-in dictionary.
func (l *Loader) Load(ctx context.Context, tenant, lang string) Dictionary {
	if !l.catalog.IsValid(lang) {
		lang = l.catalog.Default()
	}
	base := l.catalog.Dictionary(lang)
	if tenant == "" || l.fetcher == nil {
		return base
	}

	raw, err := l.fetcher.GetJSON(ctx, l.URL(tenant, lang))
	if err != nil {
		return base
	}
	var override map[string]interface{}
	if err := json.Unmarshal(raw, &override); err != nil {
		l.logger.Warn("ignoring malformed translation override", map[string]interface{}{
			"tenant":   tenant,
			"language": lang,
			"error":    err.Error(),
		})
		return base
	}

	merged := copyTree(base)
	overlay(merged, override)
	return Dictionary(merged)
}

// overlay copies string leaves of src into dst. Values whose shape does not
// match the built-in tree are dropped.
func overlay(dst, src map[string]interface{}) {
	for k, v := range src {
		switch sv := v.(type) {
		case string:
			if _, isTree := dst[k].(map[string]interface{}); !isTree {
				dst[k] = sv
			}
		case map[string]interface{}:
			sub, ok := dst[k].(map[string]interface{})
			if !ok {
				if _, exists := dst[k]; exists {
					continue
				}
				sub = map[string]interface{}{}
				dst[k] = sub
			}
			overlay(sub, sv)
		}
	}
}

func copyTree(src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		if m, ok := v.(map[string]interface{}); ok {
			out[k] = copyTree(m)
			continue
		}
		out[k] = v
	}
	return out
}
