// Package branding resolves tenant logo and background images.
package branding

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"apply-portal/internal/common/cdn"
)

type Branding struct {
	LogoURL       string // empty when the text fallback should be shown
	DisplayName   string
	BackgroundURL string // empty when the theme colour should be used
}

type Resolver struct {
	fetcher       cdn.Getter
	assetBaseURL  string
	defaultTenant string
}

func NewResolver(fetcher cdn.Getter, assetBaseURL, defaultTenant string) *Resolver {
	return &Resolver{
		fetcher:       fetcher,
		assetBaseURL:  strings.TrimRight(assetBaseURL, "/"),
		defaultTenant: defaultTenant,
	}
}

func (r *Resolver) LogoURL(tenant string) string {
	return fmt.Sprintf("%s/tenants/%s/apply/logo.jpg", r.assetBaseURL, tenant)
}

func (r *Resolver) BackgroundURL(tenant string) string {
	return fmt.Sprintf("%s/tenant/%s/bg.jpg", r.assetBaseURL, tenant)
}

// Resolve probes the tenant's assets. The default tenant has none.
// themeLogo, when set, is used if the tenant has no logo of its own.
func (r *Resolver) Resolve(ctx context.Context, tenant, themeLogo string) Branding {
	b := Branding{DisplayName: DisplayName(tenant)}
	if tenant == "" || tenant == r.defaultTenant {
		b.LogoURL = themeLogo
		return b
	}

	if url := r.LogoURL(tenant); r.fetcher.Exists(ctx, url) {
		b.LogoURL = url
	} else {
		b.LogoURL = themeLogo
	}
	if url := r.BackgroundURL(tenant); r.fetcher.Exists(ctx, url) {
		b.BackgroundURL = url
	}
	return b
}

// DisplayName is the text shown when no logo exists: "ACME" -> "Acme".
func DisplayName(tenant string) string {
	r, size := utf8.DecodeRuneInString(tenant)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(tenant[size:])
}
