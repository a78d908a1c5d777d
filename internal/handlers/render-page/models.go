package renderpage

import (
	"time"

	"apply-portal/internal/i18n"
	"apply-portal/internal/tenant/branding"
	"apply-portal/internal/tenant/theme"
)

type LanguageOption struct {
	Code     string
	Label    string
	Selected bool
}

// Page is what every template renders from.
type Page struct {
	Lang      string
	Languages []LanguageOption
	Dict      i18n.Dictionary
	Tenant    string
	BasePath  string
	Theme     theme.Theme
	Branding  branding.Branding
	Year      int
}

// T translates key in the page language.
func (p Page) T(key string) string {
	return p.Dict.T(key)
}

// BrandName is shown in the footer and, without a logo, in the header.
func (p Page) BrandName() string {
	if p.Theme.BrandName != "" {
		return p.Theme.BrandName
	}
	return p.Branding.DisplayName
}

type ApplyPage struct {
	Page
	SourceJobID string
	JobName     string
	SubmitURL   string
	ThankYouURL string
	MaxFileSize int64
	Accept      string
	Types       string
}

type ThankYouPage struct {
	Page
	BackURL string
}

func newPage(lang string, supported []string, dict i18n.Dictionary, tenant, basePath string, th theme.Theme, b branding.Branding) Page {
	p := Page{
		Lang:     lang,
		Dict:     dict,
		Tenant:   tenant,
		BasePath: basePath,
		Theme:    th,
		Branding: b,
		Year:     time.Now().Year(),
	}
	for _, code := range supported {
		p.Languages = append(p.Languages, LanguageOption{
			Code:     code,
			Label:    dict.T("language." + code),
			Selected: code == lang,
		})
	}
	return p
}
