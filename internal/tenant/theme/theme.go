// Package theme resolves a tenant's colour scheme and brand name.
package theme

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

type Theme struct {
	LogoURL         string `json:"logoUrl,omitempty"`
	BrandName       string `json:"brandName"`
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	ButtonRadius    string `json:"buttonRadius"`
}

// Default is used whenever no CDN theme is available.
var Default = Theme{
	BrandName:       "SmartyTalent",
	PrimaryColor:    "#2563eb",
	SecondaryColor:  "#1e40af",
	BackgroundColor: "#f8fafc",
	ButtonRadius:    "0.5rem",
}

// Partial holds the fields a CDN theme file actually provided.
type Partial struct {
	LogoURL         *string
	BrandName       *string
	PrimaryColor    *string
	SecondaryColor  *string
	BackgroundColor *string
	ButtonRadius    *string
}

// Empty reports whether nothing usable was found.
func (p Partial) Empty() bool {
	return p.LogoURL == nil && p.BrandName == nil && p.PrimaryColor == nil &&
		p.SecondaryColor == nil && p.BackgroundColor == nil && p.ButtonRadius == nil
}

// Over overlays the partial on base.
func (p Partial) Over(base Theme) Theme {
	out := base
	if p.LogoURL != nil {
		out.LogoURL = *p.LogoURL
	}
	if p.BrandName != nil {
		out.BrandName = *p.BrandName
	}
	if p.PrimaryColor != nil {
		out.PrimaryColor = *p.PrimaryColor
	}
	if p.SecondaryColor != nil {
		out.SecondaryColor = *p.SecondaryColor
	}
	if p.BackgroundColor != nil {
		out.BackgroundColor = *p.BackgroundColor
	}
	if p.ButtonRadius != nil {
		out.ButtonRadius = *p.ButtonRadius
	}
	return out
}

// Validate keeps only well-formed fields of a raw theme document. A theme
// exported from the customizer is wrapped in {"customizer": {...}}.
func Validate(raw []byte) Partial {
	var p Partial
	if !gjson.ValidBytes(raw) {
		return p
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return p
	}
	if c := doc.Get("customizer"); c.IsObject() {
		doc = c
	}

	if v := doc.Get("logoUrl"); v.Type == gjson.String && strings.HasPrefix(v.Str, "http") {
		p.LogoURL = ptr(v.Str)
	}
	if v := doc.Get("brandName"); v.Type == gjson.String && len(v.Str) < 100 {
		p.BrandName = ptr(v.Str)
	}
	p.PrimaryColor = color(doc.Get("primaryColor"))
	p.SecondaryColor = color(doc.Get("secondaryColor"))

	if bg := color(doc.Get("lightBackgroundColor")); bg != nil {
		p.BackgroundColor = bg
	} else {
		p.BackgroundColor = color(doc.Get("backgroundColor"))
	}

	if v := doc.Get("buttonRadius"); v.Type == gjson.String && len(v.Str) < 20 {
		p.ButtonRadius = ptr(v.Str)
	}
	return p
}

func color(v gjson.Result) *string {
	if v.Type == gjson.String && colorPattern.MatchString(v.Str) {
		return ptr(v.Str)
	}
	return nil
}

func ptr(s string) *string { return &s }

// CSSVars renders the custom properties consumed by the stylesheet.
// Values have passed Validate or come from Default, so they are safe to
// inline.
func (t Theme) CSSVars() template.CSS {
	return template.CSS(fmt.Sprintf(
		"--primary-color: %s; --secondary-color: %s; --background-color: %s; --button-radius: %s;",
		t.PrimaryColor, t.SecondaryColor, t.BackgroundColor, cssSafe(t.ButtonRadius),
	))
}

// cssSafe drops characters that could terminate the declaration.
func cssSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '"', '\'', '\\':
			return -1
		}
		return r
	}, s)
}
