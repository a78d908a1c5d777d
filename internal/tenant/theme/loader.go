package theme

import (
	"context"
	"fmt"
	"strings"

	"apply-portal/internal/common/cdn"
	"apply-portal/internal/common/logger"
)

// Source names the layer a theme came from.
type Source string

const (
	SourceTenant  Source = "tenant"
	SourceGlobal  Source = "global"
	SourceDefault Source = "default"
)

type Loader struct {
	fetcher       cdn.Getter
	baseURL       string
	defaultTenant string
	globalTenant  string
	logger        logger.Logger
}

func NewLoader(fetcher cdn.Getter, baseURL, defaultTenant, globalTenant string, log logger.Logger) *Loader {
	return &Loader{
		fetcher:       fetcher,
		baseURL:       strings.TrimRight(baseURL, "/"),
		defaultTenant: defaultTenant,
		globalTenant:  globalTenant,
		logger:        log,
	}
}

func (l *Loader) url(tenant string) string {
	return fmt.Sprintf("%s/tenants/%s/apply/theme.json", l.baseURL, tenant)
}

// Load walks tenant theme, global theme, built-in default. A layer counts
// only when it yields at least one valid field; the first such layer is
// overlaid on Default.
func (l *Loader) Load(ctx context.Context, tenant string) (Theme, Source) {
	if tenant != "" && tenant != l.defaultTenant {
		if p, ok := l.fetch(ctx, tenant); ok {
			return p.Over(Default), SourceTenant
		}
	}

	if p, ok := l.fetch(ctx, l.globalTenant); ok {
		return p.Over(Default), SourceGlobal
	}

	return Default, SourceDefault
}

func (l *Loader) fetch(ctx context.Context, tenant string) (Partial, bool) {
	raw, err := l.fetcher.GetJSON(ctx, l.url(tenant))
	if err != nil {
		return Partial{}, false
	}
	p := Validate(raw)
	if p.Empty() {
		l.logger.Debug("theme has no usable fields", map[string]interface{}{"tenant": tenant})
		return Partial{}, false
	}
	return p, true
}
