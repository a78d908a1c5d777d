// Package renderpage serves the server-rendered apply and thank-you pages.
package renderpage

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/metrics"
	"apply-portal/internal/i18n"
	"apply-portal/internal/tenant/branding"
	"apply-portal/internal/tenant/job"
	"apply-portal/internal/tenant/theme"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

type Translations interface {
	Catalog() *i18n.Catalog
	Load(ctx context.Context, tenant, lang string) i18n.Dictionary
}

type ThemeLoader interface {
	Load(ctx context.Context, tenant string) (theme.Theme, theme.Source)
}

type BrandingResolver interface {
	Resolve(ctx context.Context, tenant, themeLogo string) branding.Branding
}

type JobLoader interface {
	Load(ctx context.Context, tenant, jobID string) *job.Job
}

type Handler struct {
	config       *Config
	translations Translations
	themes       ThemeLoader
	branding     BrandingResolver
	jobs         JobLoader
	errors       *apperrors.Writer
	logger       logger.Logger
}

func NewHandler(cfg *Config, translations Translations, themes ThemeLoader, br BrandingResolver, jobs JobLoader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"component": "pages"})
	return &Handler{
		config:       cfg,
		translations: translations,
		themes:       themes,
		branding:     br,
		jobs:         jobs,
		errors:       apperrors.NewWriter(log),
		logger:       log,
	}
}

// Routes registers the page routes. Static segments win over parameters,
// so /thank-you is never taken for a tenant.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Apply)
	r.Get("/thank-you", h.ThankYou)
	r.Get("/{tenant}", h.Apply)
	r.Get("/{tenant}/thank-you", h.ThankYou)
	r.Get("/{tenant}/{sourceJobId}", h.Apply)
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := h.tenant(r)
	jobID := chi.URLParam(r, "sourceJobId")

	var j *job.Job
	var hint string
	if jobID != "" {
		j = h.jobs.Load(ctx, tenant, jobID)
		if j != nil && j.Language != "" {
			hint = job.MapLocaleToLanguage(j.Language, h.translations.Catalog().Supported(), "")
		}
	}

	lang := h.language(w, r, hint)
	page, err := h.page(ctx, tenant, lang)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	data := ApplyPage{
		Page:        page,
		SourceJobID: jobID,
		JobName:     j.Name(lang),
		SubmitURL:   h.config.SubmitURL,
		ThankYouURL: page.BasePath + "/thank-you",
		MaxFileSize: h.config.MaxFileSize,
		Accept:      h.config.accept(),
		Types:       strings.Join(h.config.AllowedTypes, ","),
	}

	kind := "apply"
	if jobID != "" {
		kind = "job"
	}
	h.render(w, r, kind, func(buf *bytes.Buffer) error { return renderApply(buf, data) })
}

func (h *Handler) ThankYou(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := h.tenant(r)
	lang := h.language(w, r, "")

	page, err := h.page(ctx, tenant, lang)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	data := ThankYouPage{Page: page, BackURL: page.BasePath + "/"}
	h.render(w, r, "thank-you", func(buf *bytes.Buffer) error { return renderThankYou(buf, data) })
}

func (h *Handler) tenant(r *http.Request) string {
	if t := chi.URLParam(r, "tenant"); t != "" {
		return t
	}
	return h.config.DefaultTenant
}

// language resolves the page language and persists an explicit ?lang
// choice when it differs from the stored one.
func (h *Handler) language(w http.ResponseWriter, r *http.Request, hint string) string {
	catalog := h.translations.Catalog()
	lang := catalog.FromRequest(r, hint)

	if query := r.URL.Query().Get("lang"); catalog.IsValid(query) {
		var stored string
		if c, err := r.Cookie(catalog.CookieName()); err == nil {
			stored = c.Value
		}
		if query != stored {
			catalog.SetCookie(w, lang)
		}
	}
	return lang
}

// page resolves translations, theme and branding concurrently. Every loader
// falls back to defaults, so an error here is a programming error.
func (h *Handler) page(ctx context.Context, tenant, lang string) (Page, error) {
	var (
		dict  i18n.Dictionary
		th    theme.Theme
		brand branding.Branding
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dict = h.translations.Load(gctx, tenant, lang)
		return nil
	})
	g.Go(func() error {
		var source theme.Source
		th, source = h.themes.Load(gctx, tenant)
		brand = h.branding.Resolve(gctx, tenant, th.LogoURL)
		h.logger.Debug("theme resolved", map[string]interface{}{"tenant": tenant, "source": string(source)})
		return nil
	})
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	return newPage(lang, h.translations.Catalog().Supported(), dict, tenant, h.basePath(tenant), th, brand), nil
}

// basePath is empty for the default tenant so its pages live at the root.
func (h *Handler) basePath(tenant string) string {
	if tenant == h.config.DefaultTenant {
		return ""
	}
	return "/" + tenant
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, kind string, exec func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := exec(&buf); err != nil {
		h.errors.Write(w, r, apperrors.NewInternalError(err))
		return
	}
	metrics.PageViews.WithLabelValues(kind).Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
