// Package ledger keeps one attribution row per accepted application.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"apply-portal/internal/common/logger"
	"apply-portal/internal/models"
)

const insertQuery = `
	INSERT INTO apply_ledger (
		reference_id, tenant, source_job_id, language, referrer, landing_url,
		utm_source, utm_medium, utm_campaign, utm_term, utm_content,
		url_params, redirect_count, upload_key, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (reference_id) DO NOTHING`

// Ledger is a no-op when built without a database.
type Ledger struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func New(db *sql.DB, log logger.Logger) *Ledger {
	return &Ledger{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "ledger"}),
		now:    time.Now,
	}
}

func (l *Ledger) Enabled() bool { return l != nil && l.db != nil }

// Record stores the submission's attribution. Failures are logged and
// never reach the candidate.
func (l *Ledger) Record(ctx context.Context, referenceID string, s models.Submission) {
	if !l.Enabled() {
		return
	}

	params := s.Tracking.Params
	if params == nil {
		params = map[string]string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		paramsJSON = []byte("{}")
	}

	_, err = l.db.ExecContext(ctx, insertQuery,
		referenceID,
		s.Tenant,
		nullIfEmpty(s.SourceJobID),
		s.Language,
		nullIfEmpty(s.Tracking.Referrer),
		nullIfEmpty(s.Tracking.LandingURL),
		nullIfEmpty(params["utm_source"]),
		nullIfEmpty(params["utm_medium"]),
		nullIfEmpty(params["utm_campaign"]),
		nullIfEmpty(params["utm_term"]),
		nullIfEmpty(params["utm_content"]),
		string(paramsJSON),
		s.Tracking.RedirectCount,
		s.CV.FileURL,
		l.now().UTC(),
	)
	if err != nil {
		l.logger.Error("failed to record submission", map[string]interface{}{
			"referenceId": referenceID,
			"tenant":      s.Tenant,
			"error":       err.Error(),
		})
		return
	}
	l.logger.Debug("submission recorded", map[string]interface{}{"referenceId": referenceID})
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
