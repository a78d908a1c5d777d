package ledger

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"apply-portal/internal/common/logger"
	"apply-portal/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submission() models.Submission {
	return models.Submission{
		Tenant:      "acme",
		Language:    "en",
		SourceJobID: "job-42",
		CV:          models.UploadedFile{FileURL: "cv/tenantName=acme/year=2024/month=03/day=07/ab-cv.pdf"},
		Tracking: models.Tracking{
			Referrer:      "https://indeed.com",
			LandingURL:    "https://apply.test/acme/job-42?utm_source=indeed&utm_campaign=spring",
			Params:        map[string]string{"utm_source": "indeed", "utm_campaign": "spring"},
			RedirectCount: 1,
		},
	}
}

func TestLedger_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)
	l := New(db, logger.NewNoOpLogger())
	l.now = func() time.Time { return now }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO apply_ledger")).
		WithArgs(
			"run-1", "acme",
			sql.NullString{String: "job-42", Valid: true},
			"en",
			sql.NullString{String: "https://indeed.com", Valid: true},
			sql.NullString{String: "https://apply.test/acme/job-42?utm_source=indeed&utm_campaign=spring", Valid: true},
			sql.NullString{String: "indeed", Valid: true},
			sql.NullString{},
			sql.NullString{String: "spring", Valid: true},
			sql.NullString{},
			sql.NullString{},
			`{"utm_campaign":"spring","utm_source":"indeed"}`,
			1,
			"cv/tenantName=acme/year=2024/month=03/day=07/ab-cv.pdf",
			now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	l.Record(context.Background(), "run-1", submission())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_RecordFailureIsSwallowed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO apply_ledger").WillReturnError(errors.New("relation does not exist"))

	assert.NotPanics(t, func() {
		New(db, logger.NewNoOpLogger()).Record(context.Background(), "run-1", submission())
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Disabled(t *testing.T) {
	l := New(nil, logger.NewNoOpLogger())
	assert.False(t, l.Enabled())
	l.Record(context.Background(), "run-1", submission())

	var none *Ledger
	assert.False(t, none.Enabled())
}
