package submitapplication

import (
	"mime/multipart"

	"apply-portal/internal/models"
)

// Input is the parsed multipart form of POST /api/runs.
type Input struct {
	Tenant         string
	Language       string
	Name           string
	Email          string
	Phone          string
	CV             *multipart.FileHeader
	SourceJobID    string
	SourceURL      string
	ConsentCurrent bool
	ConsentFuture  bool
	Tracking       models.Tracking
}

// Output is the success body.
type Output = models.SubmitResponse
