// internal/models/application.go
package models

// UploadedFile points at a stored CV.
type UploadedFile struct {
	FileURL          string `json:"fileUrl"`
	OriginalFilename string `json:"originalFilename"`
}

// Tracking is the attribution data captured on the candidate's first page
// view and carried through to the submission.
type Tracking struct {
	Referrer      string            `json:"referrer"`
	LandingURL    string            `json:"landingUrl"`
	Params        map[string]string `json:"params"`
	RedirectCount int               `json:"redirectCount"`
	CapturedAt    int64             `json:"capturedAt,omitempty"` // unix millis
}

// Empty reports whether no attribution was captured.
func (t Tracking) Empty() bool {
	return t.Referrer == "" && t.LandingURL == "" && len(t.Params) == 0 && t.RedirectCount == 0
}

// Submission is one validated application form.
type Submission struct {
	Tenant         string       `json:"tenant"`
	Language       string       `json:"language"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	CV             UploadedFile `json:"cv"`
	SourceJobID    string       `json:"sourceJobId,omitempty"`
	SourceURL      string       `json:"sourceUrl,omitempty"`
	ConsentCurrent bool         `json:"consentCurrent"`
	ConsentFuture  bool         `json:"consentFuture"`
	Tracking       Tracking     `json:"tracking"`
}

// SubmitResponse is the success body of POST /api/runs.
type SubmitResponse struct {
	Success     bool   `json:"success"`
	ReferenceID string `json:"referenceId"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}
