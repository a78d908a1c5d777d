package models

// ApplyEventDetail is the payload of the apply:file:uploaded event.
type ApplyEventDetail struct {
	Tenant         string            `json:"tenant"`
	Language       string            `json:"language"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone"`
	Files          []UploadedFile    `json:"files"`
	ConsentCurrent bool              `json:"consentCurrent"`
	ConsentFuture  bool              `json:"consentFuture"`
	SourceURL      string            `json:"sourceUrl"`
	Referrer       string            `json:"referrer"`
	LandingURL     string            `json:"landingUrl"`
	URLParams      map[string]string `json:"urlParams"`
	SourceJobID    string            `json:"sourceJobId"`
	ReferenceID    string            `json:"referenceId,omitempty"`
	RedirectCount  int               `json:"redirectCount,omitempty"`
}

// NewApplyEventDetail flattens an accepted submission into the event shape.
func NewApplyEventDetail(s Submission, referenceID string) ApplyEventDetail {
	params := s.Tracking.Params
	if params == nil {
		params = map[string]string{}
	}
	return ApplyEventDetail{
		Tenant:         s.Tenant,
		Language:       s.Language,
		Name:           s.Name,
		Email:          s.Email,
		Phone:          s.Phone,
		Files:          []UploadedFile{s.CV},
		ConsentCurrent: s.ConsentCurrent,
		ConsentFuture:  s.ConsentFuture,
		SourceURL:      s.SourceURL,
		Referrer:       s.Tracking.Referrer,
		LandingURL:     s.Tracking.LandingURL,
		URLParams:      params,
		SourceJobID:    s.SourceJobID,
		ReferenceID:    referenceID,
		RedirectCount:  s.Tracking.RedirectCount,
	}
}
