package validation

import (
	"regexp"
	"strings"
	"unicode"

	apperrors "apply-portal/internal/common/errors"

	"github.com/samber/lo"
)

// Static messages returned to the browser.
const (
	MsgMissingFields   = "Missing required fields"
	MsgInvalidEmail    = "Invalid email format"
	MsgInvalidPhone    = "Invalid phone format"
	MsgFileRequired    = "CV file is required"
	MsgFileTooLarge    = "File size exceeds 10MB limit"
	MsgFileTypeInvalid = "Invalid file type. Only PDF, DOC, DOCX allowed"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// server side: at least six trailing digits/separators
	phonePattern = regexp.MustCompile(`^[+]?[(]?[0-9]{1,4}[)]?[-\s./0-9]{6,}$`)
)

// Contact holds the text fields of the application form.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// FileInfo describes the uploaded CV without its content.
type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Rules are the file constraints.
type Rules struct {
	MaxFileSize       int64
	AllowedTypes      []string
	AllowedExtensions []string
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPhone applies the server rule: whitespace is stripped first.
// Pasted numbers often carry no-break or thin spaces, so any Unicode
// space separator counts.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(stripSpaces(phone))
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Zs, r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, s)
}

// ValidateContact checks the text fields in order and returns the first
// failure.
func ValidateContact(c Contact) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.Phone) == "" {
		return apperrors.NewValidationError(MsgMissingFields)
	}
	if !IsValidEmail(c.Email) {
		return apperrors.NewValidationError(MsgInvalidEmail)
	}
	if !IsValidPhone(c.Phone) {
		return apperrors.NewValidationError(MsgInvalidPhone)
	}
	return nil
}

// ValidateFile checks presence, then size, then type. A file passes the type
// check when either its MIME type or its extension is allowed.
func (r Rules) ValidateFile(f *FileInfo) error {
	if f == nil || f.Filename == "" {
		return apperrors.NewValidationError(MsgFileRequired)
	}
	if r.MaxFileSize > 0 && f.Size > r.MaxFileSize {
		return apperrors.NewFileTooLargeError(MsgFileTooLarge, f.Size)
	}
	if !r.AllowedType(f.ContentType, f.Filename) {
		return apperrors.NewFileTypeInvalidError(MsgFileTypeInvalid, f.ContentType, f.Filename)
	}
	return nil
}

func (r Rules) AllowedType(contentType, filename string) bool {
	return lo.Contains(r.AllowedTypes, contentType) || lo.Contains(r.AllowedExtensions, Extension(filename))
}

// Extension is "." plus the text after the last dot, lowercased. A name
// without a dot is taken whole, so "pdf" yields ".pdf".
func Extension(filename string) string {
	return "." + strings.ToLower(filename[strings.LastIndex(filename, ".")+1:])
}
