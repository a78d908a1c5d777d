package validation

import (
	"testing"

	apperrors "apply-portal/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() Rules {
	return Rules{
		MaxFileSize: 10 * 1024 * 1024,
		AllowedTypes: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		AllowedExtensions: []string{".pdf", ".doc", ".docx"},
	}
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		wantMsg string
	}{
		{"valid", Contact{"Jane Doe", "jane@example.com", "+48 123 456 789"}, ""},
		{"missing name", Contact{"", "jane@example.com", "+48123456789"}, MsgMissingFields},
		{"blank email", Contact{"Jane", "   ", "+48123456789"}, MsgMissingFields},
		{"missing phone", Contact{"Jane", "jane@example.com", ""}, MsgMissingFields},
		{"email without domain dot", Contact{"Jane", "jane@example", "+48123456789"}, MsgInvalidEmail},
		{"email with space", Contact{"Jane", "ja ne@example.com", "+48123456789"}, MsgInvalidEmail},
		{"phone letters", Contact{"Jane", "jane@example.com", "call me"}, MsgInvalidPhone},
		{"phone too short", Contact{"Jane", "jane@example.com", "12345"}, MsgInvalidPhone},
		{"phone with parens", Contact{"Jane", "jane@example.com", "(555) 123-4567"}, ""},
		{"phone with no-break spaces", Contact{"Jane", "jane@example.com", "+48\u00a0600\u00a0123\u00a0456"}, ""},
		{"phone with narrow spaces", Contact{"Jane", "jane@example.com", "+48\u202f600\u2009123\ufeff456"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContact(tt.contact)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
			assert.Equal(t, tt.wantMsg, apperrors.PublicMessage(err))
		})
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"cv.pdf":         ".pdf",
		"CV.Final.DOCX":  ".docx",
		"pdf":            ".pdf",
		"cv.":            ".",
		".docx":          ".docx",
		"archive.tar.gz": ".gz",
	}
	for name, want := range tests {
		assert.Equal(t, want, Extension(name), name)
	}
}

func TestRules_ValidateFile(t *testing.T) {
	rules := testRules()

	tests := []struct {
		name     string
		file     *FileInfo
		wantCode apperrors.ErrorCode
		wantMsg  string
	}{
		{"pdf ok", &FileInfo{"cv.pdf", "application/pdf", 1024}, "", ""},
		{"docx by extension only", &FileInfo{"CV.DOCX", "application/octet-stream", 2048}, "", ""},
		{"doc by mime only", &FileInfo{"resume", "application/msword", 2048}, "", ""},
		{"exactly max size", &FileInfo{"cv.pdf", "application/pdf", 10 * 1024 * 1024}, "", ""},
		{"missing", nil, apperrors.ErrCodeValidationFailed, MsgFileRequired},
		{"no filename", &FileInfo{"", "application/pdf", 10}, apperrors.ErrCodeValidationFailed, MsgFileRequired},
		{"too large", &FileInfo{"cv.pdf", "application/pdf", 10*1024*1024 + 1}, apperrors.ErrCodeFileTooLarge, MsgFileTooLarge},
		{"image", &FileInfo{"me.png", "image/png", 100}, apperrors.ErrCodeFileTypeInvalid, MsgFileTypeInvalid},
		{"dotless name taken as extension", &FileInfo{"pdf", "application/octet-stream", 100}, "", ""},
		{"dotless unknown name", &FileInfo{"resume", "application/octet-stream", 100}, apperrors.ErrCodeFileTypeInvalid, MsgFileTypeInvalid},
		{"trailing dot", &FileInfo{"cv.", "application/octet-stream", 100}, apperrors.ErrCodeFileTypeInvalid, MsgFileTypeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.ValidateFile(tt.file)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.wantCode))
			assert.Equal(t, tt.wantMsg, apperrors.PublicMessage(err))
		})
	}
}

func TestRules_SizeCheckedBeforeType(t *testing.T) {
	err := testRules().ValidateFile(&FileInfo{"huge.exe", "application/x-msdownload", 20 * 1024 * 1024})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFileTooLarge))
}

func TestValidateDocument_ApplyEvent(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantValid bool
	}{
		{
			name:      "complete",
			doc:       `{"tenant":"acme","language":"en","name":"Jane","email":"j@x.io","phone":"+48123456789","files":[{"fileUrl":"tenantName=acme/cv.pdf","originalFilename":"cv.pdf"}],"consentCurrent":true,"consentFuture":false,"urlParams":{"utm_source":"li"}}`,
			wantValid: true,
		},
		{
			name:      "missing files",
			doc:       `{"tenant":"acme","name":"Jane","email":"j@x.io"}`,
			wantValid: false,
		},
		{
			name:      "non-string url param",
			doc:       `{"tenant":"acme","name":"Jane","email":"j@x.io","files":[],"urlParams":{"n":1}}`,
			wantValid: false,
		},
		{
			name:      "file without url",
			doc:       `{"tenant":"acme","name":"Jane","email":"j@x.io","files":[{"originalFilename":"cv.pdf"}]}`,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateDocument(ApplyEventSchema, []byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid, result.Error())
			if !tt.wantValid {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}
}

func TestValidateDocument_Malformed(t *testing.T) {
	_, err := ValidateDocument(ApplyEventSchema, []byte(`{not json`))
	assert.Error(t, err)
}
