// internal/common/errors/http.go
package errors

import (
	"encoding/json"
	"net/http"
)

var statusMapping = map[ErrorCode]int{
	ErrCodeValidationFailed:    http.StatusBadRequest,
	ErrCodeFileTooLarge:        http.StatusBadRequest,
	ErrCodeFileTypeInvalid:     http.StatusBadRequest,
	ErrCodeStorageUploadFailed: http.StatusInternalServerError,
	ErrCodeUpstreamRejected:    http.StatusBadGateway,
	ErrCodeUpstreamUnavailable: http.StatusBadGateway,
	ErrCodeEventPublishFailed:  http.StatusInternalServerError,
	ErrCodeCDNFetchFailed:      http.StatusBadGateway,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// HTTPStatus maps an error code to the response status.
func HTTPStatus(code ErrorCode) int {
	if status, ok := statusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// PublicMessage is the text a browser may see for err.
func PublicMessage(err error) string {
	stdErr := Normalize(err)
	if stdErr.Message == "" {
		return "Internal server error"
	}
	return stdErr.Message
}

// Logger is the subset of logger.Logger the writer needs.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Writer renders errors as {"error": message} and logs the private details.
type Writer struct {
	logger Logger
}

func NewWriter(logger Logger) *Writer {
	return &Writer{logger: logger}
}

func (h *Writer) Write(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"status":        status,
		"path":          r.URL.Path,
	}
	for k, v := range stdErr.Metadata {
		fields[k] = v
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	WriteJSON(w, status, map[string]string{"error": PublicMessage(stdErr)})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
