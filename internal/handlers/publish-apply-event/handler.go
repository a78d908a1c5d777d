// Package publishapplyevent is the function that republishes an accepted
// application onto the event bus.
package publishapplyevent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/observability"
	"apply-portal/internal/common/validation"
	"apply-portal/internal/models"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, detail models.ApplyEventDetail, raw []byte) error
}

type Handler struct {
	config     *Config
	dispatcher Dispatcher
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(cfg *Config, dispatcher Dispatcher, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Handler{
		config:     cfg,
		dispatcher: dispatcher,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"function": "publish-apply-event"}),
	}
}

// ServeHTTP accepts either the raw event detail or a function URL envelope.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		apperrors.WriteJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error("failed to read request body", map[string]interface{}{"error": err.Error()})
		h.respond(w, r, start, http.StatusInternalServerError, models.ErrorResponse{Error: msgInternal})
		return
	}

	env := Envelope{Body: string(raw)}
	if v := gjson.GetBytes(raw, "body"); v.Type == gjson.String {
		if err := json.Unmarshal(raw, &env); err != nil {
			h.logger.Error("malformed envelope", map[string]interface{}{"error": err.Error()})
			h.respond(w, r, start, http.StatusInternalServerError, models.ErrorResponse{Error: msgInternal})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()
	status, body := h.Handle(ctx, env)
	h.respond(w, r, start, status, body)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, start time.Time, status int, body interface{}) {
	h.obs.RecordRequest(r.Context(), "publish-apply-event", fmt.Sprint(status))
	h.logger.Debug("publish request handled", map[string]interface{}{
		"status":   status,
		"duration": time.Since(start).String(),
	})
	apperrors.WriteJSON(w, status, body)
}

// Handle decodes, validates and dispatches one event. It returns the status
// and body of the response.
func (h *Handler) Handle(ctx context.Context, env Envelope) (int, interface{}) {
	ctx, span := h.obs.StartSpan(ctx, "events.publish")
	defer span.End()

	raw, err := decodeBody(env)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.logger.Error("error publishing event", map[string]interface{}{"error": err.Error()})
		return http.StatusInternalServerError, models.ErrorResponse{Error: msgInternal}
	}

	var detail models.ApplyEventDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.logger.Error("error publishing event", map[string]interface{}{"error": err.Error()})
		return http.StatusInternalServerError, models.ErrorResponse{Error: msgInternal}
	}

	result, err := validation.ValidateDocument(validation.ApplyEventSchema, raw)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.logger.Error("error publishing event", map[string]interface{}{"error": err.Error()})
		return http.StatusInternalServerError, models.ErrorResponse{Error: msgInternal}
	}
	if !result.Valid {
		h.logger.Warn("rejected invalid event", map[string]interface{}{
			"tenant": detail.Tenant,
			"errors": result.Error(),
		})
		return http.StatusBadRequest, models.ErrorResponse{Error: msgInvalidEvent}
	}

	span.SetAttributes(
		attribute.String("tenant", detail.Tenant),
		attribute.String("referenceId", detail.ReferenceID),
	)
	h.logger.Info("publishing apply event", map[string]interface{}{
		"tenant":      detail.Tenant,
		"referenceId": detail.ReferenceID,
		"busName":     h.config.BusName,
		"detailType":  h.config.DetailType,
	})

	if err := h.dispatcher.Dispatch(ctx, detail, raw); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.logger.Error("failed to publish event", map[string]interface{}{
			"tenant":      detail.Tenant,
			"referenceId": detail.ReferenceID,
			"error":       err.Error(),
		})
		return http.StatusInternalServerError, models.ErrorResponse{Error: msgPublishFailed}
	}

	h.logger.Info("event published", map[string]interface{}{
		"tenant":      detail.Tenant,
		"referenceId": detail.ReferenceID,
	})
	return http.StatusOK, Output{Success: true}
}

func decodeBody(env Envelope) ([]byte, error) {
	body := env.Body
	if env.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 body: %w", err)
		}
		body = string(decoded)
	}
	if body == "" {
		body = "{}"
	}
	return []byte(body), nil
}
