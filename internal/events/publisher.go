// Package events hands accepted applications to the event bus. The
// apply-server side only knows the publish function's URL; the sinks in
// this package are what that function writes to.
package events

import (
	"context"
	"sync"
	"time"

	apphttp "apply-portal/internal/common/http"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/metrics"
	"apply-portal/internal/models"
)

// Publisher posts event details to the publish function URL. It never
// reports failures to its caller.
type Publisher struct {
	http    *apphttp.Client
	url     string
	timeout time.Duration
	logger  logger.Logger
	wg      sync.WaitGroup
}

func NewPublisher(url string, timeout time.Duration, log logger.Logger) *Publisher {
	return NewPublisherWith(apphttp.NewClient(timeout), url, timeout, log)
}

func NewPublisherWith(c *apphttp.Client, url string, timeout time.Duration, log logger.Logger) *Publisher {
	return &Publisher{
		http:    c,
		url:     url,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "events"}),
	}
}

// Publish sends detail and logs the outcome.
func (p *Publisher) Publish(ctx context.Context, detail models.ApplyEventDetail) {
	if p.url == "" {
		metrics.EventsPublished.WithLabelValues("function", "skipped").Inc()
		p.logger.Error("PUBLISH_APPLY_EVENT_URL is not set, skipping event publish", map[string]interface{}{
			"tenant":      detail.Tenant,
			"referenceId": detail.ReferenceID,
		})
		return
	}

	resp, err := p.http.PostJSON(ctx, p.url, detail, nil)
	if err != nil {
		metrics.EventsPublished.WithLabelValues("function", "error").Inc()
		p.logger.Error("error invoking publish function", map[string]interface{}{
			"referenceId": detail.ReferenceID,
			"error":       err.Error(),
		})
		return
	}
	if !resp.OK() {
		metrics.EventsPublished.WithLabelValues("function", "rejected").Inc()
		p.logger.Error("publish function returned an error status", map[string]interface{}{
			"referenceId": detail.ReferenceID,
			"status":      resp.StatusCode,
			"body":        string(resp.Body),
		})
		return
	}

	metrics.EventsPublished.WithLabelValues("function", "ok").Inc()
	p.logger.Info("apply event published", map[string]interface{}{
		"referenceId": detail.ReferenceID,
		"status":      resp.StatusCode,
	})
}

// PublishAsync publishes in the background on a context detached from the
// request, bounded by the publisher timeout.
func (p *Publisher) PublishAsync(ctx context.Context, detail models.ApplyEventDetail) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		p.Publish(ctx, detail)
	}()
}

// Wait blocks until background publications finish or ctx is done.
func (p *Publisher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
