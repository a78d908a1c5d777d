package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/metrics"
	"apply-portal/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"golang.org/x/sync/errgroup"
)

// Sink receives one apply event. raw is the detail exactly as it arrived.
type Sink interface {
	Name() string
	Send(ctx context.Context, detail models.ApplyEventDetail, raw []byte) error
}

type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// MessagePublisher is satisfied by camunda.Client.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey, messageID string, ttl time.Duration, variables interface{}) error
}

type EventBridgeSink struct {
	client     EventBridgeAPI
	busName    string
	source     string
	detailType string
}

func NewEventBridgeSink(client EventBridgeAPI, busName, source, detailType string) *EventBridgeSink {
	return &EventBridgeSink{client: client, busName: busName, source: source, detailType: detailType}
}

func (s *EventBridgeSink) Name() string { return "eventbridge" }

// Send puts a single entry; any failed entry fails the call.
func (s *EventBridgeSink) Send(ctx context.Context, _ models.ApplyEventDetail, raw []byte) error {
	out, err := s.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			Source:       aws.String(s.source),
			DetailType:   aws.String(s.detailType),
			EventBusName: aws.String(s.busName),
			Detail:       aws.String(string(raw)),
		}},
	})
	if err != nil {
		return apperrors.NewEventPublishError(err.Error()).WithMetadata("sink", s.Name())
	}
	if out.FailedEntryCount > 0 {
		var reasons []string
		for _, e := range out.Entries {
			if e.ErrorCode != nil {
				reasons = append(reasons, aws.ToString(e.ErrorCode)+": "+aws.ToString(e.ErrorMessage))
			}
		}
		return apperrors.NewEventPublishError(strings.Join(reasons, "; ")).
			WithMetadata("sink", s.Name()).
			WithMetadata("failedEntryCount", out.FailedEntryCount)
	}
	return nil
}

type SNSSink struct {
	client   SNSAPI
	topicARN string
	subject  string
}

func NewSNSSink(client SNSAPI, topicARN, subject string) *SNSSink {
	return &SNSSink{client: client, topicARN: topicARN, subject: subject}
}

func (s *SNSSink) Name() string { return "sns" }

func (s *SNSSink) Send(ctx context.Context, detail models.ApplyEventDetail, raw []byte) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(s.subject),
		Message:  aws.String(string(raw)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"tenant": {DataType: aws.String("String"), StringValue: aws.String(orUnknown(detail.Tenant))},
		},
	})
	return err
}

// WorkflowSink starts or advances an intake process in Zeebe.
type WorkflowSink struct {
	publisher   MessagePublisher
	messageName string
	ttl         time.Duration
}

func NewWorkflowSink(publisher MessagePublisher, messageName string, ttl time.Duration) *WorkflowSink {
	return &WorkflowSink{publisher: publisher, messageName: messageName, ttl: ttl}
}

func (s *WorkflowSink) Name() string { return "workflow" }

// Send correlates on the reference id, falling back to the email.
func (s *WorkflowSink) Send(ctx context.Context, detail models.ApplyEventDetail, _ []byte) error {
	key := detail.ReferenceID
	if key == "" {
		key = strings.ToLower(detail.Email)
	}
	return s.publisher.PublishMessage(ctx, s.messageName, key, detail.ReferenceID, s.ttl, detail)
}

// AckEmailSink sends the candidate a receipt.
type AckEmailSink struct {
	client SESAPI
	from   string
}

func NewAckEmailSink(client SESAPI, from string) *AckEmailSink {
	return &AckEmailSink{client: client, from: from}
}

func (s *AckEmailSink) Name() string { return "ack-email" }

var ackTemplates = map[string][2]string{
	"en": {"We received your application", "Hello %s,\n\nthank you for applying. Your application has been received and we will be in touch soon."},
	"pl": {"Otrzymaliśmy Twoją aplikację", "Dzień dobry %s,\n\ndziękujemy za aplikację. Otrzymaliśmy ją i wkrótce się odezwiemy."},
}

func (s *AckEmailSink) Send(ctx context.Context, detail models.ApplyEventDetail, _ []byte) error {
	if detail.Email == "" {
		return nil
	}
	tpl, ok := ackTemplates[detail.Language]
	if !ok {
		tpl = ackTemplates["en"]
	}
	body := fmt.Sprintf(tpl[1], detail.Name)

	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{ToAddresses: []string{detail.Email}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(tpl[0]), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(s.from),
	})
	return err
}

// Dispatcher writes to the primary sink and then, best effort, to the rest.
type Dispatcher struct {
	primary   Sink
	secondary []Sink
	logger    logger.Logger
}

func NewDispatcher(primary Sink, log logger.Logger, secondary ...Sink) *Dispatcher {
	return &Dispatcher{primary: primary, secondary: secondary, logger: log}
}

// Dispatch fails only when the primary sink fails; secondary sinks are
// skipped in that case.
func (d *Dispatcher) Dispatch(ctx context.Context, detail models.ApplyEventDetail, raw []byte) error {
	if err := d.primary.Send(ctx, detail, raw); err != nil {
		metrics.EventsPublished.WithLabelValues(d.primary.Name(), "error").Inc()
		return err
	}
	metrics.EventsPublished.WithLabelValues(d.primary.Name(), "ok").Inc()

	var g errgroup.Group
	for _, s := range d.secondary {
		s := s
		g.Go(func() error {
			if err := s.Send(ctx, detail, raw); err != nil {
				metrics.EventsPublished.WithLabelValues(s.Name(), "error").Inc()
				d.logger.Warn("secondary sink failed", map[string]interface{}{
					"sink":        s.Name(),
					"referenceId": detail.ReferenceID,
					"error":       err.Error(),
				})
				return nil
			}
			metrics.EventsPublished.WithLabelValues(s.Name(), "ok").Inc()
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
