// Package events publishes document status notifications as CloudEvents.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// TypeStatusChanged is emitted after a document status update commits.
const TypeStatusChanged = "com.docpipe.document.status_changed"

// ErrUndelivered is returned when the sink did not acknowledge an event.
var ErrUndelivered = errors.New("event undelivered")

// Event is a notification to publish. Data is encoded as JSON.
type Event struct {
	Type    string
	Subject string
	Data    any
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// New returns an HTTP publisher when cfg has a target, otherwise a no-op.
func New(cfg *Config, logger *slog.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	return NewHTTP(cfg, logger)
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// HTTP sends binary-mode CloudEvents to a single target URL.
type HTTP struct {
	client  cloudevents.Client
	target  string
	source  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewHTTP creates an HTTP publisher for cfg.Target.
func NewHTTP(cfg *Config, logger *slog.Logger) (*HTTP, error) {
	client, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, fmt.Errorf("create cloudevents client: %w", err)
	}

	return &HTTP{
		client:  client,
		target:  cfg.Target,
		source:  cfg.Source,
		timeout: cfg.TimeoutDuration(),
		logger:  logger.With("system", "events"),
	}, nil
}

func (p *HTTP) Publish(ctx context.Context, e Event) error {
	ce := cloudevents.NewEvent()
	ce.SetID(uuid.NewString())
	ce.SetSource(p.source)
	ce.SetType(e.Type)
	ce.SetTime(time.Now().UTC())
	if e.Subject != "" {
		ce.SetSubject(e.Subject)
	}
	if err := ce.SetData(cloudevents.ApplicationJSON, e.Data); err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := p.client.Send(cloudevents.ContextWithTarget(ctx, p.target), ce)
	if cloudevents.IsUndelivered(result) {
		return fmt.Errorf("%w: %w", ErrUndelivered, result)
	}
	if !cloudevents.IsACK(result) {
		return fmt.Errorf("%w: %w", ErrUndelivered, result)
	}

	p.logger.Debug("event published", "type", e.Type, "subject", e.Subject, "id", ce.ID())
	return nil
}
