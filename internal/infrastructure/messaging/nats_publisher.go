package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/errs"
	"duetrack/internal/ports"
)

const completionRecordedSuffix = "completion.recorded"

// natsConn is the subset of *nats.Conn the publisher needs.
type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes tracker events as JSON on core NATS subjects.
type NATSPublisher struct {
	conn   natsConn
	prefix string
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(conn natsConn, subjectPrefix string) *NATSPublisher {
	prefix := strings.Trim(strings.TrimSpace(subjectPrefix), ".")
	if prefix == "" {
		prefix = "duetrack"
	}
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// CompletionSubject returns the subject completion events are published on.
func (p *NATSPublisher) CompletionSubject() string {
	return p.prefix + "." + completionRecordedSuffix
}

func (p *NATSPublisher) PublishCompletion(ctx context.Context, event ports.CompletionEvent) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if p.conn == nil {
		return errors.New("nats connection is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errs.Wrap(err, "marshal completion event")
	}

	subject := p.CompletionSubject()
	if err := p.conn.Publish(subject, payload); err != nil {
		return errs.Op("publish "+subject, event.EquipmentID, err)
	}

	logging.Debug(ctx, "completion event published",
		slog.String("subject", subject),
		slog.String("completion_id", event.CompletionID),
	)
	return nil
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

var _ ports.EventPublisher = NopPublisher{}

func (NopPublisher) PublishCompletion(context.Context, ports.CompletionEvent) error {
	return nil
}
