package events

import (
	"context"
	"strconv"

	otellog "go.opentelemetry.io/otel/log"
)

// OTelSink emits events as OpenTelemetry log records.
type OTelSink struct {
	logger recordEmitter
}

// recordEmitter is the part of otellog.Logger the sink uses.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewOTelSink returns a sink that writes through the given logger provider.
func NewOTelSink(provider otellog.LoggerProvider) *OTelSink {
	return &OTelSink{logger: provider.Logger("account-identity.events")}
}

// NewOTelSinkWithLogger returns a sink that writes to logger directly.
func NewOTelSinkWithLogger(logger recordEmitter) *OTelSink {
	return &OTelSink{logger: logger}
}

func (s *OTelSink) Emit(ctx context.Context, e Event) error {
	rec := otellog.Record{}
	rec.SetTimestamp(e.OccurredAt)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue(string(e.Type)))
	rec.AddAttributes(
		otellog.String("event_id", e.ID.String()),
		otellog.String("event_type", string(e.Type)),
		otellog.String("user_id", strconv.FormatInt(e.UserID, 10)),
	)
	if e.Route != "" {
		rec.AddAttributes(otellog.String("route", e.Route))
	}
	s.logger.Emit(ctx, rec)
	return nil
}
