package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/seaschema"

// Tracer returns the tracer of the current global provider
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Span wraps a trace span and buffers attributes until End
type Span struct {
	span       trace.Span
	attributes []attribute.KeyValue
}

// NewSpan starts a span named operationName
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, operationName)
	return ctx, &Span{span: span}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	case []string:
		attr = attribute.StringSlice(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// RecordError marks the span failed. A nil error marks it ok.
func (s *Span) RecordError(err error) {
	if err == nil {
		s.span.SetStatus(codes.Ok, "")
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End flushes buffered attributes and ends the span
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.End()
}

// ConnectorTracer names spans after a registered connector
type ConnectorTracer struct {
	connectorKind string
	connectorName string
}

// NewConnectorTracer creates a tracer for one registered connector
func NewConnectorTracer(connectorKind, connectorName string) *ConnectorTracer {
	return &ConnectorTracer{
		connectorKind: connectorKind,
		connectorName: connectorName,
	}
}

// StartSpan starts a span named "<kind>.<operation>"
func (ct *ConnectorTracer) StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	ctx, span := NewSpan(ctx, ct.connectorKind+"."+operation)

	span.SetAttribute("connector.kind", ct.connectorKind)
	span.SetAttribute("connector.name", ct.connectorName)
	span.SetAttribute("connector.operation", operation)

	return ctx, span
}

// Trace runs fn inside a span and records its error
func (ct *ConnectorTracer) Trace(ctx context.Context, operation string, fn func(ctx context.Context, span *Span) error) error {
	ctx, span := ct.StartSpan(ctx, operation)
	defer span.End()

	err := fn(ctx, span)
	span.RecordError(err)
	return err
}
