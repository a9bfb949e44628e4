package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type pgxSpanKey struct{}

const maxStatementLen = 256

// PGXTracer hooks into pgx as a QueryTracer so every statement issued by the
// pool shows up as a child span of the request trace.
type PGXTracer struct{}

func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, span := otel.Tracer("db.pgx").Start(ctx, spanNameFor(data.SQL))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", clipStatement(data.SQL)),
	)
	return context.WithValue(ctx, pgxSpanKey{}, span)
}

func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(pgxSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	}
	span.End()
}

// spanNameFor names the span after the leading SQL verb, e.g. "pgx.select".
func spanNameFor(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "pgx.query"
	}
	return "pgx." + strings.ToLower(fields[0])
}

func clipStatement(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > maxStatementLen {
		return trimmed[:maxStatementLen] + "..."
	}
	return trimmed
}
