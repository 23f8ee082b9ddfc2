package tracing

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	return recorder
}

func TestSpanWrapper_RecordsError(t *testing.T) {
	RegisterTestingT(t)
	recorder := withRecorder(t)

	boom := errors.New("boom")
	err := SpanWrapper(context.Background(), "work", nil, func(ctx context.Context) error {
		Expect(GetTraceID(ctx)).ToNot(BeEmpty())
		Expect(GetSpanID(ctx)).ToNot(BeEmpty())
		return boom
	})

	Expect(err).To(MatchError(boom))

	spans := recorder.Ended()
	Expect(spans).To(HaveLen(1))
	Expect(spans[0].Name()).To(Equal("work"))
	Expect(spans[0].Status().Code).To(Equal(codes.Error))
}

func TestDatabaseSpanWrapper_Name(t *testing.T) {
	RegisterTestingT(t)
	recorder := withRecorder(t)

	err := DatabaseSpanWrapper(context.Background(), "sqlite", "tasks", "insert", func(context.Context) error {
		return nil
	})

	Expect(err).To(BeNil())
	Expect(recorder.Ended()).To(HaveLen(1))
	Expect(recorder.Ended()[0].Name()).To(Equal("db.tasks.insert"))
}

func TestGetTraceID_WithoutSpan(t *testing.T) {
	RegisterTestingT(t)

	Expect(GetTraceID(context.Background())).To(BeEmpty())
	Expect(GetSpanID(context.Background())).To(BeEmpty())
}
