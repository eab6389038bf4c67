package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Apurer/pet-portal/internal/domains/listings/application"
	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
)

type stubCoordinator struct {
	result *listingtypes.FinalizeResult
	err    error
}

func (s stubCoordinator) Submit(context.Context, listingtypes.SubmitRequest) (*listingtypes.FinalizeResult, error) {
	return s.result, s.err
}

func TestCoordinator_LogsFailureCause(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	failure := &application.SubmissionError{Stage: application.StageTransfer, ListingID: "p1", Err: errors.New("storage said 403")}
	decorated := NewCoordinator(stubCoordinator{err: failure}, WithLogger(logger), WithTracer(provider.Tracer("test")))

	_, err := decorated.Submit(context.Background(), listingtypes.SubmitRequest{Submission: form.Submission{Mode: form.ModeCreate}})
	require.ErrorIs(t, err, application.ErrSubmissionFailed)
	require.Contains(t, logs.String(), `"stage":"transfer"`)
	require.Contains(t, logs.String(), "storage said 403")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "Coordinator.Submit", spans[0].Name())
	require.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestCoordinator_PassesResultThrough(t *testing.T) {
	want := &listingtypes.FinalizeResult{ListingID: "p1"}
	decorated := NewCoordinator(stubCoordinator{result: want})

	got, err := decorated.Submit(context.Background(), listingtypes.SubmitRequest{})
	require.NoError(t, err)
	require.Same(t, want, got)
}
