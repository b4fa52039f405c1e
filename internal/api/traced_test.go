package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/api/mock"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/tracing"
)

func TestTraced_NilTracerReturnsInner(t *testing.T) {
	inner := mock.NewClient(0)
	require.Same(t, inner, api.NewTraced(inner, nil))
}

func TestTraced_SpansPerCall(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	inner := mock.NewClient(0)
	inner.ListSummariesFunc = mock.Pages([]domain.GroupSummary{{ID: 1}, {ID: 2}})
	inner.DeleteSuiteFunc = func(context.Context, domain.Suite) error {
		return domain.NewHTTPError(403, "forbidden")
	}
	client := api.NewTraced(inner, tp.Tracer("test"))

	_, err := client.ListSummaries(context.Background(), 7, 1, 50)
	require.NoError(t, err)
	require.Error(t, client.DeleteSuite(context.Background(), domain.Suite{ID: 3}))

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	require.Equal(t, "api.ListSummaries", ended[0].Name())
	require.Equal(t, codes.Ok, ended[0].Status().Code)
	attrs := ended[0].Attributes()
	require.Contains(t, attrs, attribute.Int64(tracing.AttrProjectID, 7))
	require.Contains(t, attrs, attribute.Int(tracing.AttrPageNum, 1))
	require.Contains(t, attrs, attribute.Int(tracing.AttrPageCount, 2))

	require.Equal(t, "api.DeleteSuite", ended[1].Name())
	require.Equal(t, codes.Error, ended[1].Status().Code)
	require.Contains(t, ended[1].Attributes(), attribute.Int(tracing.AttrHTTPStatus, 403))
}
