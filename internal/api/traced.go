package api

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/tracing"
)

// Traced wraps every Client call in a span named api.<Method>.
type Traced struct {
	inner  Client
	tracer trace.Tracer
}

var _ Client = (*Traced)(nil)

// NewTraced decorates inner. A nil tracer returns inner unchanged.
func NewTraced(inner Client, tracer trace.Tracer) Client {
	if tracer == nil {
		return inner
	}
	return &Traced{inner: inner, tracer: tracer}
}

func (t *Traced) start(ctx context.Context, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(tracing.AttrOperation, method))
	return tracing.Start(ctx, t.tracer, tracing.SpanPrefixAPI+method, attrs...)
}

func (t *Traced) ListSuites(ctx context.Context, projectID int64) (suites []domain.Suite, err error) {
	ctx, span := t.start(ctx, "ListSuites", attribute.Int64(tracing.AttrProjectID, projectID))
	defer func() { tracing.End(span, err) }()
	return t.inner.ListSuites(ctx, projectID)
}

func (t *Traced) CreateSuite(ctx context.Context, projectID int64, name string) (s domain.Suite, err error) {
	ctx, span := t.start(ctx, "CreateSuite", attribute.Int64(tracing.AttrProjectID, projectID))
	defer func() { tracing.End(span, err) }()
	return t.inner.CreateSuite(ctx, projectID, name)
}

func (t *Traced) UpdateSuite(ctx context.Context, suite domain.Suite) (s domain.Suite, err error) {
	ctx, span := t.start(ctx, "UpdateSuite", attribute.Int64(tracing.AttrEntityID, suite.ID))
	defer func() { tracing.End(span, err) }()
	return t.inner.UpdateSuite(ctx, suite)
}

func (t *Traced) DeleteSuite(ctx context.Context, suite domain.Suite) (err error) {
	ctx, span := t.start(ctx, "DeleteSuite", attribute.Int64(tracing.AttrEntityID, suite.ID))
	defer func() { tracing.End(span, err) }()
	return t.inner.DeleteSuite(ctx, suite)
}

func (t *Traced) CreateCase(ctx context.Context, suiteID int64, name string) (c domain.Case, err error) {
	ctx, span := t.start(ctx, "CreateCase", attribute.Int64(tracing.AttrEntityID, suiteID))
	defer func() { tracing.End(span, err) }()
	return t.inner.CreateCase(ctx, suiteID, name)
}

func (t *Traced) CloneCase(ctx context.Context, src domain.Case, name string) (c domain.Case, err error) {
	ctx, span := t.start(ctx, "CloneCase", attribute.Int64(tracing.AttrEntityID, src.ID))
	defer func() { tracing.End(span, err) }()
	return t.inner.CloneCase(ctx, src, name)
}

func (t *Traced) UpdateCase(ctx context.Context, in domain.Case) (c domain.Case, err error) {
	ctx, span := t.start(ctx, "UpdateCase", attribute.Int64(tracing.AttrEntityID, in.ID))
	defer func() { tracing.End(span, err) }()
	return t.inner.UpdateCase(ctx, in)
}

func (t *Traced) DeleteCase(ctx context.Context, c domain.Case) (err error) {
	ctx, span := t.start(ctx, "DeleteCase", attribute.Int64(tracing.AttrEntityID, c.ID))
	defer func() { tracing.End(span, err) }()
	return t.inner.DeleteCase(ctx, c)
}

func (t *Traced) CreateCommand(ctx context.Context, caseID int64, name, cmd string) (c domain.Command, err error) {
	ctx, span := t.start(ctx, "CreateCommand", attribute.Int64(tracing.AttrEntityID, caseID))
	defer func() { tracing.End(span, err) }()
	return t.inner.CreateCommand(ctx, caseID, name, cmd)
}

func (t *Traced) UpdateCommand(ctx context.Context, in domain.Command) (c domain.Command, err error) {
	ctx, span := t.start(ctx, "UpdateCommand", attribute.Int64(tracing.AttrEntityID, in.ID))
	defer func() { tracing.End(span, err) }()
	return t.inner.UpdateCommand(ctx, in)
}

func (t *Traced) DeleteCommand(ctx context.Context, cmd domain.Command) (err error) {
	ctx, span := t.start(ctx, "DeleteCommand", attribute.Int64(tracing.AttrEntityID, cmd.ID))
	defer func() { tracing.End(span, err) }()
	return t.inner.DeleteCommand(ctx, cmd)
}

func (t *Traced) ListSummaries(ctx context.Context, projectID int64, pageNum, pageSize int) (page domain.Page[domain.GroupSummary], err error) {
	ctx, span := t.start(ctx, "ListSummaries",
		attribute.Int64(tracing.AttrProjectID, projectID),
		attribute.Int(tracing.AttrPageNum, pageNum),
	)
	defer func() {
		span.SetAttributes(attribute.Int(tracing.AttrPageCount, len(page.Results)))
		tracing.End(span, err)
	}()
	return t.inner.ListSummaries(ctx, projectID, pageNum, pageSize)
}

func (t *Traced) ListStaff(ctx context.Context, courseID int64) (users []domain.User, err error) {
	ctx, span := t.start(ctx, "ListStaff", attribute.Int64(tracing.AttrCourseID, courseID))
	defer func() { tracing.End(span, err) }()
	return t.inner.ListStaff(ctx, courseID)
}

func (t *Traced) GetOrCreateResult(ctx context.Context, groupID int64) (r domain.HandgradingResult, created bool, err error) {
	ctx, span := t.start(ctx, "GetOrCreateResult", attribute.Int64(tracing.AttrEntityID, groupID))
	defer func() { tracing.End(span, err) }()
	return t.inner.GetOrCreateResult(ctx, groupID)
}

func (t *Traced) UpdateResult(ctx context.Context, in domain.HandgradingResult) (r domain.HandgradingResult, err error) {
	ctx, span := t.start(ctx, "UpdateResult", attribute.Int64(tracing.AttrEntityID, in.ID))
	defer func() { tracing.End(span, err) }()
	return t.inner.UpdateResult(ctx, in)
}

func (t *Traced) SuiteResults(ctx context.Context, submissionID int64, category domain.FeedbackCategory) (res []domain.SuiteResultFeedback, err error) {
	ctx, span := t.start(ctx, "SuiteResults", attribute.Int64(tracing.AttrEntityID, submissionID))
	defer func() { tracing.End(span, err) }()
	return t.inner.SuiteResults(ctx, submissionID, category)
}

func (t *Traced) SetupOutput(ctx context.Context, submissionID, suiteResultID int64, stream domain.OutputStream, category domain.FeedbackCategory) (out *string, err error) {
	ctx, span := t.start(ctx, "SetupOutput", attribute.Int64(tracing.AttrEntityID, suiteResultID))
	defer func() { tracing.End(span, err) }()
	return t.inner.SetupOutput(ctx, submissionID, suiteResultID, stream, category)
}
