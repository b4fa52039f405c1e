// Package setupresult shows the setup command outcome of a suite result:
// its exit status and, when the feedback settings allow it, its stdout and
// stderr.
package setupresult

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/cachemanager"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/tracing"
)

const (
	// NoOutput is shown for a stream the command did not write to.
	NoOutput = "No Output"
	// TimedOut is the exit status of a setup command that timed out.
	TimedOut = "Timed Out"
	// NotAvailable is the exit status when the feedback settings hide it.
	NotAvailable = "Not Available"
)

// DefaultOutputTTL is how long fetched output stays cached.
const DefaultOutputTTL = 10 * time.Minute

// OutputKey identifies one stream of one suite result under one feedback
// category.
type OutputKey string

// Request is everything needed to fetch one output stream.
type Request struct {
	SubmissionID  int64
	SuiteResultID int64
	Stream        domain.OutputStream
	Category      domain.FeedbackCategory
}

// Key is the cache key for r.
func (r Request) Key() OutputKey {
	return OutputKey(fmt.Sprintf("%d:%d:%s:%s", r.SubmissionID, r.SuiteResultID, r.Category, r.Stream))
}

// Section is one rendered output stream.
type Section struct {
	Stream domain.OutputStream
	Output *string
}

// Text returns the output, or NoOutput when the server has none.
func (s Section) Text() string {
	if s.Output == nil {
		return NoOutput
	}
	return *s.Output
}

// View is a suite result's setup outcome. Stdout and Stderr are nil when
// the feedback settings hide them.
type View struct {
	SuiteName  string
	SetupName  string
	ExitStatus string
	Stdout     *Section
	Stderr     *Section
}

// ExitStatus describes how the setup command ended.
func ExitStatus(r domain.SuiteResultFeedback) string {
	switch {
	case r.SetupTimedOut != nil && *r.SetupTimedOut:
		return TimedOut
	case r.SetupReturnCode != nil:
		return strconv.Itoa(*r.SetupReturnCode)
	default:
		return NotAvailable
	}
}

// Viewer fetches setup output through a read-through cache.
type Viewer struct {
	client api.OutputClient
	cache  *cachemanager.ReadThroughCache[OutputKey, *string, Request]
	ttl    time.Duration
	tracer trace.Tracer
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithCache replaces the default in-memory cache.
func WithCache(cache cachemanager.CacheManager[OutputKey, *string]) Option {
	return func(v *Viewer) {
		v.cache = cachemanager.NewReadThroughCache(cache, v.fetch, false)
	}
}

// WithTTL sets how long outputs stay cached.
func WithTTL(ttl time.Duration) Option {
	return func(v *Viewer) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

// WithTracer records a span per output fetch.
func WithTracer(t trace.Tracer) Option {
	return func(v *Viewer) { v.tracer = t }
}

// NewViewer creates a Viewer.
func NewViewer(client api.OutputClient, opts ...Option) *Viewer {
	v := &Viewer{client: client, ttl: DefaultOutputTTL}
	for _, opt := range opts {
		opt(v)
	}
	if v.cache == nil {
		cache := cachemanager.NewInMemoryCacheManager[OutputKey, *string](
			"setup_output", v.ttl, cachemanager.DefaultCleanupInterval)
		v.cache = cachemanager.NewReadThroughCache(cache, v.fetch, false)
	}
	return v
}

func (v *Viewer) fetch(ctx context.Context, r Request) (_ *string, err error) {
	ctx, span := tracing.Start(ctx, v.tracer, "setup.Output",
		attribute.Int64(tracing.AttrEntityID, r.SuiteResultID),
		attribute.String("agview.stream", string(r.Stream)),
	)
	defer func() { tracing.End(span, err) }()
	return v.client.SetupOutput(ctx, r.SubmissionID, r.SuiteResultID, r.Stream, r.Category)
}

// Output returns one stream, fetching it on the first request.
func (v *Viewer) Output(ctx context.Context, r Request) (*string, error) {
	out, err := v.cache.Get(ctx, r.Key(), r, v.ttl)
	if err != nil {
		return nil, fmt.Errorf("loading setup %s for result %d: %w", r.Stream, r.SuiteResultID, err)
	}
	return out, nil
}

// Load builds the View for one suite result, fetching only the streams the
// feedback settings show.
func (v *Viewer) Load(ctx context.Context, submissionID int64, result domain.SuiteResultFeedback, category domain.FeedbackCategory) (View, error) {
	view := View{
		SuiteName:  result.SuiteName,
		SetupName:  result.SetupName,
		ExitStatus: ExitStatus(result),
	}

	req := func(stream domain.OutputStream) Request {
		return Request{SubmissionID: submissionID, SuiteResultID: result.ID, Stream: stream, Category: category}
	}

	g, gctx := errgroup.WithContext(ctx)
	if result.FeedbackSettings.ShowSetupStdout {
		view.Stdout = &Section{Stream: domain.StreamStdout}
		g.Go(func() (err error) {
			view.Stdout.Output, err = v.Output(gctx, req(domain.StreamStdout))
			return err
		})
	}
	if result.FeedbackSettings.ShowSetupStderr {
		view.Stderr = &Section{Stream: domain.StreamStderr}
		g.Go(func() (err error) {
			view.Stderr.Output, err = v.Output(gctx, req(domain.StreamStderr))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return View{}, err
	}
	log.Debug(log.CatSetup, "Loaded setup result", "result", result.ID, "stdout", view.Stdout != nil, "stderr", view.Stderr != nil)
	return view, nil
}

// LoadSubmission loads the View of every suite result of a submission.
func (v *Viewer) LoadSubmission(ctx context.Context, submissionID int64, category domain.FeedbackCategory) ([]View, error) {
	results, err := v.client.SuiteResults(ctx, submissionID, category)
	if err != nil {
		return nil, fmt.Errorf("loading results for submission %d: %w", submissionID, err)
	}
	views := make([]View, 0, len(results))
	for _, r := range results {
		view, err := v.Load(ctx, submissionID, r, category)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Invalidate drops a cached stream so the next request refetches it.
func (v *Viewer) Invalidate(ctx context.Context, r Request) error {
	return v.cache.Invalidate(ctx, r.Key())
}
