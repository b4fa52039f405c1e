package setupresult

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/agview/internal/api/mock"
	"github.com/zjrosen/agview/internal/domain"
)

func ptr[T any](v T) *T { return &v }

type outputs struct {
	mu    sync.Mutex
	calls map[domain.OutputStream]int
	data  map[domain.OutputStream]*string
}

func newOutputs(stdout, stderr *string) (*outputs, *mock.Client) {
	o := &outputs{
		calls: make(map[domain.OutputStream]int),
		data:  map[domain.OutputStream]*string{domain.StreamStdout: stdout, domain.StreamStderr: stderr},
	}
	fake := mock.NewClient(0)
	fake.SetupOutputFunc = func(_ context.Context, _, _ int64, stream domain.OutputStream, _ domain.FeedbackCategory) (*string, error) {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.calls[stream]++
		return o.data[stream], nil
	}
	return o, fake
}

func (o *outputs) count(s domain.OutputStream) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[s]
}

func suiteResult(stdout, stderr bool) domain.SuiteResultFeedback {
	return domain.SuiteResultFeedback{
		ID:        9,
		SuiteName: "Suite1",
		SetupName: "compile",
		FeedbackSettings: domain.SuiteFeedbackSettings{
			ShowSetupStdout: stdout,
			ShowSetupStderr: stderr,
		},
	}
}

func TestLoad_HiddenStreamsAreNotFetched(t *testing.T) {
	o, fake := newOutputs(ptr("hi"), ptr("bye"))
	v := NewViewer(fake)

	view, err := v.Load(context.Background(), 1, suiteResult(false, false), domain.FeedbackMax)
	require.NoError(t, err)
	require.Nil(t, view.Stdout)
	require.Nil(t, view.Stderr)
	require.Zero(t, o.count(domain.StreamStdout))
	require.Zero(t, o.count(domain.StreamStderr))
}

func TestLoad_ShownStreams(t *testing.T) {
	tests := []struct {
		name       string
		stdout     *string
		stderr     *string
		wantStdout string
		wantStderr string
	}{
		{"outputs present", ptr("hi"), ptr("bye"), "hi", "bye"},
		{"null outputs", nil, nil, NoOutput, NoOutput},
		{"empty is not null", ptr(""), nil, "", NoOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, fake := newOutputs(tt.stdout, tt.stderr)
			view, err := NewViewer(fake).Load(context.Background(), 1, suiteResult(true, true), domain.FeedbackMax)
			require.NoError(t, err)
			require.Equal(t, tt.wantStdout, view.Stdout.Text())
			require.Equal(t, tt.wantStderr, view.Stderr.Text())
			require.Equal(t, "Suite1", view.SuiteName)
			require.Equal(t, "compile", view.SetupName)
		})
	}
}

func TestLoad_OnlyStderrShown(t *testing.T) {
	o, fake := newOutputs(ptr("hi"), ptr("bye"))
	view, err := NewViewer(fake).Load(context.Background(), 1, suiteResult(false, true), domain.FeedbackNormal)
	require.NoError(t, err)
	require.Nil(t, view.Stdout)
	require.Equal(t, "bye", view.Stderr.Text())
	require.Zero(t, o.count(domain.StreamStdout))
}

func TestOutput_CachedPerKey(t *testing.T) {
	o, fake := newOutputs(nil, ptr("bye"))
	v := NewViewer(fake)
	ctx := context.Background()
	result := suiteResult(true, true)

	for range 3 {
		_, err := v.Load(ctx, 1, result, domain.FeedbackMax)
		require.NoError(t, err)
	}
	require.Equal(t, 1, o.count(domain.StreamStdout), "null output is cached too")
	require.Equal(t, 1, o.count(domain.StreamStderr))

	_, err := v.Load(ctx, 2, result, domain.FeedbackMax)
	require.NoError(t, err)
	require.Equal(t, 2, o.count(domain.StreamStdout), "new submission refetches")

	_, err = v.Load(ctx, 2, result, domain.FeedbackNormal)
	require.NoError(t, err)
	require.Equal(t, 3, o.count(domain.StreamStdout), "new category refetches")

	result.ID = 10
	_, err = v.Load(ctx, 2, result, domain.FeedbackNormal)
	require.NoError(t, err)
	require.Equal(t, 4, o.count(domain.StreamStdout), "new suite result refetches")

	req := Request{SubmissionID: 2, SuiteResultID: 10, Stream: domain.StreamStdout, Category: domain.FeedbackNormal}
	require.NoError(t, v.Invalidate(ctx, req))
	_, err = v.Output(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 5, o.count(domain.StreamStdout))
}

func TestLoad_ErrorsAreNotCached(t *testing.T) {
	fake := mock.NewClient(0)
	fail := true
	fake.SetupOutputFunc = func(context.Context, int64, int64, domain.OutputStream, domain.FeedbackCategory) (*string, error) {
		if fail {
			return nil, domain.NewHTTPError(404, "Not found.")
		}
		return ptr("ok"), nil
	}
	v := NewViewer(fake)
	ctx := context.Background()

	_, err := v.Load(ctx, 1, suiteResult(true, false), domain.FeedbackMax)
	require.True(t, domain.IsNotFound(err))

	fail = false
	view, err := v.Load(ctx, 1, suiteResult(true, false), domain.FeedbackMax)
	require.NoError(t, err)
	require.Equal(t, "ok", view.Stdout.Text())
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		timedOut *bool
		code     *int
		want     string
	}{
		{"nothing known", nil, nil, NotAvailable},
		{"not timed out, no code", ptr(false), nil, NotAvailable},
		{"timed out", ptr(true), nil, TimedOut},
		{"return code", nil, ptr(1), "1"},
		{"zero", ptr(false), ptr(0), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.SuiteResultFeedback{SetupTimedOut: tt.timedOut, SetupReturnCode: tt.code}
			require.Equal(t, tt.want, ExitStatus(r))
		})
	}
}

func TestLoadSubmission(t *testing.T) {
	_, fake := newOutputs(ptr("hi"), nil)
	fake.SuiteResultsFunc = func(_ context.Context, submissionID int64, category domain.FeedbackCategory) ([]domain.SuiteResultFeedback, error) {
		require.Equal(t, int64(5), submissionID)
		require.Equal(t, domain.FeedbackStaffViewer, category)
		a := suiteResult(true, false)
		b := suiteResult(false, true)
		b.ID, b.SuiteName = 10, "Suite2"
		return []domain.SuiteResultFeedback{a, b}, nil
	}

	views, err := NewViewer(fake).LoadSubmission(context.Background(), 5, domain.FeedbackStaffViewer)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "hi", views[0].Stdout.Text())
	require.Equal(t, NoOutput, views[1].Stderr.Text())

	fake.SuiteResultsFunc = func(context.Context, int64, domain.FeedbackCategory) ([]domain.SuiteResultFeedback, error) {
		return nil, errors.New("offline")
	}
	_, err = NewViewer(fake).LoadSubmission(context.Background(), 5, domain.FeedbackStaffViewer)
	require.ErrorContains(t, err, "loading results for submission 5: offline")
}
