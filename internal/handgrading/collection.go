// Package handgrading is the handgrading dashboard's model: a local copy of
// the project's paginated group summaries, the client-side filter over it,
// grading progress, and the group currently being graded.
//
// Loading is split into FetchNext (network, no state change) and Merge
// (state change, no network) so a UI can run the fetch as a command and
// merge on its own goroutine. Every fetch is stamped with a generation;
// completions from an older generation or after Close are dropped.
package handgrading

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/cachemanager"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/pubsub"
	"github.com/zjrosen/agview/internal/tracing"
)

const (
	// DefaultPageSize is the page size requested from the server.
	DefaultPageSize = 500
	// DefaultStaffTTL is how long a course's staff roster stays cached.
	DefaultStaffTTL = 30 * time.Minute
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("collection closed")
	// ErrNoMorePages is returned by FetchNext once the last page is merged.
	ErrNoMorePages = errors.New("no more pages")
	// ErrFetchInFlight is returned by FetchNext while an earlier page is unmerged.
	ErrFetchInFlight = errors.New("page fetch already in flight")
	// ErrStale is returned for a request that failed after Reset or Close.
	// The failure is dropped, not recorded.
	ErrStale = errors.New("stale completion dropped")
)

// IsDropped reports whether err only means the collection moved on: it was
// closed, or reset while the request was outstanding.
func IsDropped(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(err, ErrStale)
}

// RosterKey keys the staff roster cache.
type RosterKey string

func rosterKey(courseID int64) RosterKey {
	return RosterKey(fmt.Sprintf("course:%d:staff", courseID))
}

// PageResult is a fetched page waiting to be merged.
type PageResult struct {
	Gen     uint64
	PageNum int
	Page    domain.Page[domain.GroupSummary]
}

// Collection is safe for concurrent use.
type Collection struct {
	mu sync.RWMutex

	client    api.HandgradingClient
	tracer    trace.Tracer
	roster    *cachemanager.ReadThroughCache[RosterKey, []domain.User, int64]
	staffTTL  time.Duration
	projectID int64
	courseID  int64
	pageSize  int

	records  []domain.GroupSummary
	index    map[int64]int
	staff    map[string]struct{}
	filter   FilterState
	nextPage int // 0 once the last page is merged
	inflight bool
	gen      uint64
	err      error
	closed   bool

	grading *domain.HandgradingResult

	events <-chan pubsub.Event[domain.Entity]
	cancel context.CancelFunc
}

// Option configures a Collection.
type Option func(*Collection)

// WithTracer records spans for loads and grading selection.
func WithTracer(t trace.Tracer) Option {
	return func(c *Collection) { c.tracer = t }
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithStaffCache serves the staff roster through cache with entries kept for ttl.
func WithStaffCache(cache cachemanager.CacheManager[RosterKey, []domain.User], ttl time.Duration) Option {
	return func(c *Collection) {
		c.roster = cachemanager.NewReadThroughCache(cache, c.fetchStaff, false)
		if ttl > 0 {
			c.staffTTL = ttl
		}
	}
}

// WithFilter sets the initial filter.
func WithFilter(f FilterState) Option {
	return func(c *Collection) { c.filter = f }
}

// New creates an empty collection for a project. Nothing is fetched until
// LoadAll or FetchNext.
func New(client api.HandgradingClient, projectID, courseID int64, opts ...Option) *Collection {
	c := &Collection{
		client:    client,
		projectID: projectID,
		courseID:  courseID,
		pageSize:  DefaultPageSize,
		staffTTL:  DefaultStaffTTL,
		index:     make(map[int64]int),
		staff:     make(map[string]struct{}),
		nextPage:  1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.roster == nil {
		cache := cachemanager.NewInMemoryCacheManager[RosterKey, []domain.User](
			"staff_roster", c.staffTTL, cachemanager.DefaultCleanupInterval)
		c.roster = cachemanager.NewReadThroughCache(cache, c.fetchStaff, false)
	}
	return c
}

func (c *Collection) fetchStaff(ctx context.Context, courseID int64) ([]domain.User, error) {
	return c.client.ListStaff(ctx, courseID)
}

// LoadStaff fetches the course staff roster (through the cache) and marks
// their groups as staff groups.
func (c *Collection) LoadStaff(ctx context.Context) error {
	c.mu.RLock()
	gen, closed := c.gen, c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	users, err := c.roster.Get(ctx, rosterKey(c.courseID), c.courseID, c.staffTTL)
	if err != nil {
		err = fmt.Errorf("loading staff for course %d: %w", c.courseID, err)
		if !c.fail(gen, err, false) {
			log.Debug(log.CatGrading, "Dropping stale staff error", "gen", gen)
			return ErrStale
		}
		log.ErrorErr(log.CatGrading, "Staff roster load failed", err, "course", c.courseID)
		return err
	}

	staff := make(map[string]struct{}, len(users))
	for _, u := range users {
		staff[u.Username] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.gen != gen {
		log.Debug(log.CatGrading, "Dropping stale staff roster", "gen", gen)
		return nil
	}
	c.staff = staff
	return nil
}

// FetchNext requests the next unmerged page. It does not touch the
// collection; pass the result to Merge.
func (c *Collection) FetchNext(ctx context.Context) (PageResult, error) {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return PageResult{}, ErrClosed
	case c.nextPage == 0:
		c.mu.Unlock()
		return PageResult{}, ErrNoMorePages
	case c.inflight:
		c.mu.Unlock()
		return PageResult{}, ErrFetchInFlight
	}
	c.inflight = true
	gen, pageNum := c.gen, c.nextPage
	c.mu.Unlock()

	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanPrefixGrading+"FetchPage",
		attribute.Int64(tracing.AttrProjectID, c.projectID),
		attribute.Int(tracing.AttrPageNum, pageNum),
	)
	page, err := c.client.ListSummaries(ctx, c.projectID, pageNum, c.pageSize)
	tracing.End(span, err)

	if err != nil {
		err = fmt.Errorf("fetching page %d: %w", pageNum, err)
		if !c.fail(gen, err, true) {
			log.Debug(log.CatGrading, "Dropping stale page error", "page", pageNum, "gen", gen)
			return PageResult{}, ErrStale
		}
		log.ErrorErr(log.CatGrading, "Page fetch failed", err, "project", c.projectID, "page", pageNum)
		return PageResult{}, err
	}

	return PageResult{Gen: gen, PageNum: pageNum, Page: page}, nil
}

// fail records err as the load error, unless gen is no longer current.
// endFetch also clears the page fetch in flight. It reports whether err was
// recorded.
func (c *Collection) fail(gen uint64, err error, endFetch bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.gen != gen {
		return false
	}
	if endFetch {
		c.inflight = false
	}
	c.err = err
	return true
}

// Merge appends a fetched page. It reports false, changing nothing, when the
// result is stale: the collection was closed or reset after the fetch began.
func (c *Collection) Merge(res PageResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || res.Gen != c.gen || res.PageNum != c.nextPage {
		log.Debug(log.CatGrading, "Dropping stale page", "page", res.PageNum, "gen", res.Gen, "current", c.gen)
		return false
	}

	for _, g := range res.Page.Results {
		if i, ok := c.index[g.ID]; ok {
			c.records[i] = g
			continue
		}
		c.index[g.ID] = len(c.records)
		c.records = append(c.records, g)
	}

	c.inflight = false
	c.err = nil
	if res.Page.HasNext() {
		c.nextPage = res.PageNum + 1
	} else {
		c.nextPage = 0
	}
	log.Debug(log.CatGrading, "Merged page", "page", res.PageNum, "records", len(res.Page.Results), "total", len(c.records))
	return true
}

// LoadNextPage fetches and merges one page. more reports whether the server
// has further pages.
func (c *Collection) LoadNextPage(ctx context.Context) (more bool, err error) {
	res, err := c.FetchNext(ctx)
	if err != nil {
		return false, err
	}
	span := trace.SpanFromContext(ctx)
	if !c.Merge(res) {
		span.AddEvent(tracing.EventStaleDropped, trace.WithAttributes(attribute.Int(tracing.AttrPageNum, res.PageNum)))
		return false, nil
	}
	span.AddEvent(tracing.EventPageMerged, trace.WithAttributes(
		attribute.Int(tracing.AttrPageNum, res.PageNum),
		attribute.Int(tracing.AttrPageCount, len(res.Page.Results)),
	))
	return c.HasMore(), nil
}

// LoadAll fetches the staff roster and the first page concurrently, then
// drains the remaining pages one at a time. A failed page or roster stops
// the load and is kept in Err; pages merged so far are kept. Failures after
// Close or Reset are dropped and LoadAll returns nil.
func (c *Collection) LoadAll(ctx context.Context) (err error) {
	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanPrefixGrading+"LoadAll",
		attribute.Int64(tracing.AttrProjectID, c.projectID),
		attribute.Int64(tracing.AttrCourseID, c.courseID),
	)
	defer func() {
		if IsDropped(err) {
			span.AddEvent(tracing.EventStaleDropped)
			err = nil
		}
		tracing.End(span, err)
	}()

	if c.HasMore() && c.Len() == 0 {
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		var (
			first   PageResult
			pageErr error
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			first, pageErr = c.FetchNext(gctx)
			return pageErr
		})
		g.Go(func() error {
			return c.LoadStaff(gctx)
		})
		err = g.Wait()
		if pageErr == nil {
			c.Merge(first)
		}
		if err != nil {
			// Wait returns the first failure. The other request may have
			// recorded its own cancellation since, and Merge clears Err.
			if !IsDropped(err) {
				c.fail(gen, err, false)
			}
			return err
		}
	} else if err = c.LoadStaff(ctx); err != nil {
		return err
	}

	for c.HasMore() {
		more, err := c.LoadNextPage(ctx)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	log.Info(log.CatGrading, "Loaded group summaries", "project", c.projectID, "records", c.Len())
	return nil
}

// Reset discards every merged page and starts a new generation. In-flight
// fetches from before the reset are dropped when they complete.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.records = nil
	c.index = make(map[int64]int)
	c.nextPage = 1
	c.inflight = false
	c.err = nil
}

// Reload resets the collection and loads it again.
func (c *Collection) Reload(ctx context.Context) error {
	c.Reset()
	return c.LoadAll(ctx)
}

// HasMore reports whether more pages remain to be fetched.
func (c *Collection) HasMore() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nextPage != 0 && !c.closed
}

// Loading reports whether a page fetch is outstanding.
func (c *Collection) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inflight
}

// Err returns the error that stopped the last load, if any.
func (c *Collection) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Len returns the number of merged records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Records returns a copy of every merged record in fetch order.
func (c *Collection) Records() []domain.GroupSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.records)
}

// Staff returns the staff usernames.
func (c *Collection) Staff() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.staff))
}

// Filter returns the active filter.
func (c *Collection) Filter() FilterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// SetFilter replaces the filter. No fetch is issued.
func (c *Collection) SetFilter(f FilterState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

// Visible returns the records passing the active filter.
func (c *Collection) Visible() []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Filter(c.records, c.staff, c.filter)
}

// Progress summarizes grading over the staff and search scope of the
// active filter.
func (c *Collection) Progress() Progress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Summarize(c.records, c.staff, c.filter)
}

// Close unsubscribes and drops all later completions.
func (c *Collection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	if c.cancel != nil {
		c.cancel()
	}
}
