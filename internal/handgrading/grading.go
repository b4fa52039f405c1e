package handgrading

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/pubsub"
	"github.com/zjrosen/agview/internal/tracing"
)

// CurrentlyGrading returns the result being graded, or nil.
func (c *Collection) CurrentlyGrading() *domain.HandgradingResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.grading == nil {
		return nil
	}
	r := *c.grading
	return &r
}

// SelectForGrading opens the handgrading result of a group, creating it on
// the server if needed. Groups without submissions clear the selection and
// return nil.
func (c *Collection) SelectForGrading(ctx context.Context, groupID int64) (_ *domain.HandgradingResult, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	i, ok := c.index[groupID]
	if !ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("group %d is not loaded", groupID)
	}
	if c.records[i].NumSubmissions == 0 {
		c.grading = nil
		c.mu.Unlock()
		return nil, nil
	}
	gen := c.gen
	c.mu.Unlock()

	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanPrefixGrading+"SelectForGrading",
		attribute.Int64(tracing.AttrEntityID, groupID),
	)
	defer func() { tracing.End(span, err) }()

	result, _, err := c.client.GetOrCreateResult(ctx, groupID)

	c.mu.Lock()
	defer c.mu.Unlock()
	// Completions after Close or Reset are dropped, failures included.
	if c.closed || c.gen != gen {
		span.AddEvent(tracing.EventStaleDropped)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening result for group %d: %w", groupID, err)
	}
	c.grading = &result
	log.Debug(log.CatGrading, "Grading group", "group", groupID, "result", result.ID)
	out := result
	return &out, nil
}

// SelectNext moves grading to the next visible group with submissions.
// It returns nil without error when there is none.
func (c *Collection) SelectNext(ctx context.Context) (*domain.HandgradingResult, error) {
	return c.selectAdjacent(ctx, 1)
}

// SelectPrev moves grading to the previous visible group with submissions.
func (c *Collection) SelectPrev(ctx context.Context) (*domain.HandgradingResult, error) {
	return c.selectAdjacent(ctx, -1)
}

func (c *Collection) selectAdjacent(ctx context.Context, dir int) (*domain.HandgradingResult, error) {
	c.mu.RLock()
	rows := Filter(c.records, c.staff, c.filter)
	cur := int64(-1)
	if c.grading != nil {
		cur = c.grading.GroupID
	}
	c.mu.RUnlock()

	start := -1
	if dir < 0 {
		start = len(rows)
	}
	for i, r := range rows {
		if r.Summary.ID == cur {
			start = i
			break
		}
	}
	for i := start + dir; i >= 0 && i < len(rows); i += dir {
		if rows[i].Summary.NumSubmissions > 0 {
			return c.SelectForGrading(ctx, rows[i].Summary.ID)
		}
	}
	return nil, nil
}

// SetFinished marks the current result finished or not. The summary row is
// updated when the change event arrives.
func (c *Collection) SetFinished(ctx context.Context, finished bool) (domain.HandgradingResult, error) {
	current := c.CurrentlyGrading()
	if current == nil {
		return domain.HandgradingResult{}, fmt.Errorf("no group selected for grading")
	}
	current.FinishedGrading = finished
	updated, err := c.client.UpdateResult(ctx, *current)
	if err != nil {
		return domain.HandgradingResult{}, fmt.Errorf("updating result %d: %w", current.ID, err)
	}
	return updated, nil
}

// Subscribe follows handgrading result events on bus until Close.
func (c *Collection) Subscribe(ctx context.Context, bus pubsub.Subscriber[domain.Entity]) {
	subCtx, cancel := context.WithCancel(ctx)
	ch := bus.Subscribe(subCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.events = ch
	c.cancel = cancel
}

// Events returns the subscription channel, or nil.
func (c *Collection) Events() <-chan pubsub.Event[domain.Entity] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events
}

// Drain applies every pending event without blocking.
func (c *Collection) Drain() int {
	ch := c.Events()
	if ch == nil {
		return 0
	}
	n := 0
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return n
			}
			c.Apply(ev)
			n++
		default:
			return n
		}
	}
}

// Apply folds a handgrading result event into the matching summary and the
// current grading result. Other entities are ignored.
func (c *Collection) Apply(ev pubsub.Event[domain.Entity]) {
	r, ok := ev.Payload.(domain.HandgradingResult)
	if !ok || ev.Type == pubsub.DeletedEvent {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if i, ok := c.index[r.GroupID]; ok {
		c.records[i].Result = r.Summary()
	}
	if c.grading != nil && c.grading.ID == r.ID {
		updated := r
		c.grading = &updated
	}
	log.Debug(log.CatGrading, "Applied result event", "event", ev.Type, "group", r.GroupID)
}
