package api

import (
	"context"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/pubsub"
)

// Notifying wraps a Client and publishes every confirmed mutation on bus.
// Failed calls publish nothing.
type Notifying struct {
	Client
	bus pubsub.Publisher[domain.Entity]
}

var _ Client = (*Notifying)(nil)

// NewNotifying decorates inner with bus publishing.
func NewNotifying(inner Client, bus pubsub.Publisher[domain.Entity]) *Notifying {
	return &Notifying{Client: inner, bus: bus}
}

func (n *Notifying) publish(t pubsub.EventType, e domain.Entity) {
	log.Debug(log.CatAPI, "Publishing change", "event", t, "kind", e.EntityKind())
	n.bus.Publish(t, e)
}

func (n *Notifying) CreateSuite(ctx context.Context, projectID int64, name string) (domain.Suite, error) {
	s, err := n.Client.CreateSuite(ctx, projectID, name)
	if err != nil {
		return s, err
	}
	n.publish(pubsub.CreatedEvent, s)
	return s, nil
}

func (n *Notifying) UpdateSuite(ctx context.Context, suite domain.Suite) (domain.Suite, error) {
	s, err := n.Client.UpdateSuite(ctx, suite)
	if err != nil {
		return s, err
	}
	n.publish(pubsub.ChangedEvent, s)
	return s, nil
}

func (n *Notifying) DeleteSuite(ctx context.Context, suite domain.Suite) error {
	if err := n.Client.DeleteSuite(ctx, suite); err != nil {
		return err
	}
	n.publish(pubsub.DeletedEvent, suite)
	return nil
}

func (n *Notifying) CreateCase(ctx context.Context, suiteID int64, name string) (domain.Case, error) {
	c, err := n.Client.CreateCase(ctx, suiteID, name)
	if err != nil {
		return c, err
	}
	n.publish(pubsub.CreatedEvent, c)
	return c, nil
}

func (n *Notifying) CloneCase(ctx context.Context, src domain.Case, name string) (domain.Case, error) {
	c, err := n.Client.CloneCase(ctx, src, name)
	if err != nil {
		return c, err
	}
	n.publish(pubsub.CreatedEvent, c)
	return c, nil
}

func (n *Notifying) UpdateCase(ctx context.Context, c domain.Case) (domain.Case, error) {
	updated, err := n.Client.UpdateCase(ctx, c)
	if err != nil {
		return updated, err
	}
	n.publish(pubsub.ChangedEvent, updated)
	return updated, nil
}

func (n *Notifying) DeleteCase(ctx context.Context, c domain.Case) error {
	if err := n.Client.DeleteCase(ctx, c); err != nil {
		return err
	}
	n.publish(pubsub.DeletedEvent, c)
	return nil
}

func (n *Notifying) CreateCommand(ctx context.Context, caseID int64, name, cmd string) (domain.Command, error) {
	c, err := n.Client.CreateCommand(ctx, caseID, name, cmd)
	if err != nil {
		return c, err
	}
	n.publish(pubsub.CreatedEvent, c)
	return c, nil
}

func (n *Notifying) UpdateCommand(ctx context.Context, cmd domain.Command) (domain.Command, error) {
	c, err := n.Client.UpdateCommand(ctx, cmd)
	if err != nil {
		return c, err
	}
	n.publish(pubsub.ChangedEvent, c)
	return c, nil
}

func (n *Notifying) DeleteCommand(ctx context.Context, cmd domain.Command) error {
	if err := n.Client.DeleteCommand(ctx, cmd); err != nil {
		return err
	}
	n.publish(pubsub.DeletedEvent, cmd)
	return nil
}

func (n *Notifying) GetOrCreateResult(ctx context.Context, groupID int64) (domain.HandgradingResult, bool, error) {
	r, created, err := n.Client.GetOrCreateResult(ctx, groupID)
	if err != nil {
		return r, false, err
	}
	if created {
		n.publish(pubsub.CreatedEvent, r)
	}
	return r, created, nil
}

func (n *Notifying) UpdateResult(ctx context.Context, result domain.HandgradingResult) (domain.HandgradingResult, error) {
	r, err := n.Client.UpdateResult(ctx, result)
	if err != nil {
		return r, err
	}
	n.publish(pubsub.ChangedEvent, r)
	return r, nil
}
