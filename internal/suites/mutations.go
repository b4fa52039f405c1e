package suites

import (
	"context"
	"fmt"

	"github.com/zjrosen/agview/internal/domain"
)

// The mutations below only talk to the API. The tree changes when the
// confirmed change event comes back through Apply.

func (n *Navigator) lookupSuite(id int64) (domain.Suite, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return domain.Suite{}, ErrClosed
	}
	node, ok := n.suites[id]
	if !ok {
		return domain.Suite{}, fmt.Errorf("suite %d: %w", id, ErrUnknownNode)
	}
	return node.suite, nil
}

func (n *Navigator) lookupCase(id int64, withCommands bool) (domain.Case, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return domain.Case{}, ErrClosed
	}
	node, ok := n.cases[id]
	if !ok {
		return domain.Case{}, fmt.Errorf("case %d: %w", id, ErrUnknownNode)
	}
	if withCommands {
		return n.buildCase(id), nil
	}
	return node.c, nil
}

func (n *Navigator) lookupCommand(id int64) (domain.Command, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return domain.Command{}, ErrClosed
	}
	cmd, ok := n.commands[id]
	if !ok {
		return domain.Command{}, fmt.Errorf("command %d: %w", id, ErrUnknownNode)
	}
	return cmd, nil
}

func (n *Navigator) isClosed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.closed
}

// CreateSuite adds a suite to the navigator's project.
func (n *Navigator) CreateSuite(ctx context.Context, name string) (domain.Suite, error) {
	if n.isClosed() {
		return domain.Suite{}, ErrClosed
	}
	s, err := n.client.CreateSuite(ctx, n.projectID, name)
	if err != nil {
		return domain.Suite{}, fmt.Errorf("creating suite %q: %w", name, err)
	}
	return s, nil
}

// RenameSuite changes a suite's name.
func (n *Navigator) RenameSuite(ctx context.Context, id int64, name string) (domain.Suite, error) {
	s, err := n.lookupSuite(id)
	if err != nil {
		return domain.Suite{}, err
	}
	s.Name = name
	updated, err := n.client.UpdateSuite(ctx, s)
	if err != nil {
		return domain.Suite{}, fmt.Errorf("renaming suite %d: %w", id, err)
	}
	return updated, nil
}

// DeleteSuite removes a suite with all its cases and commands.
func (n *Navigator) DeleteSuite(ctx context.Context, id int64) error {
	s, err := n.lookupSuite(id)
	if err != nil {
		return err
	}
	if err := n.client.DeleteSuite(ctx, s); err != nil {
		return fmt.Errorf("deleting suite %d: %w", id, err)
	}
	return nil
}

// CreateCase appends a case to a suite.
func (n *Navigator) CreateCase(ctx context.Context, suiteID int64, name string) (domain.Case, error) {
	if _, err := n.lookupSuite(suiteID); err != nil {
		return domain.Case{}, err
	}
	c, err := n.client.CreateCase(ctx, suiteID, name)
	if err != nil {
		return domain.Case{}, fmt.Errorf("creating case %q: %w", name, err)
	}
	return c, nil
}

// CloneCase copies a case and its commands under a new name.
func (n *Navigator) CloneCase(ctx context.Context, caseID int64, name string) (domain.Case, error) {
	src, err := n.lookupCase(caseID, true)
	if err != nil {
		return domain.Case{}, err
	}
	c, err := n.client.CloneCase(ctx, src, name)
	if err != nil {
		return domain.Case{}, fmt.Errorf("cloning case %d: %w", caseID, err)
	}
	return c, nil
}

// RenameCase changes a case's name.
func (n *Navigator) RenameCase(ctx context.Context, id int64, name string) (domain.Case, error) {
	c, err := n.lookupCase(id, false)
	if err != nil {
		return domain.Case{}, err
	}
	c.Name = name
	updated, err := n.client.UpdateCase(ctx, c)
	if err != nil {
		return domain.Case{}, fmt.Errorf("renaming case %d: %w", id, err)
	}
	return updated, nil
}

// DeleteCase removes a case and its commands.
func (n *Navigator) DeleteCase(ctx context.Context, id int64) error {
	c, err := n.lookupCase(id, false)
	if err != nil {
		return err
	}
	if err := n.client.DeleteCase(ctx, c); err != nil {
		return fmt.Errorf("deleting case %d: %w", id, err)
	}
	return nil
}

// CreateCommand appends a command to a case.
func (n *Navigator) CreateCommand(ctx context.Context, caseID int64, name, cmd string) (domain.Command, error) {
	if _, err := n.lookupCase(caseID, false); err != nil {
		return domain.Command{}, err
	}
	created, err := n.client.CreateCommand(ctx, caseID, name, cmd)
	if err != nil {
		return domain.Command{}, fmt.Errorf("creating command %q: %w", name, err)
	}
	return created, nil
}

// UpdateCommand saves a command's name and command line.
func (n *Navigator) UpdateCommand(ctx context.Context, id int64, name, cmd string) (domain.Command, error) {
	c, err := n.lookupCommand(id)
	if err != nil {
		return domain.Command{}, err
	}
	c.Name = name
	c.Cmd = cmd
	updated, err := n.client.UpdateCommand(ctx, c)
	if err != nil {
		return domain.Command{}, fmt.Errorf("updating command %d: %w", id, err)
	}
	return updated, nil
}

// DeleteCommand removes a command.
func (n *Navigator) DeleteCommand(ctx context.Context, id int64) error {
	c, err := n.lookupCommand(id)
	if err != nil {
		return err
	}
	if err := n.client.DeleteCommand(ctx, c); err != nil {
		return fmt.Errorf("deleting command %d: %w", id, err)
	}
	return nil
}
