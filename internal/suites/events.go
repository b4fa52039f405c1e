package suites

import (
	"context"
	"slices"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/pubsub"
)

// Subscribe starts receiving tree events from bus until Close or ctx ends.
// Received events are applied by Drain or by feeding Events() to Apply.
func (n *Navigator) Subscribe(ctx context.Context, bus pubsub.Subscriber[domain.Entity]) {
	subCtx, cancel := context.WithCancel(ctx)
	ch := bus.Subscribe(subCtx)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
	}
	n.events = ch
	n.cancel = cancel
}

// Events returns the subscription channel, or nil when not subscribed.
func (n *Navigator) Events() <-chan pubsub.Event[domain.Entity] {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.events
}

// Drain applies every event already waiting on the subscription and returns
// how many were applied. It never blocks.
func (n *Navigator) Drain() int {
	ch := n.Events()
	if ch == nil {
		return 0
	}
	applied := 0
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return applied
			}
			n.Apply(ev)
			applied++
		default:
			return applied
		}
	}
}

// Close unsubscribes. Later Apply calls and mutations are no-ops.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	if n.cancel != nil {
		n.cancel()
	}
}

// Apply updates the tree for one change event. Events for other entity
// kinds, deletes of unknown nodes and creations under unknown parents are
// ignored.
func (n *Navigator) Apply(ev pubsub.Event[domain.Entity]) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		log.Debug(log.CatNav, "Dropping event after close", "event", ev.Type)
		return
	}

	switch e := ev.Payload.(type) {
	case domain.Suite:
		n.applySuite(ev.Type, e)
	case domain.Case:
		n.applyCase(ev.Type, e)
	case domain.Command:
		n.applyCommand(ev.Type, e)
	}
}

func (n *Navigator) applySuite(t pubsub.EventType, s domain.Suite) {
	if s.ProjectID != 0 && n.projectID != 0 && s.ProjectID != n.projectID {
		return
	}
	switch t {
	case pubsub.CreatedEvent:
		if _, exists := n.suites[s.ID]; exists {
			n.changeSuite(s)
			return
		}
		n.insertSuite(s)
		n.sel = SuiteSelection(s.ID)
		log.Debug(log.CatNav, "Suite created", "suite", s.ID)
	case pubsub.ChangedEvent:
		n.changeSuite(s)
	case pubsub.DeletedEvent:
		n.deleteSuite(s.ID)
	}
}

func (n *Navigator) changeSuite(s domain.Suite) {
	node, ok := n.suites[s.ID]
	if !ok {
		return
	}
	s.Cases = nil
	node.suite = s
}

func (n *Navigator) deleteSuite(id int64) {
	idx := slices.Index(n.order, id)
	if idx < 0 {
		return
	}
	selSuite, hadSel := n.selectedSuiteID()
	affected := hadSel && selSuite == id

	for _, caseID := range n.suites[id].cases {
		n.dropCase(caseID)
	}
	delete(n.suites, id)
	n.order = slices.Delete(n.order, idx, idx+1)

	if affected {
		n.sel = rebase(n.order, idx, SuiteSelection, NoSelection())
		log.Debug(log.CatNav, "Re-selected after suite delete", "deleted", id, "selection", n.sel)
	}
}

func (n *Navigator) applyCase(t pubsub.EventType, c domain.Case) {
	switch t {
	case pubsub.CreatedEvent:
		if _, exists := n.cases[c.ID]; exists {
			n.changeCase(c)
			return
		}
		if _, ok := n.suites[c.SuiteID]; !ok {
			log.Debug(log.CatNav, "Case created under unknown suite", "case", c.ID, "suite", c.SuiteID)
			return
		}
		n.insertCase(c)
		n.sel = CaseSelection(c.ID)
		log.Debug(log.CatNav, "Case created", "case", c.ID)
	case pubsub.ChangedEvent:
		n.changeCase(c)
	case pubsub.DeletedEvent:
		n.deleteCase(c.ID)
	}
}

func (n *Navigator) changeCase(c domain.Case) {
	node, ok := n.cases[c.ID]
	if !ok {
		return
	}
	c.Commands = nil
	c.SuiteID = node.c.SuiteID
	node.c = c
}

// dropCase removes a case and its commands from the arena (not from its parent).
func (n *Navigator) dropCase(id int64) {
	for _, cmdID := range n.cases[id].commands {
		delete(n.commands, cmdID)
	}
	delete(n.cases, id)
}

func (n *Navigator) deleteCase(id int64) {
	node, ok := n.cases[id]
	if !ok {
		return
	}
	parent := n.suites[node.c.SuiteID]
	idx := slices.Index(parent.cases, id)

	selCase, hadSel := n.parentCaseID()
	affected := hadSel && selCase == id

	n.dropCase(id)
	parent.cases = slices.Delete(parent.cases, idx, idx+1)

	if affected {
		n.sel = rebase(parent.cases, idx, CaseSelection, SuiteSelection(parent.suite.ID))
		log.Debug(log.CatNav, "Re-selected after case delete", "deleted", id, "selection", n.sel)
	}
}

func (n *Navigator) applyCommand(t pubsub.EventType, cmd domain.Command) {
	switch t {
	case pubsub.CreatedEvent:
		if _, exists := n.commands[cmd.ID]; exists {
			n.changeCommand(cmd)
			return
		}
		if _, ok := n.cases[cmd.CaseID]; !ok {
			log.Debug(log.CatNav, "Command created under unknown case", "command", cmd.ID, "case", cmd.CaseID)
			return
		}
		n.insertCommand(cmd)
		n.sel = CommandSelection(cmd.ID)
		log.Debug(log.CatNav, "Command created", "command", cmd.ID)
	case pubsub.ChangedEvent:
		n.changeCommand(cmd)
	case pubsub.DeletedEvent:
		n.deleteCommand(cmd.ID)
	}
}

func (n *Navigator) changeCommand(cmd domain.Command) {
	old, ok := n.commands[cmd.ID]
	if !ok {
		return
	}
	cmd.CaseID = old.CaseID
	n.commands[cmd.ID] = cmd
}

func (n *Navigator) deleteCommand(id int64) {
	cmd, ok := n.commands[id]
	if !ok {
		return
	}
	parent := n.cases[cmd.CaseID]
	idx := slices.Index(parent.commands, id)

	affected := n.sel.Level == LevelCommand && n.sel.ID == id

	delete(n.commands, id)
	parent.commands = slices.Delete(parent.commands, idx, idx+1)

	if affected {
		n.sel = rebase(parent.commands, idx, CommandSelection, CaseSelection(parent.c.ID))
		log.Debug(log.CatNav, "Re-selected after command delete", "deleted", id, "selection", n.sel)
	}
}

// rebase picks the sibling now at idx, else the new last sibling, else fallback.
func rebase(siblings []int64, idx int, sel func(int64) Selection, fallback Selection) Selection {
	switch {
	case idx < len(siblings):
		return sel(siblings[idx])
	case len(siblings) > 0:
		return sel(siblings[len(siblings)-1])
	default:
		return fallback
	}
}
