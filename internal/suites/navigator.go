// Package suites holds the navigator for a project's test tree
// (suites → cases → commands): the active selection, sequential traversal
// across tree boundaries, and re-selection after deletions.
//
// The tree only changes through change events (Apply); the client-driven
// mutations call the API and wait for the confirmed event.
package suites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/pubsub"
)

var (
	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("navigator closed")
	// ErrUnknownNode is returned when a mutation names an id not in the tree.
	ErrUnknownNode = errors.New("unknown tree node")
)

type suiteNode struct {
	suite domain.Suite // Cases is always nil; order lives in cases
	cases []int64
}

type caseNode struct {
	c        domain.Case // Commands is always nil; order lives in commands
	commands []int64
}

// Navigator is an arena of suites, cases and commands keyed by id, plus the
// active Selection. All methods are safe for concurrent use.
type Navigator struct {
	mu sync.RWMutex

	client    api.SuiteClient
	projectID int64

	order    []int64
	suites   map[int64]*suiteNode
	cases    map[int64]*caseNode
	commands map[int64]domain.Command
	sel      Selection

	events <-chan pubsub.Event[domain.Entity]
	cancel context.CancelFunc
	closed bool
}

// New builds a navigator over an already loaded tree. It is not subscribed
// to any bus; feed it events with Apply or call Subscribe.
func New(client api.SuiteClient, projectID int64, tree []domain.Suite) *Navigator {
	n := &Navigator{
		client:    client,
		projectID: projectID,
		suites:    make(map[int64]*suiteNode),
		cases:     make(map[int64]*caseNode),
		commands:  make(map[int64]domain.Command),
	}
	for _, s := range tree {
		n.insertSuite(s)
	}
	return n
}

// Open subscribes to bus and then loads the project's tree, so no change
// published during the load is missed.
func Open(ctx context.Context, client api.SuiteClient, bus pubsub.Subscriber[domain.Entity], projectID int64) (*Navigator, error) {
	n := New(client, projectID, nil)
	n.Subscribe(ctx, bus)

	tree, err := client.ListSuites(ctx, projectID)
	if err != nil {
		n.Close()
		return nil, fmt.Errorf("loading suites for project %d: %w", projectID, err)
	}

	n.mu.Lock()
	for _, s := range tree {
		if _, ok := n.suites[s.ID]; !ok {
			n.insertSuite(s)
		}
	}
	n.mu.Unlock()

	log.Debug(log.CatNav, "Loaded suites", "project", projectID, "suites", len(tree))
	return n, nil
}

// insertSuite appends s and its children. Callers hold mu (or own n exclusively).
func (n *Navigator) insertSuite(s domain.Suite) {
	node := &suiteNode{suite: s}
	node.suite.Cases = nil
	n.suites[s.ID] = node
	n.order = append(n.order, s.ID)
	for _, c := range s.Cases {
		c.SuiteID = s.ID
		n.insertCase(c)
	}
}

func (n *Navigator) insertCase(c domain.Case) {
	parent := n.suites[c.SuiteID]
	node := &caseNode{c: c}
	node.c.Commands = nil
	n.cases[c.ID] = node
	parent.cases = append(parent.cases, c.ID)
	for _, cmd := range c.Commands {
		cmd.CaseID = c.ID
		n.insertCommand(cmd)
	}
}

func (n *Navigator) insertCommand(cmd domain.Command) {
	parent := n.cases[cmd.CaseID]
	n.commands[cmd.ID] = cmd
	parent.commands = append(parent.commands, cmd.ID)
}

func (n *Navigator) buildCase(id int64) domain.Case {
	node := n.cases[id]
	c := node.c
	c.Commands = make([]domain.Command, 0, len(node.commands))
	for _, cmdID := range node.commands {
		c.Commands = append(c.Commands, n.commands[cmdID])
	}
	return c
}

func (n *Navigator) buildSuite(id int64) domain.Suite {
	node := n.suites[id]
	s := node.suite
	s.Cases = make([]domain.Case, 0, len(node.cases))
	for _, caseID := range node.cases {
		s.Cases = append(s.Cases, n.buildCase(caseID))
	}
	return s
}

// Suites returns a snapshot of the whole tree in order.
func (n *Navigator) Suites() []domain.Suite {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]domain.Suite, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.buildSuite(id))
	}
	return out
}

// Suite returns the suite with its children.
func (n *Navigator) Suite(id int64) (domain.Suite, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if _, ok := n.suites[id]; !ok {
		return domain.Suite{}, false
	}
	return n.buildSuite(id), true
}

// Case returns the case with its commands.
func (n *Navigator) Case(id int64) (domain.Case, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if _, ok := n.cases[id]; !ok {
		return domain.Case{}, false
	}
	return n.buildCase(id), true
}

// Command returns the command.
func (n *Navigator) Command(id int64) (domain.Command, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	cmd, ok := n.commands[id]
	return cmd, ok
}

// Selection returns the active selection.
func (n *Navigator) Selection() Selection {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sel
}

// Select makes sel active. It always succeeds; ids that are not in the tree
// simply resolve to no active suite or command.
func (n *Navigator) Select(sel Selection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sel = sel
	log.Debug(log.CatNav, "Selected", "selection", sel)
}

// IsSuiteActive reports whether a suite is selected.
func (n *Navigator) IsSuiteActive() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sel.Level == LevelSuite
}

// IsCommandLevelActive reports whether a case or a command is selected.
// ActiveCommand may still be nil (a selected case with no commands).
func (n *Navigator) IsCommandLevelActive() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.sel.Level == LevelCase || n.sel.Level == LevelCommand
}

// ActiveSuite returns the selected suite, or nil unless a suite is selected.
func (n *Navigator) ActiveSuite() *domain.Suite {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.sel.Level != LevelSuite {
		return nil
	}
	if _, ok := n.suites[n.sel.ID]; !ok {
		return nil
	}
	s := n.buildSuite(n.sel.ID)
	return &s
}

// activeCommandID resolves the active command: the selected command, or the
// first command of the selected case.
func (n *Navigator) activeCommandID() (int64, bool) {
	switch n.sel.Level {
	case LevelCommand:
		_, ok := n.commands[n.sel.ID]
		return n.sel.ID, ok
	case LevelCase:
		node, ok := n.cases[n.sel.ID]
		if !ok || len(node.commands) == 0 {
			return 0, false
		}
		return node.commands[0], true
	default:
		return 0, false
	}
}

// ActiveCommand returns the active command, or nil.
func (n *Navigator) ActiveCommand() *domain.Command {
	n.mu.RLock()
	defer n.mu.RUnlock()
	id, ok := n.activeCommandID()
	if !ok {
		return nil
	}
	cmd := n.commands[id]
	return &cmd
}

// parentCaseID returns the selected case or the active command's case.
func (n *Navigator) parentCaseID() (int64, bool) {
	switch n.sel.Level {
	case LevelCase:
		_, ok := n.cases[n.sel.ID]
		return n.sel.ID, ok
	case LevelCommand:
		cmd, ok := n.commands[n.sel.ID]
		return cmd.CaseID, ok
	default:
		return 0, false
	}
}

// ParentCase returns the selected case, or the case owning the selected command.
func (n *Navigator) ParentCase() *domain.Case {
	n.mu.RLock()
	defer n.mu.RUnlock()
	id, ok := n.parentCaseID()
	if !ok {
		return nil
	}
	c := n.buildCase(id)
	return &c
}

// ParentSuite returns the suite above the selected case or command. It is
// nil when a suite itself (or nothing) is selected.
func (n *Navigator) ParentSuite() *domain.Suite {
	n.mu.RLock()
	defer n.mu.RUnlock()
	caseID, ok := n.parentCaseID()
	if !ok {
		return nil
	}
	s := n.buildSuite(n.cases[caseID].c.SuiteID)
	return &s
}

// selectedSuiteID is the suite containing the selection, if any.
func (n *Navigator) selectedSuiteID() (int64, bool) {
	if n.sel.Level == LevelSuite {
		_, ok := n.suites[n.sel.ID]
		return n.sel.ID, ok
	}
	caseID, ok := n.parentCaseID()
	if !ok {
		return 0, false
	}
	return n.cases[caseID].c.SuiteID, true
}

// flatten lists command ids depth-first: suite order, case order, command order.
func (n *Navigator) flatten() []int64 {
	var out []int64
	for _, sid := range n.order {
		for _, cid := range n.suites[sid].cases {
			out = append(out, n.cases[cid].commands...)
		}
	}
	return out
}

// Order returns every command id in traversal order.
func (n *Navigator) Order() []int64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.flatten()
}

func (n *Navigator) neighbor(step int) (int64, bool) {
	cur, ok := n.activeCommandID()
	if !ok {
		return 0, false
	}
	flat := n.flatten()
	i := slices.Index(flat, cur) + step
	if i < 0 || i >= len(flat) {
		return 0, false
	}
	return flat[i], true
}

// PrevCommandAvailable reports whether a command precedes the active one.
func (n *Navigator) PrevCommandAvailable() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.neighbor(-1)
	return ok
}

// NextCommandAvailable reports whether a command follows the active one.
func (n *Navigator) NextCommandAvailable() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.neighbor(1)
	return ok
}

// GoToPrevCommand selects the previous command; a no-op when there is none.
func (n *Navigator) GoToPrevCommand() {
	n.step(-1)
}

// GoToNextCommand selects the next command; a no-op when there is none.
func (n *Navigator) GoToNextCommand() {
	n.step(1)
}

func (n *Navigator) step(dir int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if id, ok := n.neighbor(dir); ok {
		n.sel = CommandSelection(id)
		log.Debug(log.CatNav, "Stepped command", "dir", dir, "command", id)
	}
}

// adjacentCase finds the case dir steps from the active command's case and
// the command at the same index inside it. Only the immediately adjacent
// suite is considered when crossing a suite boundary.
func (n *Navigator) adjacentCase(dir int) (int64, bool) {
	cmdID, ok := n.activeCommandID()
	if !ok {
		return 0, false
	}
	caseID := n.commands[cmdID].CaseID
	cmdIdx := slices.Index(n.cases[caseID].commands, cmdID)
	suiteID := n.cases[caseID].c.SuiteID
	siblings := n.suites[suiteID].cases
	caseIdx := slices.Index(siblings, caseID)

	var target int64
	switch j := caseIdx + dir; {
	case j >= 0 && j < len(siblings):
		target = siblings[j]
	default:
		si := slices.Index(n.order, suiteID) + dir
		if si < 0 || si >= len(n.order) {
			return 0, false
		}
		adj := n.suites[n.order[si]].cases
		if len(adj) == 0 {
			return 0, false
		}
		if dir < 0 {
			target = adj[len(adj)-1]
		} else {
			target = adj[0]
		}
	}

	cmds := n.cases[target].commands
	if cmdIdx >= len(cmds) {
		return 0, false
	}
	return cmds[cmdIdx], true
}

// PrevCaseAvailable reports whether GoToPrevCase would move.
func (n *Navigator) PrevCaseAvailable() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.adjacentCase(-1)
	return ok
}

// NextCaseAvailable reports whether GoToNextCase would move.
func (n *Navigator) NextCaseAvailable() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.adjacentCase(1)
	return ok
}

// GoToPrevCase selects the command at the same index in the previous case.
func (n *Navigator) GoToPrevCase() {
	n.stepCase(-1)
}

// GoToNextCase selects the command at the same index in the next case.
func (n *Navigator) GoToNextCase() {
	n.stepCase(1)
}

func (n *Navigator) stepCase(dir int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if id, ok := n.adjacentCase(dir); ok {
		n.sel = CommandSelection(id)
		log.Debug(log.CatNav, "Stepped case", "dir", dir, "command", id)
	}
}
