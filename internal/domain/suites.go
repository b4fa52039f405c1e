package domain

import "slices"

// Suite is a test suite. Cases is only populated when suites are listed with
// their children (initial project load); change events carry the suite alone.
type Suite struct {
	ID        int64  `json:"pk"`
	ProjectID int64  `json:"project"`
	Name      string `json:"name"`
	Cases     []Case `json:"ag_test_cases,omitempty"`
}

// EntityKind implements Entity.
func (Suite) EntityKind() Kind { return KindSuite }

// Case is a test case inside a suite.
type Case struct {
	ID       int64     `json:"pk"`
	SuiteID  int64     `json:"ag_test_suite"`
	Name     string    `json:"name"`
	Commands []Command `json:"ag_test_commands,omitempty"`
}

// EntityKind implements Entity.
func (Case) EntityKind() Kind { return KindCase }

// Command is a single command run by a test case.
type Command struct {
	ID     int64  `json:"pk"`
	CaseID int64  `json:"ag_test_case"`
	Name   string `json:"name"`
	Cmd    string `json:"cmd"`
}

// EntityKind implements Entity.
func (Command) EntityKind() Kind { return KindCommand }

// Clone returns a deep copy of the suite and its children.
func (s Suite) Clone() Suite {
	out := s
	out.Cases = make([]Case, len(s.Cases))
	for i, c := range s.Cases {
		out.Cases[i] = c.Clone()
	}
	return out
}

// Clone returns a copy of the case with its own command slice.
func (c Case) Clone() Case {
	out := c
	out.Commands = slices.Clone(c.Commands)
	return out
}
