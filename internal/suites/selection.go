package suites

import "fmt"

// Level is the kind of node a Selection points at.
type Level int

const (
	LevelNone Level = iota
	LevelSuite
	LevelCase
	LevelCommand
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelSuite:
		return "suite"
	case LevelCase:
		return "case"
	case LevelCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Selection is the active tree node: nothing, a suite, a case or a command.
// The zero value selects nothing.
type Selection struct {
	Level Level
	ID    int64
}

// NoSelection selects nothing.
func NoSelection() Selection { return Selection{} }

// SuiteSelection selects the suite with id.
func SuiteSelection(id int64) Selection { return Selection{Level: LevelSuite, ID: id} }

// CaseSelection selects the case with id. Its first command becomes the active command.
func CaseSelection(id int64) Selection { return Selection{Level: LevelCase, ID: id} }

// CommandSelection selects the command with id.
func CommandSelection(id int64) Selection { return Selection{Level: LevelCommand, ID: id} }

func (s Selection) String() string {
	if s.Level == LevelNone {
		return "none"
	}
	return fmt.Sprintf("%s:%d", s.Level, s.ID)
}
