// Package domain holds the autograder entities shared by the navigator, the
// handgrading dashboard, the API clients, and the change bus.
package domain

// Kind identifies the entity type carried on the change bus.
type Kind int

const (
	KindSuite Kind = iota
	KindCase
	KindCommand
	KindHandgradingResult
)

func (k Kind) String() string {
	switch k {
	case KindSuite:
		return "suite"
	case KindCase:
		return "case"
	case KindCommand:
		return "command"
	case KindHandgradingResult:
		return "handgrading_result"
	default:
		return "unknown"
	}
}

// Entity is implemented by every value published on the change bus.
// Subscribers type-switch on the concrete type.
type Entity interface {
	EntityKind() Kind
}

var (
	_ Entity = Suite{}
	_ Entity = Case{}
	_ Entity = Command{}
	_ Entity = HandgradingResult{}
)
