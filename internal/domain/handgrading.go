package domain

import "strings"

// GradingStatus is the handgrading state of one group.
type GradingStatus string

const (
	StatusNoSubmissions GradingStatus = "no_submissions"
	StatusUngraded      GradingStatus = "ungraded"
	StatusInProgress    GradingStatus = "in_progress"
	StatusGraded        GradingStatus = "graded"
)

// ResultSummary is the part of a handgrading result embedded in a group summary.
type ResultSummary struct {
	FinishedGrading     bool    `json:"finished_grading"`
	TotalPoints         float64 `json:"total_points"`
	TotalPointsPossible float64 `json:"total_points_possible"`
}

// GroupSummary is one row of the handgrading dashboard.
type GroupSummary struct {
	ID             int64          `json:"pk"`
	ProjectID      int64          `json:"project"`
	MemberNames    []string       `json:"member_names"`
	NumSubmissions int            `json:"num_submissions"`
	Result         *ResultSummary `json:"handgrading_result"`
}

// Status derives the grading status from submissions and the result summary.
func (g GroupSummary) Status() GradingStatus {
	switch {
	case g.NumSubmissions == 0:
		return StatusNoSubmissions
	case g.Result == nil:
		return StatusUngraded
	case !g.Result.FinishedGrading:
		return StatusInProgress
	default:
		return StatusGraded
	}
}

// HasMember reports whether any member name is in names.
func (g GroupSummary) HasMember(names map[string]struct{}) bool {
	for _, m := range g.MemberNames {
		if _, ok := names[m]; ok {
			return true
		}
	}
	return false
}

// MemberContains reports whether any member name contains text, ignoring case.
// An empty text matches every group.
func (g GroupSummary) MemberContains(text string) bool {
	if text == "" {
		return true
	}
	needle := strings.ToLower(text)
	for _, m := range g.MemberNames {
		if strings.Contains(strings.ToLower(m), needle) {
			return true
		}
	}
	return false
}

// HandgradingResult is the full handgrading result for a group.
type HandgradingResult struct {
	ID                  int64   `json:"pk"`
	GroupID             int64   `json:"group"`
	SubmissionID        int64   `json:"submission"`
	FinishedGrading     bool    `json:"finished_grading"`
	TotalPoints         float64 `json:"total_points"`
	TotalPointsPossible float64 `json:"total_points_possible"`
}

// EntityKind implements Entity.
func (HandgradingResult) EntityKind() Kind { return KindHandgradingResult }

// Summary returns the result fields embedded in a GroupSummary.
func (r HandgradingResult) Summary() *ResultSummary {
	return &ResultSummary{
		FinishedGrading:     r.FinishedGrading,
		TotalPoints:         r.TotalPoints,
		TotalPointsPossible: r.TotalPointsPossible,
	}
}

// User is a course member.
type User struct {
	ID       int64  `json:"pk"`
	Username string `json:"username"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether the server has more pages after this one.
func (p Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}
