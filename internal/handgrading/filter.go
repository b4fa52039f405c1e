package handgrading

import (
	"fmt"
	"strings"

	"github.com/zjrosen/agview/internal/domain"
)

// StatusAll disables the status predicate.
const StatusAll domain.GradingStatus = "all"

// Statuses lists the status filter values in display order.
var Statuses = []domain.GradingStatus{
	StatusAll,
	domain.StatusNoSubmissions,
	domain.StatusUngraded,
	domain.StatusInProgress,
	domain.StatusGraded,
}

// ParseStatus validates a status filter name. The empty string means all.
func ParseStatus(s string) (domain.GradingStatus, error) {
	if s == "" {
		return StatusAll, nil
	}
	for _, st := range Statuses {
		if string(st) == strings.ToLower(s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status filter %q", s)
}

// FilterState is the dashboard's client-side filter. The zero value shows
// every non-staff group.
type FilterState struct {
	Status       domain.GradingStatus
	IncludeStaff bool
	SearchText   string
}

func (f FilterState) status() domain.GradingStatus {
	if f.Status == "" {
		return StatusAll
	}
	return f.Status
}

// inScope applies the staff and search predicates only. Progress is
// computed over this scope.
func (f FilterState) inScope(g domain.GroupSummary, staff map[string]struct{}) bool {
	if !f.IncludeStaff && g.HasMember(staff) {
		return false
	}
	return g.MemberContains(f.SearchText)
}

// Match reports whether g passes every predicate of f.
func (f FilterState) Match(g domain.GroupSummary, staff map[string]struct{}) bool {
	if st := f.status(); st != StatusAll && g.Status() != st {
		return false
	}
	return f.inScope(g, staff)
}

// Row is one visible dashboard entry.
type Row struct {
	Summary domain.GroupSummary
	Status  domain.GradingStatus
	Staff   bool
}

// Filter returns the records matching f, in their original order. records
// is not modified.
func Filter(records []domain.GroupSummary, staff map[string]struct{}, f FilterState) []Row {
	out := make([]Row, 0, len(records))
	for _, g := range records {
		if !f.Match(g, staff) {
			continue
		}
		out = append(out, Row{Summary: g, Status: g.Status(), Staff: g.HasMember(staff)})
	}
	return out
}

// Progress aggregates grading over the staff and search scope.
type Progress struct {
	Graded          int
	WithSubmissions int
	Total           int
	Points          float64
	PointsPossible  float64
}

// String renders "graded/with submissions (total total)".
func (p Progress) String() string {
	return fmt.Sprintf("%d/%d (%d total)", p.Graded, p.WithSubmissions, p.Total)
}

// Summarize computes Progress for records under f. The status predicate of
// f is ignored.
func Summarize(records []domain.GroupSummary, staff map[string]struct{}, f FilterState) Progress {
	var p Progress
	for _, g := range records {
		if !f.inScope(g, staff) {
			continue
		}
		p.Total++
		if g.NumSubmissions > 0 {
			p.WithSubmissions++
		}
		if g.Status() == domain.StatusGraded {
			p.Graded++
		}
		if g.Result != nil {
			p.Points += g.Result.TotalPoints
			p.PointsPossible += g.Result.TotalPointsPossible
		}
	}
	return p
}
