package testutil

import "github.com/zjrosen/agview/internal/domain"

// groupData holds all data for a group to be inserted.
type groupData struct {
	members        []string
	numSubmissions int
	result         *domain.ResultSummary
}

// GroupOption configures a group during builder setup.
type GroupOption func(*groupData)

// Members sets the group's member usernames.
func Members(names ...string) GroupOption {
	return func(g *groupData) { g.members = append(g.members, names...) }
}

// Submissions sets the submission count.
func Submissions(n int) GroupOption {
	return func(g *groupData) { g.numSubmissions = n }
}

// InProgress attaches an unfinished result.
func InProgress(points, possible float64) GroupOption {
	return func(g *groupData) {
		g.result = &domain.ResultSummary{TotalPoints: points, TotalPointsPossible: possible}
	}
}

// Graded attaches a finished result.
func Graded(points, possible float64) GroupOption {
	return func(g *groupData) {
		g.result = &domain.ResultSummary{FinishedGrading: true, TotalPoints: points, TotalPointsPossible: possible}
	}
}

// CaseData is a case and its command names.
type CaseData struct {
	Name     string
	Commands []string
}

// Case creates a CaseData structure.
func Case(name string, commands ...string) CaseData {
	return CaseData{Name: name, Commands: commands}
}

// suiteData holds a suite to be created through the backend.
type suiteData struct {
	name  string
	cases []CaseData
}
