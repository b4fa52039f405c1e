package sqlite

import (
	"github.com/goccy/go-json"

	"github.com/zjrosen/agview/internal/domain"
)

// groupModel is a student_groups row joined with its optional result.
type groupModel struct {
	ID             int64
	ProjectID      int64
	Members        string // JSON array
	NumSubmissions int

	ResultID            *int64 // nil when no result exists
	FinishedGrading     *bool
	TotalPoints         *float64
	TotalPointsPossible *float64
}

func (m groupModel) toDomain() (domain.GroupSummary, error) {
	g := domain.GroupSummary{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		NumSubmissions: m.NumSubmissions,
	}
	if err := json.Unmarshal([]byte(m.Members), &g.MemberNames); err != nil {
		return g, err
	}
	if m.ResultID != nil {
		g.Result = &domain.ResultSummary{
			FinishedGrading:     deref(m.FinishedGrading),
			TotalPoints:         deref(m.TotalPoints),
			TotalPointsPossible: deref(m.TotalPointsPossible),
		}
	}
	return g, nil
}

func encodeMembers(members []string) (string, error) {
	if members == nil {
		members = []string{}
	}
	b, err := json.Marshal(members)
	return string(b), err
}

// suiteResultModel is a suite_results row.
type suiteResultModel struct {
	ID              int64
	SubmissionID    int64
	SuiteName       string
	SetupName       string
	SetupReturnCode *int
	SetupTimedOut   *bool
	SetupStdout     *string
	SetupStderr     *string
	Settings        domain.SuiteFeedbackSettings
}

// settingsFor applies the feedback category: staff and max see everything,
// other categories get the stored switches.
func (m suiteResultModel) settingsFor(category domain.FeedbackCategory) domain.SuiteFeedbackSettings {
	switch category {
	case domain.FeedbackStaffViewer, domain.FeedbackMax:
		return domain.SuiteFeedbackSettings{
			ShowSetupReturnCode: true,
			ShowSetupTimedOut:   true,
			ShowSetupStdout:     true,
			ShowSetupStderr:     true,
		}
	default:
		return m.Settings
	}
}

func (m suiteResultModel) toFeedback(category domain.FeedbackCategory) domain.SuiteResultFeedback {
	settings := m.settingsFor(category)
	fb := domain.SuiteResultFeedback{
		ID:               m.ID,
		SuiteName:        m.SuiteName,
		SetupName:        m.SetupName,
		FeedbackSettings: settings,
	}
	if settings.ShowSetupReturnCode {
		fb.SetupReturnCode = m.SetupReturnCode
	}
	if settings.ShowSetupTimedOut {
		fb.SetupTimedOut = m.SetupTimedOut
	}
	return fb
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
