package domain

// FeedbackCategory controls which result fields a viewer may see.
type FeedbackCategory string

const (
	FeedbackNormal              FeedbackCategory = "normal"
	FeedbackPastLimitSubmission FeedbackCategory = "past_limit_submission"
	FeedbackUltimateSubmission  FeedbackCategory = "ultimate_submission"
	FeedbackStaffViewer         FeedbackCategory = "staff_viewer"
	FeedbackMax                 FeedbackCategory = "max"
)

// Valid reports whether c is a known category.
func (c FeedbackCategory) Valid() bool {
	switch c {
	case FeedbackNormal, FeedbackPastLimitSubmission, FeedbackUltimateSubmission,
		FeedbackStaffViewer, FeedbackMax:
		return true
	}
	return false
}

// SuiteFeedbackSettings are the visibility switches applied to a suite result.
type SuiteFeedbackSettings struct {
	ShowSetupReturnCode bool `json:"show_setup_return_code"`
	ShowSetupTimedOut   bool `json:"show_setup_timed_out"`
	ShowSetupStdout     bool `json:"show_setup_stdout"`
	ShowSetupStderr     bool `json:"show_setup_stderr"`
}

// SuiteResultFeedback is a suite result as seen under one feedback category.
type SuiteResultFeedback struct {
	ID               int64                 `json:"pk"`
	SuiteName        string                `json:"ag_test_suite_name"`
	SetupName        string                `json:"setup_name"`
	SetupReturnCode  *int                  `json:"setup_return_code"`
	SetupTimedOut    *bool                 `json:"setup_timed_out"`
	FeedbackSettings SuiteFeedbackSettings `json:"fdbk_settings"`
}

// OutputStream names one of the setup output streams.
type OutputStream string

const (
	StreamStdout OutputStream = "stdout"
	StreamStderr OutputStream = "stderr"
)
