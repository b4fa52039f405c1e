package testutil

// Usernames used by the presets.
const (
	StaffOne = "staff1@spam.com"
	StaffTwo = "staff2@spam.com"
)

// WithSampleTree adds the tree
//
//	Suite1
//	  ├── Case1 [Cmd1]
//	  └── Case2 [Cmd2, Cmd3]
//	Suite2
//	  └── Case3 [Cmd4]
func (b *Builder) WithSampleTree() *Builder {
	return b.
		WithSuite("Suite1", Case("Case1", "Cmd1"), Case("Case2", "Cmd2", "Cmd3")).
		WithSuite("Suite2", Case("Case3", "Cmd4"))
}

// WithHandgradingDashboard adds one group per grading status plus a staff
// group, in this order: no submissions, ungraded, in progress, graded, staff.
func (b *Builder) WithHandgradingDashboard() *Builder {
	return b.
		WithStaff(StaffOne, StaffTwo).
		WithGroup(Members("none@me.com")).
		WithGroup(Members("not_yet@me.com"), Submissions(1)).
		WithGroup(Members("progress@me.com"), Submissions(1), InProgress(4, 6)).
		WithGroup(Members("graded@me.com"), Submissions(1), Graded(5, 6)).
		WithGroup(Members(StaffOne, StaffTwo), Submissions(1), Graded(6, 6))
}
