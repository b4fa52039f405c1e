package sqlite_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/testutil"
)

func TestListSuites_UnknownProject(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := db.Backend().ListSuites(context.Background(), 99)
	require.True(t, domain.IsNotFound(err))
}

func TestListSuites_EmptyProject(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).Build()

	suites, err := db.Backend().ListSuites(context.Background(), fx.ProjectID)
	require.NoError(t, err)
	require.Empty(t, suites)
}

func TestSuiteCRUD(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).WithSampleTree().Build()
	b := db.Backend()

	suite := fx.Suites[0]
	suite.Name = "Renamed"
	updated, err := b.UpdateSuite(ctx, suite)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Empty(t, updated.Cases, "updates return the suite alone")

	cmd := fx.Suites[0].Cases[1].Commands[0]
	cmd.Cmd = "make test"
	gotCmd, err := b.UpdateCommand(ctx, cmd)
	require.NoError(t, err)
	require.Equal(t, "make test", gotCmd.Cmd)

	c := fx.Suites[1].Cases[0]
	c.Name = "Renamed case"
	gotCase, err := b.UpdateCase(ctx, c)
	require.NoError(t, err)
	require.Equal(t, c.SuiteID, gotCase.SuiteID)

	suites, err := b.ListSuites(ctx, fx.ProjectID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", suites[0].Name)
	require.Equal(t, "make test", suites[0].Cases[1].Commands[0].Cmd)
	require.Equal(t, "Renamed case", suites[1].Cases[0].Name)
}

func TestDeleteSuite_Cascades(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).WithSampleTree().Build()

	require.NoError(t, db.Backend().DeleteSuite(ctx, fx.Suites[0]))

	var cases, commands int
	require.NoError(t, db.Connection().QueryRow("SELECT COUNT(*) FROM cases").Scan(&cases))
	require.NoError(t, db.Connection().QueryRow("SELECT COUNT(*) FROM commands").Scan(&commands))
	require.Equal(t, 1, cases)
	require.Equal(t, 1, commands)
}

func TestDelete_UnknownIsNotFound(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	b := db.Backend()

	require.True(t, domain.IsNotFound(b.DeleteSuite(ctx, domain.Suite{ID: 7})))
	require.True(t, domain.IsNotFound(b.DeleteCase(ctx, domain.Case{ID: 7})))
	require.True(t, domain.IsNotFound(b.DeleteCommand(ctx, domain.Command{ID: 7})))

	_, err := b.UpdateCommand(ctx, domain.Command{ID: 7, Name: "x"})
	require.True(t, domain.IsNotFound(err))
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).WithSampleTree().Build()
	b := db.Backend()

	_, err := b.CreateSuite(ctx, fx.ProjectID, "  ")
	require.Equal(t, http.StatusBadRequest, domain.StatusCode(err))

	_, err = b.CreateSuite(ctx, 99, "S")
	require.True(t, domain.IsNotFound(err))

	_, err = b.CreateCase(ctx, 99, "C")
	require.True(t, domain.IsNotFound(err))

	_, err = b.CreateCommand(ctx, 99, "c", "true")
	require.True(t, domain.IsNotFound(err))

	_, err = b.CloneCase(ctx, fx.Suites[0].Cases[0], "")
	require.Equal(t, http.StatusBadRequest, domain.StatusCode(err))
}

func TestCloneCase_CopiesCommands(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).WithSampleTree().Build()
	b := db.Backend()

	src := fx.Suites[0].Cases[1]
	clone, err := b.CloneCase(ctx, src, "Case2 copy")
	require.NoError(t, err)
	require.Equal(t, src.SuiteID, clone.SuiteID)
	require.Len(t, clone.Commands, 2)
	require.Equal(t, "Cmd2", clone.Commands[0].Name)
	require.Equal(t, clone.ID, clone.Commands[0].CaseID)
	require.NotEqual(t, src.Commands[0].ID, clone.Commands[0].ID)

	suites, err := b.ListSuites(ctx, fx.ProjectID)
	require.NoError(t, err)
	require.Len(t, suites[0].Cases, 3)
	require.Equal(t, clone, suites[0].Cases[2])

	_, err = b.CloneCase(ctx, domain.Case{ID: 99}, "x")
	require.True(t, domain.IsNotFound(err))
}

func TestListSummaries_Paging(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).WithHandgradingDashboard().Build()
	b := db.Backend()

	page1, err := b.ListSummaries(ctx, fx.ProjectID, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 5, page1.Count)
	require.Len(t, page1.Results, 2)
	require.NotNil(t, page1.Next)
	require.Nil(t, page1.Previous)
	require.Equal(t, fx.GroupIDs[0], page1.Results[0].ID)

	page3, err := b.ListSummaries(ctx, fx.ProjectID, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3.Results, 1)
	require.Nil(t, page3.Next)
	require.NotNil(t, page3.Previous)
	require.Equal(t, []string{testutil.StaffOne, testutil.StaffTwo}, page3.Results[0].MemberNames)

	_, err = b.ListSummaries(ctx, fx.ProjectID, 4, 2)
	require.True(t, domain.IsNotFound(err))

	_, err = b.ListSummaries(ctx, fx.ProjectID, 0, 2)
	require.Equal(t, http.StatusBadRequest, domain.StatusCode(err))
}

func TestListSummaries_EmptyProject(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).Build()

	page, err := db.Backend().ListSummaries(context.Background(), fx.ProjectID, 1, 10)
	require.NoError(t, err)
	require.Zero(t, page.Count)
	require.NotNil(t, page.Results)
	require.Empty(t, page.Results)
	require.Nil(t, page.Next)
}

func TestGetOrCreateResult(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).WithHandgradingDashboard().Build()
	b := db.Backend()

	_, _, err := b.GetOrCreateResult(ctx, fx.GroupIDs[0])
	require.Equal(t, http.StatusBadRequest, domain.StatusCode(err), "no submissions")

	_, _, err = b.GetOrCreateResult(ctx, 999)
	require.True(t, domain.IsNotFound(err))

	r, created, err := b.GetOrCreateResult(ctx, fx.GroupIDs[1])
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, fx.GroupIDs[1], r.GroupID)
	require.False(t, r.FinishedGrading)

	again, created, err := b.GetOrCreateResult(ctx, fx.GroupIDs[1])
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, r, again)

	existing, created, err := b.GetOrCreateResult(ctx, fx.GroupIDs[2])
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, 4.0, existing.TotalPoints)
}

func TestUpdateResult(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).WithHandgradingDashboard().Build()
	b := db.Backend()

	r, _, err := b.GetOrCreateResult(ctx, fx.GroupIDs[2])
	require.NoError(t, err)
	r.FinishedGrading = true
	updated, err := b.UpdateResult(ctx, r)
	require.NoError(t, err)
	require.True(t, updated.FinishedGrading)

	page, err := b.ListSummaries(ctx, fx.ProjectID, 1, 10)
	require.NoError(t, err)
	require.Equal(t, domain.StatusGraded, page.Results[2].Status())

	_, err = b.UpdateResult(ctx, domain.HandgradingResult{ID: 999})
	require.True(t, domain.IsNotFound(err))
}

func TestListStaff(t *testing.T) {
	db := testutil.NewTestDB(t)
	fx := testutil.NewBuilder(t, db).WithStaff("zed", "amy").Build()

	users, err := db.Backend().ListStaff(context.Background(), fx.CourseID)
	require.NoError(t, err)
	require.Equal(t, "amy", users[0].Username)
	require.Equal(t, "zed", users[1].Username)

	other, err := db.Backend().ListStaff(context.Background(), fx.CourseID+1)
	require.NoError(t, err)
	require.Empty(t, other)
}
