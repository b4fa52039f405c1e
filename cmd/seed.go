package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zjrosen/agview/internal/api"
	"github.com/zjrosen/agview/internal/config"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/store/sqlite"
)

var seedGroups int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the local store with a sample project",
	Long: `Create a project with a small suite tree, two staff members and a set of
groups spread across every grading status. The new course and project ids are
written to the config file so the other commands pick them up.

Requires the local-store flag (--local).`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().IntVarP(&seedGroups, "groups", "n", 12, "number of student groups")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if !features.LocalStore() {
		return errors.New("seed writes to the local store: pass --local or set flags.local-store")
	}
	if seedGroups < 0 {
		return fmt.Errorf("invalid group count %d", seedGroups)
	}

	db, err := sqlite.NewDB(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	courseID := cfg.CourseID
	if courseID == 0 {
		courseID = 1
	}
	projectID, err := seedProject(cmd.Context(), db, courseID, seedGroups)
	if err != nil {
		return err
	}
	if err := config.SaveProject(configPath(), courseID, projectID); err != nil {
		return fmt.Errorf("saving project selection: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded project %d (course %d) with %d groups in %s\n",
		projectID, courseID, seedGroups, db.Path())
	return nil
}

var seedStaff = []string{"grader1@umich.edu", "grader2@umich.edu"}

// seedProject creates one sample project and returns its id. Group i gets
// the grading status i%4 in Statuses order after "all", and the last group
// is a staff pair.
func seedProject(ctx context.Context, db *sqlite.DB, courseID int64, groups int) (int64, error) {
	seeder := db.Seeder()
	projectID, err := seeder.Project(ctx, courseID, "Project "+uuid.NewString()[:8])
	if err != nil {
		return 0, err
	}
	if err := seeder.Staff(ctx, courseID, seedStaff...); err != nil {
		return 0, err
	}

	for i := 0; i < groups; i++ {
		members := []string{memberName(), memberName()}
		subs, result := 1, (*domain.ResultSummary)(nil)
		switch i % 4 {
		case 0:
			subs = 0
		case 2:
			result = &domain.ResultSummary{TotalPoints: 3, TotalPointsPossible: 10}
		case 3:
			result = &domain.ResultSummary{FinishedGrading: true, TotalPoints: 8, TotalPointsPossible: 10}
		}
		if i == groups-1 && groups > 1 {
			members = seedStaff
		}
		groupID, err := seeder.Group(ctx, projectID, members, subs, result)
		if err != nil {
			return 0, err
		}
		if subs > 0 {
			if err := seedSuiteResult(ctx, seeder, groupID); err != nil {
				return 0, err
			}
		}
	}

	if err := seedTree(ctx, db.Backend(), projectID); err != nil {
		return 0, err
	}
	log.Info(log.CatDB, "Seeded project", "project", projectID, "groups", groups)
	return projectID, nil
}

func memberName() string {
	return uuid.NewString()[:8] + "@umich.edu"
}

func seedSuiteResult(ctx context.Context, seeder *sqlite.Seeder, submissionID int64) error {
	code := 0
	stdout := "Compiling...\nOK\n"
	_, err := seeder.SuiteResult(ctx, sqlite.SuiteResult{
		SubmissionID: submissionID,
		SuiteName:    "Public Tests",
		SetupName:    "Compile",
		ReturnCode:   &code,
		Stdout:       &stdout,
		Settings: domain.SuiteFeedbackSettings{
			ShowSetupReturnCode: true,
			ShowSetupTimedOut:   true,
			ShowSetupStdout:     true,
		},
	})
	return err
}

type seedCase struct {
	name     string
	commands []string
}

var sampleTree = []struct {
	suite string
	cases []seedCase
}{
	{"Public Tests", []seedCase{
		{"Compile", []string{"make"}},
		{"Basic", []string{"./run basic", "diff basic.out basic.correct"}},
	}},
	{"Private Tests", []seedCase{
		{"Stress", []string{"./run stress"}},
	}},
}

func seedTree(ctx context.Context, client api.SuiteClient, projectID int64) error {
	for _, s := range sampleTree {
		suite, err := client.CreateSuite(ctx, projectID, s.suite)
		if err != nil {
			return err
		}
		for _, sc := range s.cases {
			c, err := client.CreateCase(ctx, suite.ID, sc.name)
			if err != nil {
				return err
			}
			for j, line := range sc.commands {
				if _, err := client.CreateCommand(ctx, c.ID, fmt.Sprintf("%s %d", sc.name, j+1), line); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
