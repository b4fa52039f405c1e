package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/setupresult"
	"github.com/zjrosen/agview/internal/ui/styles"
)

var setupCategory string

var setupOutputCmd = &cobra.Command{
	Use:   "setup-output <submission-id>",
	Short: "Show the setup command output of a submission's suite results",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetupOutput,
}

func init() {
	rootCmd.AddCommand(setupOutputCmd)
	setupOutputCmd.Flags().StringVar(&setupCategory, "category", string(domain.FeedbackStaffViewer),
		"feedback category: normal, ultimate_submission, past_limit_submission, staff_viewer, max")
}

func runSetupOutput(cmd *cobra.Command, args []string) (err error) {
	submissionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || submissionID <= 0 {
		return fmt.Errorf("invalid submission id %q", args[0])
	}
	category := domain.FeedbackCategory(setupCategory)
	if !category.Valid() {
		return fmt.Errorf("unknown feedback category %q", setupCategory)
	}

	b, err := openBackend(cfg, features)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	viewer := setupresult.NewViewer(b.client,
		setupresult.WithTTL(cfg.Cache.OutputTTL),
		setupresult.WithTracer(b.tracer),
	)
	views, err := viewer.LoadSubmission(cmd.Context(), submissionID, category)
	if err != nil {
		return err
	}
	printViews(cmd.OutOrStdout(), views)
	return nil
}

func printViews(w io.Writer, views []setupresult.View) {
	if len(views) == 0 {
		_, _ = fmt.Fprintln(w, "No suite results")
		return
	}
	for i, v := range views {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintln(w, styles.SuiteStyle.Render(v.SuiteName))
		_, _ = fmt.Fprintf(w, "Setup: %s\n", v.SetupName)
		_, _ = fmt.Fprintf(w, "Exit status: %s\n", v.ExitStatus)
		for _, sec := range []*setupresult.Section{v.Stdout, v.Stderr} {
			if sec == nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "--- %s ---\n%s\n", sec.Stream, sec.Text())
		}
	}
}
