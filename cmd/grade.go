package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/agview/internal/cachemanager"
	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/handgrading"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/ui/gradinglist"
	"github.com/zjrosen/agview/internal/ui/styles"
	"github.com/zjrosen/agview/internal/watcher"
)

var (
	gradeList   bool
	gradeStatus string
	gradeSearch string
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Open the handgrading dashboard",
	Long: `Load every group of the selected project, page by page, and show them
filtered by grading status, staff membership and member search.

With --list the filtered groups and the progress line are printed and agview
exits.`,
	RunE: runGrade,
}

func init() {
	rootCmd.AddCommand(gradeCmd)
	gradeCmd.Flags().BoolVar(&gradeList, "list", false, "print the filtered groups and exit")
	gradeCmd.Flags().StringVar(&gradeStatus, "status", "", "status filter: all, no_submissions, ungraded, in_progress, graded")
	gradeCmd.Flags().StringVar(&gradeSearch, "search", "", "only groups with a member containing this text")
	gradeCmd.Flags().Bool("include-staff", false, "show staff groups (saved to ui.include_staff)")
}

func runGrade(cmd *cobra.Command, _ []string) (err error) {
	if err := requireProject(); err != nil {
		return err
	}
	status, err := handgrading.ParseStatus(gradeStatus)
	if err != nil {
		return err
	}
	includeStaff := cfg.UI.IncludeStaff
	if cmd.Flags().Changed("include-staff") {
		includeStaff, _ = cmd.Flags().GetBool("include-staff")
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

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	coll := handgrading.New(b.client, cfg.ProjectID, cfg.CourseID,
		handgrading.WithTracer(b.tracer),
		handgrading.WithPageSize(cfg.API.PageSize),
		handgrading.WithStaffCache(cachemanager.NewInMemoryCacheManager[handgrading.RosterKey, []domain.User](
			"staff_roster", cfg.Cache.StaffTTL, cachemanager.DefaultCleanupInterval), cfg.Cache.StaffTTL),
		handgrading.WithFilter(handgrading.FilterState{
			Status:       status,
			IncludeStaff: includeStaff,
			SearchText:   gradeSearch,
		}),
	)
	defer coll.Close()
	coll.Subscribe(ctx, b.bus)

	if gradeList {
		if err := coll.LoadAll(ctx); err != nil {
			return err
		}
		printRows(cmd.OutOrStdout(), coll.Visible(), coll.Progress())
		return nil
	}

	opts := []gradinglist.Option{gradinglist.WithConfigPath(configPath())}
	if features.WatchStore() && b.db != nil {
		w, err := watcher.New(watcher.DefaultConfig(b.db.Path()))
		if err != nil {
			return err
		}
		changes, err := w.Start()
		if err != nil {
			_ = w.Stop()
			return err
		}
		defer func() { _ = w.Stop() }()
		opts = append(opts, gradinglist.WithStoreChanges(changes))
		log.Info(log.CatWatcher, "Reloading on store changes", "path", b.db.Path())
	}

	p := tea.NewProgram(gradinglist.New(ctx, coll, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func printRows(w io.Writer, rows []handgrading.Row, progress handgrading.Progress) {
	for _, r := range rows {
		names := strings.Join(r.Summary.MemberNames, ", ")
		if r.Staff {
			names += " (staff)"
		}
		_, _ = fmt.Fprintf(w, "%-6d %-16s %s\n", r.Summary.ID, styles.GradingStatusLabel(r.Status), names)
	}
	_, _ = fmt.Fprintf(w, "Progress: %s\n", progress)
}
