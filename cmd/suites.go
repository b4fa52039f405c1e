package cmd

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/suites"
	"github.com/zjrosen/agview/internal/ui/suitetree"
)

var suitesList bool

var suitesCmd = &cobra.Command{
	Use:   "suites",
	Short: "Browse the project's test suites, cases and commands",
	Long: `Open the suite tree of the selected project. Use j/k to step through
commands across case and suite boundaries, J/K to move to the same command
of the adjacent case, d to delete the selection and c to clone its case.

With --list the tree is printed and agview exits.`,
	RunE: runSuites,
}

func init() {
	rootCmd.AddCommand(suitesCmd)
	suitesCmd.Flags().BoolVar(&suitesList, "list", false, "print the tree and exit")
}

func runSuites(cmd *cobra.Command, _ []string) (err error) {
	if err := requireProject(); err != nil {
		return err
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

	nav, err := suites.Open(ctx, b.client, b.bus, cfg.ProjectID)
	if err != nil {
		return err
	}
	defer nav.Close()

	if suitesList {
		printTree(cmd.OutOrStdout(), nav.Suites())
		return nil
	}

	p := tea.NewProgram(suitetree.New(ctx, nav), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func printTree(w io.Writer, tree []domain.Suite) {
	if len(tree) == 0 {
		_, _ = fmt.Fprintln(w, "No suites")
		return
	}
	for _, s := range tree {
		_, _ = fmt.Fprintf(w, "%s [%d]\n", s.Name, s.ID)
		for _, c := range s.Cases {
			_, _ = fmt.Fprintf(w, "  %s [%d]\n", c.Name, c.ID)
			for _, m := range c.Commands {
				_, _ = fmt.Fprintf(w, "    %s [%d]: %s\n", m.Name, m.ID, m.Cmd)
			}
		}
	}
}
