package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errInconsistent is returned by check when problems remain, so the exit
// status reflects them.
var errInconsistent = errors.New("store is inconsistent")

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the project store's integrity",
	Long: `Checks the project store as it is on disk: every id is unique, every link
points at an existing project, no project is orphaned and no two siblings
share a rank. With --repair the problems found are fixed and saved.`,
	RunE: runCheck,
}

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Respace workspace and project ranks",
	Long: `Respaces the ranks of every workspace list and project list that has grown
past the configured rebalance_threshold. With --force every list is respaced.`,
	RunE: runRebalance,
}

func init() {
	checkCmd.Flags().Bool("repair", false, "fix the problems found")
	rebalanceCmd.Flags().Bool("force", false, "respace every list regardless of rank length")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rebalanceCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	repair, _ := cmd.Flags().GetBool("repair")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	return checkStore(cmd.Context(), s, repair)
}

func checkStore(ctx context.Context, s *session, repair bool) error {
	data, err := s.store.Inspect()
	if err != nil {
		return err
	}
	problems := data.Check()
	s.printer.CheckResult(problems)
	if problems == nil {
		return nil
	}
	if !repair {
		return fmt.Errorf("%w: run with --repair to fix it", errInconsistent)
	}

	notes, err := s.store.Repair(ctx)
	if err != nil {
		return fmt.Errorf("repairing store: %w", err)
	}
	s.printer.Notes("repaired:", notes)

	data, err = s.store.Inspect()
	if err != nil {
		return err
	}
	if err := data.Check(); err != nil {
		s.printer.CheckResult(err)
		return errInconsistent
	}
	s.printer.Success("store repaired")
	return nil
}

func runRebalance(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	n, err := s.executor().Rebalance(cmd.Context(), force)
	if err != nil {
		return err
	}
	s.printer.Rebalanced(n)
	return nil
}
