package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ddk/internal/changes"
	"github.com/papapumpkin/ddk/internal/ui"
)

var applyCmd = &cobra.Command{
	Use:   "apply [file|-]",
	Short: "Apply a JSON change set to the store",
	Long: `Reads a change set ({"changes": [{"type": "AddWorkspace", ...}, ...]}) from a
file or stdin and applies it as one batch. Either every change is saved or
none is.

With --dry-run the batch is applied in memory and the resulting store is
printed without saving anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().Bool("dry-run", false, "print the resulting store without saving it")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	src := "-"
	if len(args) == 1 {
		src = args[0]
	}
	raw, err := readInput(cmd.InOrStdin(), src)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	return applyChangeSet(cmd.Context(), s, raw, dryRun, cmd.OutOrStdout())
}

func applyChangeSet(ctx context.Context, s *session, raw []byte, dryRun bool, out io.Writer) error {
	var cs changes.ChangeSet
	if err := json.Unmarshal(raw, &cs); err != nil {
		return fmt.Errorf("decoding change set: %w", err)
	}
	if len(cs.Changes) == 0 {
		s.printer.Info("change set is empty")
		return nil
	}

	exec := s.executor()
	if dryRun {
		tx, err := exec.DryRun(ctx, cs)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.RenderStore(tx.Data, tx.Compilers, ui.StoreOptions{}))
		s.printer.Info(fmt.Sprintf("dry run: %d change(s) not saved", len(cs.Changes)))
		return nil
	}

	if err := exec.Execute(ctx, cs); err != nil {
		return err
	}
	s.printer.ChangeSetApplied(len(cs.Changes))
	return nil
}

// readInput reads src, or r when src is "-".
func readInput(r io.Reader, src string) ([]byte, error) {
	if src == "-" {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	return raw, nil
}
