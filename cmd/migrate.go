package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ddk/internal/migrate"
	"github.com/papapumpkin/ddk/internal/storage"
)

var errStoreNotEmpty = errors.New("store already has workspaces")

var migrateCmd = &cobra.Command{
	Use:   "migrate <v1.json>",
	Short: "Import a legacy JSON store",
	Long: `Converts a version 1 JSON store into the current format and saves it as the
project store. Compiler entries found in the legacy file are merged into the
compiler store. An existing store with workspaces is only replaced with --force.`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("force", false, "replace a store that already has workspaces")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	return migrateV1(cmd.Context(), s, raw, force)
}

func migrateV1(ctx context.Context, s *session, raw []byte, force bool) error {
	var workspaces, projects int
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		if len(tx.Data.Workspaces) > 0 && !force {
			return fmt.Errorf("%w: rerun with --force to replace it", errStoreNotEmpty)
		}
		data, compilers, err := migrate.FromV1(raw, tx.Compilers, s.log)
		if err != nil {
			return err
		}
		tx.Data = data
		tx.Compilers = compilers
		workspaces, projects = len(data.Workspaces), len(data.Projects)
		return nil
	})
	if err != nil {
		return err
	}
	s.printer.Success(fmt.Sprintf("imported %d workspace(s) and %d project(s)", workspaces, projects))
	return nil
}
