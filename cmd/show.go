package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ddk/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the workspaces and the group project",
	RunE:  runShow,
}

var compilersCmd = &cobra.Command{
	Use:   "compilers",
	Short: "List the configured compilers",
	RunE:  runCompilers,
}

func init() {
	showCmd.Flags().Bool("ids", false, "show workspace, link and project ids")
	showCmd.Flags().Bool("ranks", false, "show ranks")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(compilersCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	ids, _ := cmd.Flags().GetBool("ids")
	ranks, _ := cmd.Flags().GetBool("ranks")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	out := ui.RenderStore(s.store.Load(), s.store.LoadCompilers(), ui.StoreOptions{IDs: ids, Ranks: ranks})
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runCompilers(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderCompilers(s.store.LoadCompilers()))
	return nil
}
