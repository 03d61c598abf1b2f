package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/ddk/internal/storage"
	"github.com/papapumpkin/ddk/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report changes made to the store files",
	Long: `Watches the store directory and reports every settled change to the project
or compiler store, noting whether another process made it. With --show the
store is printed again after each change. Stops on interrupt.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("show", false, "print the store after each change")
	watchCmd.Flags().Duration("debounce", storage.DefaultDebounce, "quiet period before a change is reported")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	show, _ := cmd.Flags().GetBool("show")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	w, err := storage.NewWatcher(s.store, debounce)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watching %s: %w", s.store.Dir(), err)
	}
	defer w.Stop()

	s.printer.Info(fmt.Sprintf("watching %s (interrupt to stop)", s.store.Dir()))
	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.printer.Info(describeEvent(evt))
			if show && !evt.Removed {
				fmt.Fprintln(cmd.OutOrStdout(), ui.RenderStore(s.store.Load(), s.store.LoadCompilers(), ui.StoreOptions{}))
			}
		}
	}
}

func describeEvent(evt storage.Event) string {
	switch {
	case evt.Removed:
		return evt.File + " was removed"
	case evt.External:
		return evt.File + " changed by another process"
	default:
		return evt.File + " saved"
	}
}
