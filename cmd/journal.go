package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ddk/internal/config"
	"github.com/papapumpkin/ddk/internal/journal"
	"github.com/papapumpkin/ddk/internal/ui"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "View the change-set journal",
	Long: `Reads and formats the JSONL journal of applied and failed change sets.

With --follow (-f), watches the file for new events (like tail -f).`,
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(journalCmd)
}

func runJournal(cmd *cobra.Command, _ []string) error {
	follow, _ := cmd.Flags().GetBool("follow")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path := cfg.JournalPath()
	p := ui.NewTo(cmd.ErrOrStderr())

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		p.Info("no journal at " + path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	if err := printJournal(cmd.OutOrStdout(), p, f); err != nil {
		return fmt.Errorf("journal: read %s: %w", path, err)
	}
	if !follow {
		return nil
	}
	return tailFollow(cmd.Context(), cmd.OutOrStdout(), p, f, path)
}

// printJournal formats every event in r. Malformed lines are reported and
// skipped.
func printJournal(w io.Writer, p *ui.Printer, r io.Reader) error {
	return journal.Scan(r, func(evt journal.Event, err error) error {
		if err != nil {
			p.Warn(err.Error())
			return nil
		}
		fmt.Fprintln(w, ui.FormatEvent(evt))
		return nil
	})
}

// tailFollow watches the file for new data using fsnotify and prints new
// events until ctx is done. A line is printed once its newline arrives.
func tailFollow(ctx context.Context, w io.Writer, p *ui.Printer, f *os.File, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("journal: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("journal: watch %s: %w", path, err)
	}

	reader := bufio.NewReader(f)
	var pending []byte
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			for {
				chunk, err := reader.ReadBytes('\n')
				pending = append(pending, chunk...)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return fmt.Errorf("journal: read %s: %w", path, err)
				}
				printLine(w, p, pending)
				pending = nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("journal: watcher error: %w", err)
		}
	}
}

func printLine(w io.Writer, p *ui.Printer, line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	evt, err := journal.Decode(line)
	if err != nil {
		p.Warn(err.Error())
		return
	}
	fmt.Fprintln(w, ui.FormatEvent(evt))
}
