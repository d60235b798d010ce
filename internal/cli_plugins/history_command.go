package cliplugins

import (
	"context"
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"backupwatch/internal/eventlog"

	"github.com/spf13/cobra"
)

type HistoryCommand struct {
	cmd     *cobra.Command
	globals *Globals
}

func NewHistoryCommand(globals *Globals) *HistoryCommand {
	return &HistoryCommand{globals: globals}
}

func (h *HistoryCommand) Meta() *cobra.Command {
	if h.cmd != nil {
		return h.cmd
	}
	h.cmd = &cobra.Command{
		Use:   "history <file>",
		Short: "List the archived copies of a file",
		Args:  cobra.ExactArgs(1),
	}
	return h.cmd
}

func (h *HistoryCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := h.globals.LoadConfig()
	if err != nil {
		return wrapLoad(err)
	}

	source, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", args[0], err)
	}

	db, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.BySource(source)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintf(out, "no archived copies of %s\n", source)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tREASON\tSIZE\tARCHIVE")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format(eventlog.TimeLayout), r.Reason, eventlog.FormatSize(r.Size), r.ArchivePath)
	}
	return tw.Flush()
}
