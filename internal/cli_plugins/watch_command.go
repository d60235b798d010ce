package cliplugins

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"backupwatch/internal/catalog"
	"backupwatch/internal/config"
	"backupwatch/internal/eventlog"
	"backupwatch/internal/pipeline"
	"backupwatch/internal/util/logger"
	"backupwatch/internal/util/logger/sl"

	"github.com/spf13/cobra"
)

type WatchCommand struct {
	cmd     *cobra.Command
	globals *Globals
}

func NewWatchCommand(globals *Globals) *WatchCommand {
	return &WatchCommand{globals: globals}
}

func (w *WatchCommand) Meta() *cobra.Command {
	if w.cmd != nil {
		return w.cmd
	}
	w.cmd = &cobra.Command{
		Use:   "watch [path]",
		Short: "Archive a copy of every changed file",
		Long: "Watches path (default: the current directory) and copies every created, " +
			"modified or moved file matching the patterns into the archive directory " +
			"until interrupted.",
		Args: cobra.MaximumNArgs(1),
	}
	w.cmd.Flags().StringP("backup-dir", "b", "", "archive directory")
	w.cmd.Flags().String("log-file", "", "log file name inside the archive directory")
	w.cmd.Flags().StringSliceP("pattern", "p", nil, "file name glob to archive (repeatable)")
	w.cmd.Flags().StringSliceP("ignore", "i", nil, "file name glob to skip (repeatable)")
	w.cmd.Flags().BoolP("recursive", "r", true, "watch subdirectories")
	w.cmd.Flags().Bool("case-sensitive", false, "case sensitive pattern matching")
	w.cmd.Flags().Bool("ignore-directories", true, "drop events for directories")
	w.cmd.Flags().Duration("settle-delay", config.DefaultSettleDelay, "pause between a change and its backup")
	w.cmd.Flags().Bool("coalesce", false, "collapse repeated writes to one file within the settle delay")
	return w.cmd
}

func (w *WatchCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := w.globals.LoadConfig()
	if err != nil {
		return wrapLoad(err)
	}
	if err := applyWatchFlags(cmd, &cfg.Watch); err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	log := logger.Setup(cfg.Env, cmd.ErrOrStderr())

	var recorder pipeline.Recorder
	if cfg.Catalog != "" {
		db, err := openCatalog(cfg.Catalog)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("failed to close catalog", sl.Err(err))
			}
		}()
		recorder = catalog.NewRecorder(db)
	}

	p := pipeline.New(pipeline.Options{
		Logger:   log,
		Recorder: recorder,
	})
	if err := p.Start(ctx, root, cfg.Watch); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printBanner(out, p.Session(), cfg.Watch)
	log.Debug("watching", slog.String("root", p.Session().Root), slog.Any("patterns", cfg.Watch.Patterns))

	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nStopping...")
	case <-p.Done():
	}
	p.Stop()

	printStats(out, p.Session(), p.LogPath(), p.Stats())

	return p.Err()
}

// applyWatchFlags overrides cfg with the flags given on the command line.
func applyWatchFlags(cmd *cobra.Command, cfg *config.Watch) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("backup-dir") {
		if cfg.BackupDir, err = flags.GetString("backup-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("log-file") {
		if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
			return err
		}
	}
	if flags.Changed("pattern") {
		if cfg.Patterns, err = flags.GetStringSlice("pattern"); err != nil {
			return err
		}
	}
	if flags.Changed("ignore") {
		if cfg.IgnorePatterns, err = flags.GetStringSlice("ignore"); err != nil {
			return err
		}
	}
	if flags.Changed("recursive") {
		if cfg.Recursive, err = flags.GetBool("recursive"); err != nil {
			return err
		}
	}
	if flags.Changed("case-sensitive") {
		if cfg.CaseSensitive, err = flags.GetBool("case-sensitive"); err != nil {
			return err
		}
	}
	if flags.Changed("ignore-directories") {
		if cfg.IgnoreDirectories, err = flags.GetBool("ignore-directories"); err != nil {
			return err
		}
	}
	if flags.Changed("settle-delay") {
		if cfg.SettleDelay, err = flags.GetDuration("settle-delay"); err != nil {
			return err
		}
	}
	if flags.Changed("coalesce") {
		if cfg.Coalesce, err = flags.GetBool("coalesce"); err != nil {
			return err
		}
	}
	return nil
}

const rule = "============================================================"

func printBanner(out io.Writer, s eventlog.Session, cfg config.Watch) {
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "BACKUPWATCH")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "Watching:          %s\n", s.Root)
	fmt.Fprintf(out, "Archive directory: %s\n", s.ArchiveDir)
	fmt.Fprintf(out, "Patterns:          %s\n", strings.Join(cfg.Patterns, ", "))
	fmt.Fprintf(out, "Ignored:           %s\n", strings.Join(cfg.IgnorePatterns, ", "))
	fmt.Fprintf(out, "Session:           %s\n", s.ID)
	fmt.Fprintln(out, "Press Ctrl+C to stop.")
	fmt.Fprintln(out, strings.Repeat("-", len(rule)))
}

func printStats(out io.Writer, s eventlog.Session, logPath string, st pipeline.Stats) {
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "STATISTICS")
	fmt.Fprintf(out, "  Watched directory: %s\n", s.Root)
	fmt.Fprintf(out, "  Archive directory: %s\n", s.ArchiveDir)
	fmt.Fprintf(out, "  Event log:         %s\n", logPath)
	fmt.Fprintf(out, "  Events: %d (filtered %d)\n", st.Events, st.Filtered)
	fmt.Fprintf(out, "  Backups: %d (%s)\n", st.Backups, eventlog.FormatSize(st.Bytes))
	fmt.Fprintf(out, "  Warnings: %d, errors: %d\n", st.Warnings, st.Errors)
	fmt.Fprintln(out, rule)
}
