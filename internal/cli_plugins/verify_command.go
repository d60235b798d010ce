package cliplugins

import (
	"context"
	"errors"
	"fmt"

	"backupwatch/internal/catalog"

	"github.com/spf13/cobra"
)

var errVerifyFailed = errors.New("verification failed")

type VerifyCommand struct {
	cmd     *cobra.Command
	globals *Globals
}

func NewVerifyCommand(globals *Globals) *VerifyCommand {
	return &VerifyCommand{globals: globals}
}

func (v *VerifyCommand) Meta() *cobra.Command {
	if v.cmd != nil {
		return v.cmd
	}
	v.cmd = &cobra.Command{
		Use:   "verify",
		Short: "Check every archived copy against its recorded checksum",
		Args:  cobra.NoArgs,
	}
	v.cmd.Flags().Bool("prune", false, "drop catalog records whose archive file is gone")
	return v.cmd
}

func (v *VerifyCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	prune, err := cmd.Flags().GetBool("prune")
	if err != nil {
		return fmt.Errorf("flag --prune failed")
	}

	cfg, err := v.globals.LoadConfig()
	if err != nil {
		return wrapLoad(err)
	}

	db, err := openCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.All()
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := catalog.Verify(r)
		switch {
		case err == nil:
			fmt.Fprintf(out, "OK      %s\n", r.ArchivePath)
		case prune && errors.Is(err, catalog.ErrArchiveMissing):
			if err := db.Delete(r.ArchivePath); err != nil {
				return fmt.Errorf("failed to prune %s: %w", r.ArchivePath, err)
			}
			fmt.Fprintf(out, "PRUNED  %s\n", r.ArchivePath)
		default:
			failed++
			fmt.Fprintf(out, "FAILED  %s: %v\n", r.ArchivePath, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d archived copies", errVerifyFailed, failed, len(records))
	}
	fmt.Fprintf(out, "%d archived copies verified\n", len(records))
	return nil
}
