package cliplugins

import (
	"context"
	"fmt"

	"backupwatch/internal/config"

	"github.com/spf13/cobra"
)

type ConfigCommand struct {
	cmd     *cobra.Command
	globals *Globals
}

func NewConfigCommand(globals *Globals) *ConfigCommand {
	return &ConfigCommand{globals: globals}
}

func (c *ConfigCommand) Meta() *cobra.Command {
	if c.cmd != nil {
		return c.cmd
	}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
	}
	c.cmd.Flags().Bool("env-help", false, "list the environment variables instead")
	return c.cmd
}

func (c *ConfigCommand) Execute(ctx context.Context, cmd *cobra.Command, args []string) error {
	envHelp, err := cmd.Flags().GetBool("env-help")
	if err != nil {
		return fmt.Errorf("flag --env-help failed")
	}

	out := cmd.OutOrStdout()
	if envHelp {
		text, err := config.Describe()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	}

	cfg, err := c.globals.LoadConfig()
	if err != nil {
		return wrapLoad(err)
	}
	data, err := config.Dump(cfg)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	_, err = out.Write(data)
	return err
}
