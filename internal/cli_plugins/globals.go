package cliplugins

import (
	"errors"
	"fmt"

	"backupwatch/internal/catalog"
	"backupwatch/internal/config"
	"backupwatch/pkg/cli"

	"github.com/spf13/cobra"
)

var errCatalogDisabled = errors.New("no catalog configured, set --catalog or catalog in the config file")

// Globals holds the persistent flags shared by every command.
type Globals struct {
	ConfigPath string
	Catalog    string
}

func (g *Globals) Bind(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "path to the YAML config file (default $CONFIG_PATH)")
	root.PersistentFlags().StringVar(&g.Catalog, "catalog", "", "path to the archive catalog database")
}

// LoadConfig reads the config file and environment, then applies the
// global flags on top.
func (g *Globals) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(g.ConfigPath))
	if err != nil {
		return nil, err
	}
	if g.Catalog != "" {
		cfg.Catalog = g.Catalog
	}
	return cfg, nil
}

func openCatalog(path string) (*catalog.DB, error) {
	if path == "" {
		return nil, errCatalogDisabled
	}
	db, err := catalog.Open(catalog.Config{Path: path})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Register binds the global flags and adds every command to c.
func Register(c *cli.CLI) *Globals {
	g := &Globals{}
	g.Bind(c.RootCommand())

	c.RegisterPlugin(NewWatchCommand(g))
	c.RegisterPlugin(NewHistoryCommand(g))
	c.RegisterPlugin(NewVerifyCommand(g))
	c.RegisterPlugin(NewConfigCommand(g))

	return g
}

func wrapLoad(err error) error {
	return fmt.Errorf("failed to load config: %w", err)
}
