/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bytekit/internal/logger"
	"github.com/ssargent/bytekit/pkg/config"
	"github.com/ssargent/bytekit/pkg/storage"
)

type appKey struct{}

// app carries the resolved configuration and logger to subcommands.
type app struct {
	cfg *config.Config
	log logger.Logger
}

// NewRootCmd builds the bytekit command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bytekit",
		Short: "bytekit - binary struct codec and embedded tree store",
		Long: `bytekit packs and unpacks binary records described by compact format
strings and stores them in named, ordered trees backed by pebble.

Format directives: b B h H l L T f d (numbers), c<N> (fixed bytes),
s (u16 length-prefixed bytes), < > = (byte order).`,
		SilenceUsage:      true,
		PersistentPreRunE: loadApp,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	flags.StringP("data-dir", "d", "", "Data directory for the store (overrides config)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flags.String("log-format", "", "Log format: text or json (overrides config)")

	rootCmd.AddCommand(
		newPackCmd(),
		newUnpackCmd(),
		newGetCmd(),
		newPutCmd(),
		newDeleteCmd(),
		newScanCmd(),
		newTreesCmd(),
		newDropCmd(),
		newChecksumCmd(),
		newExportCmd(),
		newImportCmd(),
		newIDCmd(),
		newInitCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp resolves configuration from the config file, falling back to
// defaults, then applies flag overrides.
func loadApp(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	switch {
	case configPath != "":
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	case config.ConfigExists(config.GetDefaultConfigPath()):
		loaded, err := config.LoadConfig(config.GetDefaultConfigPath())
		if err != nil {
			return err
		}
		cfg = loaded
	default:
		cfg = config.DefaultConfig()
	}

	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Build(cmd.ErrOrStderr(), cfg.Logging.Format, cfg.Logging.Level)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithContext(ctx, log)
	cmd.SetContext(context.WithValue(ctx, appKey{}, &app{cfg: cfg, log: log}))
	return nil
}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return a, nil
}

// openDB opens the store configured for this invocation. Callers close it.
func openDB(cmd *cobra.Command) (*storage.DB, error) {
	a, err := appFrom(cmd)
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(a.cfg.DataDir, storage.Options{
		Sync:   a.cfg.Storage.Sync,
		Codec:  a.cfg.NewCodec(),
		Logger: a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return db, nil
}

// withDB opens the store, runs fn and closes the store.
func withDB(cmd *cobra.Command, fn func(db *storage.DB) error) error {
	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// treeFlag resolves --tree. Reads use LookupTree so that a typo does not
// silently create an empty tree.
func treeFlag(cmd *cobra.Command, db *storage.DB, create bool) (*storage.Tree, error) {
	name, _ := cmd.Flags().GetString("tree")
	if create {
		return db.OpenTree(name)
	}
	return db.LookupTree(name)
}

func addTreeFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("tree", "t", storage.DefaultTreeName, "Tree to operate on")
}
