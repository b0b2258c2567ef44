package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Ning0612/Filegraph/internal/config"
	"github.com/Ning0612/Filegraph/internal/logger"
)

var (
	configPath string

	// v carries defaults, env overrides and bound flags; the config file is read on top
	v   = config.NewViper()
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "filegraph",
		Short: "Explore a directory tree as a live force-directed graph",
		Long: `filegraph scans directories on a server and streams one record per file
to a terminal viewer that grows and lays out the tree as records arrive.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadWith(v, configPath)
			if err != nil {
				return err
			}
			cfg = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Shutdown()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the folder list and the record stream",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	viewCmd = &cobra.Command{
		Use:   "view",
		Short: "Open the interactive graph viewer",
		Args:  cobra.NoArgs,
		RunE:  runView,
	}

	foldersCmd = &cobra.Command{
		Use:   "folders",
		Short: "List the folders the server offers",
		Args:  cobra.NoArgs,
		RunE:  runFolders,
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop the server that owns the data directory",
		Args:  cobra.NoArgs,
		RunE:  runStop,
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent scans from the local history database",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search ./config.yaml, ./configs, ~/.config/filegraph)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	bind("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	serveCmd.Flags().String("addr", "", "listen address")
	serveCmd.Flags().StringSlice("folder", nil, "selectable scan root (repeatable)")
	serveCmd.Flags().Bool("allow-any-root", false, "accept roots outside the folder list")
	serveCmd.Flags().Int("workers", 0, "concurrent stat calls per scan")
	serveCmd.Flags().Bool("hidden", false, "include dotfiles and dot-directories")
	bind("server.addr", serveCmd.Flags().Lookup("addr"))
	bind("server.folders", serveCmd.Flags().Lookup("folder"))
	bind("server.allow_any_root", serveCmd.Flags().Lookup("allow-any-root"))
	bind("server.workers", serveCmd.Flags().Lookup("workers"))
	bind("server.include_hidden", serveCmd.Flags().Lookup("hidden"))

	rootCmd.PersistentFlags().String("server", "", "server URL for view and folders")
	bind("client.server_url", rootCmd.PersistentFlags().Lookup("server"))

	viewCmd.Flags().String("root", "", "open this root instead of the first folder")
	viewCmd.Flags().Bool("watch", false, "keep streaming files created after the initial scan")
	viewCmd.Flags().Bool("no-labels", false, "start with labels hidden")

	historyCmd.Flags().Int("limit", 20, "number of scans to show")
	historyCmd.Flags().String("root", "", "only show scans of this root")

	rootCmd.AddCommand(serveCmd, stopCmd, viewCmd, foldersCmd, historyCmd)
}

// bind ties a flag to a config key; only flags set on the command line override the file
func bind(key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind %s: %v", key, err))
	}
}
