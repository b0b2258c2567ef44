package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Filegraph/internal/client"
	"github.com/Ning0612/Filegraph/internal/config"
	"github.com/Ning0612/Filegraph/internal/logger"
	"github.com/Ning0612/Filegraph/internal/service"
	"github.com/Ning0612/Filegraph/internal/tui"
)

func runView(cmd *cobra.Command, args []string) error {
	// the alternate screen owns the terminal, so logs only go to the file
	settings := cfg.Log.Settings()
	settings.Console = "none"
	if err := initLogging(settings); err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	root, _ := cmd.Flags().GetString("root")
	watch, _ := cmd.Flags().GetBool("watch")
	noLabels, _ := cmd.Flags().GetBool("no-labels")

	viewer := service.NewViewer(c, service.ViewerConfig{
		Params:       cfg.Layout.Params(),
		MinScale:     cfg.View.MinScale,
		MaxScale:     cfg.View.MaxScale,
		TickInterval: cfg.Layout.TickInterval,
		IdleInterval: cfg.Layout.IdleInterval,
		Watch:        watch,
	}, logger.Get())
	defer viewer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, viewer, tui.Options{
		ShowLabels: cfg.View.ShowLabels && !noLabels,
		Root:       config.ExpandPath(root),
	})
}

func runFolders(cmd *cobra.Command, args []string) error {
	if err := initLogging(cfg.Log.Settings()); err != nil {
		return err
	}
	c, err := newClient()
	if err != nil {
		return err
	}
	folders, err := c.Folders(cmd.Context())
	if err != nil {
		return err
	}
	for _, f := range folders {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}

func newClient() (*client.Client, error) {
	return client.New(cfg.Client.ServerURL,
		client.WithTimeout(cfg.Client.DialTimeout),
		client.WithLogger(logger.Get()))
}
