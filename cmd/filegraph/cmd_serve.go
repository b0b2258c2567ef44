package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Ning0612/Filegraph/internal/daemon"
	"github.com/Ning0612/Filegraph/internal/logger"
	"github.com/Ning0612/Filegraph/internal/server"
	"github.com/Ning0612/Filegraph/internal/state"
)

func runServe(cmd *cobra.Command, args []string) error {
	if err := initLogging(cfg.Log.Settings()); err != nil {
		return err
	}
	log := logger.With("component", "serve")

	folders, err := cfg.Server.ResolveFolders()
	if err != nil {
		return err
	}
	if len(folders) == 0 && !cfg.Server.AllowAnyRoot {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("no folders configured and cwd unavailable: %w", err)
		}
		log.Info("no folders configured, serving the working directory", "folder", cwd)
		cfg.Server.Folders = []string{cwd}
	}

	pid := daemon.NewPIDFile(daemon.PathIn(cfg.Server.DataDir))
	if err := pid.Acquire(cfg.Server.Addr); err != nil {
		return err
	}
	defer pid.Release()

	history, err := state.NewManager(cfg.Server.DataDir)
	if err != nil {
		return err
	}
	defer history.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Options{
		Folders:       cfg.Server.ResolveFolders,
		AllowAnyRoot:  cfg.Server.AllowAnyRoot,
		Workers:       cfg.Server.Workers,
		IncludeHidden: cfg.Server.IncludeHidden,
		History:       history,
		Logger:        logger.Get(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting", "addr", cfg.Server.Addr, "folders", len(folders), "data_dir", cfg.Server.DataDir)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// initLogging installs the process-wide logger
func initLogging(s logger.Settings) error {
	if err := logger.Init(logger.FromSettings(s)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	info, err := daemon.NewPIDFile(daemon.PathIn(cfg.Server.DataDir)).Stop()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stopped server pid %d on %s\n", info.PID, info.Addr)
	return nil
}
