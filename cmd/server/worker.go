package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"zoskagram/internal/cache"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume post events and keep the feed cache current",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.connectRedis(ctx, "zoskagram-worker"); err != nil {
			return err
		}

		manager := newWorkerManager(a, a.repos(), cache.NewFeedCache(a.redis.Client, a.log))
		if err := manager.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		a.log.Info("Shutting down worker")
		manager.Stop()
		return nil
	},
}
