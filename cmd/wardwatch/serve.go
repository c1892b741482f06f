package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"wardwatch/internal/adapters/httpapi"
	"wardwatch/internal/blob"
	"wardwatch/internal/core"
	"wardwatch/internal/sync"
	"wardwatch/pkg/domain"
)

// openService wires the store, blob driver and metrics into a service. The
// returned cleanup closes the store.
func openService(ctx context.Context, withBlobs bool) (*core.Service, func(), error) {
	store, err := core.OpenPersistentStore(domain.NewDefaultRulesEngine())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	opts := []core.Option{
		core.WithLogger(slog.Default()),
		core.WithMetricsRecorder(core.NewPrometheusMetricsRecorder(prometheus.DefaultRegisterer)),
	}
	if withBlobs {
		blobs, err := blob.Open(ctx)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("open blob store: %w", err)
		}
		opts = append(opts, core.WithBlobStore(blobs))
	}
	service := core.NewService(store, opts...)
	cleanup := func() {
		if err := store.Close(); err != nil {
			slog.Error("closing store", "error", err)
		}
	}
	return service, cleanup, nil
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr         string
		pullInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local API server with background sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			service, cleanup, err := openService(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			seeded, err := service.EnsureSeedData(ctx)
			if err != nil {
				return fmt.Errorf("seed units: %w", err)
			}
			if seeded > 0 {
				slog.Info("seeded unit catalog", "count", seeded)
			}
			if err := service.MarkPersistent(ctx, true); err != nil {
				return err
			}

			var coordinator *sync.Coordinator
			if flags.remoteURL != "" {
				client := sync.NewClient(flags.remoteURL, flags.timeout)
				coordinator = sync.NewCoordinator(service, client, sync.Config{
					Interval:   pullInterval,
					Logger:     slog.Default(),
					Registerer: prometheus.DefaultRegisterer,
				})
				service.SetSyncNotifier(coordinator)
				coordinator.Start(ctx)
				defer coordinator.Stop()
				if err := coordinator.PullNow(ctx); err != nil {
					slog.Warn("initial pull failed, continuing offline", "error", err)
				}
			} else {
				slog.Info("no remote endpoint configured, running offline")
			}

			mux := http.NewServeMux()
			var puller httpapi.Puller
			if coordinator != nil {
				puller = coordinator
			}
			mux.Handle("/api/", httpapi.NewHandler(service, puller))
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})

			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				slog.Info("listening", "addr", addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				slog.Info("shutting down")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().DurationVar(&pullInterval, "pull-interval", 5*time.Minute, "Interval between periodic pulls")
	return cmd
}

func pullCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the remote record set and merge it into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.remoteURL == "" {
				return fmt.Errorf("--remote-url is required")
			}
			ctx := cmd.Context()
			service, cleanup, err := openService(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			client := sync.NewClient(flags.remoteURL, flags.timeout)
			coordinator := sync.NewCoordinator(service, client, sync.Config{Logger: slog.Default()})
			if err := coordinator.PullNow(ctx); err != nil {
				return err
			}
			fmt.Println("pull complete")
			return nil
		},
	}
}

func pingCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Probe connectivity to the central server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.remoteURL == "" {
				return fmt.Errorf("--remote-url is required")
			}
			client := sync.NewClient(flags.remoteURL, flags.timeout)
			start := time.Now()
			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("ok (%s)\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func scoreCmd(_ *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Print the current ward scoreboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			service, cleanup, err := openService(ctx, false)
			if err != nil {
				return err
			}
			defer cleanup()

			scores, err := service.Scoreboard(ctx)
			if err != nil {
				return err
			}
			for i, row := range scores {
				fmt.Printf("%3d. %-40s %6.2f  %s\n", i+1, row.WardName, row.Score, row.Rank)
			}
			return nil
		},
	}
}

func archiveCmd(_ *globalFlags) *cobra.Command {
	var olderThanDays int

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Offload evidence payloads of old closed issues to the blob store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			service, cleanup, err := openService(ctx, true)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := service.ArchiveOldData(ctx, time.Duration(olderThanDays)*24*time.Hour)
			if err != nil {
				return err
			}
			usage, err := service.StorageUsage()
			if err != nil {
				return err
			}
			fmt.Printf("archived %d payloads, store size %d bytes\n", n, usage)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than-days", 90, "Only archive issues created at least this many days ago")
	return cmd
}
