package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/tsmr/internal/recorder"
	"github.com/SmitUplenchwar2687/tsmr/internal/server"
	"github.com/SmitUplenchwar2687/tsmr/internal/storage"
)

func newServeCmd() *cobra.Command {
	var (
		session    sessionOptions
		addr       string
		recordFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a measurement ring over HTTP",
		Long: `Starts an HTTP server around a single measurement ring.

Endpoints:
  GET  /                        Server info and current time
  GET  /health                  Health check
  POST /api/measurements        Insert a measurement (409 if out of order under --order reject)
  PUT  /api/measurements        Correct the record matching ts_ms and id (404 if none)
  GET  /api/measurements/:ts    Find the oldest record with a timestamp
  POST /api/extract?cutoff=&max= Extract records older than cutoff into the sink
  GET  /api/stats               Ring length, capacity, cursor and bounds
  GET  /dashboard/              Live visual dashboard
  WS   /ws                      WebSocket stream of extracted batches`,
		Example: `  tsmr serve
  tsmr serve --addr :9090 --capacity 1024 --order reject
  tsmr serve --sink redis --redis-host localhost:6379 --redis-stream cam:1
  tsmr serve --config tsmr.json --record session.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := session.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			g, err := newRing(cfg)
			if err != nil {
				return err
			}
			defer g.Close()

			sink, err := storage.New(cfg.Sink)
			if err != nil {
				return fmt.Errorf("creating %s sink: %w", cfg.Sink.Backend, err)
			}
			defer sink.Close()

			opts := server.Options{
				Sink: sink,
				Hub:  server.NewHub(),
			}
			if recordFile != "" {
				opts.Recorder = recorder.New(nil)
			}

			srv := server.New(cfg.Server.Addr, g, opts)

			log.Printf("Ring:      capacity=%d order=%s sink=%s", cfg.Ring.Capacity, cfg.Ring.OrderPolicy, cfg.Sink.Backend)
			log.Printf("Dashboard: http://localhost%s/dashboard/", cfg.Server.Addr)
			log.Printf("API:       http://localhost%s/api/measurements", cfg.Server.Addr)

			// Graceful shutdown on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Println("shutting down...")
				// Export recordings if enabled.
				if opts.Recorder != nil {
					log.Printf("exporting %d entries to %s", opts.Recorder.Len(), recordFile)
					if err := opts.Recorder.ExportFile(recordFile); err != nil {
						log.Printf("error exporting entries: %v", err)
					}
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	session.addFlags(cmd, false)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVar(&recordFile, "record", "", "record accepted inserts and corrections to a JSONL file (exported on shutdown)")

	return cmd
}
