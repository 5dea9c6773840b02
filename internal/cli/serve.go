package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "github.com/bnema/retell/internal/adapter/http"
	"github.com/bnema/retell/internal/service"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the job workers",
	Long: `Serve the job API on PORT and process queued jobs with WORKERS
goroutines. Jobs left running by a previous process are re-queued on start.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("app.close_failed", "error", err)
		}
	}()

	port := cfg.Port
	if servePort > 0 {
		port = servePort
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	pool := service.NewWorkerPool(a.ledger, a.pipeline, cfg.Workers, cfg.JobTimeout, log)
	pool.Start(workerCtx)

	srv := httpadapter.NewServer(a.jobs, a.events, cfg.MaxUploadSizeMB, log)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.starting", "port", port, "workers", cfg.Workers, "data_dir", cfg.DataDir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-cmd.Context().Done():
		log.Info("server.shutting_down")
	case serveErr = <-errCh:
		log.Error("server.failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server.shutdown_failed", "error", err)
	}

	workerCancel()
	pool.Wait()
	log.Info("server.stopped")
	return serveErr
}
