package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matsen/refmerge/internal/merge"
	"github.com/matsen/refmerge/internal/storage"
	"github.com/matsen/refmerge/internal/web"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 10 * time.Second

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form",
	Long: `Serve the reference merger web form.

Endpoints:
  GET  /               upload form
  POST /merge          merge and show a result page with both downloads
  POST /merge/ris      merge and download merged_output.ris
  POST /merge/enw      merge and download merged_output.enw
  POST /api/merge      merge and return JSON
  GET  /healthz        liveness check

Examples:
  refmerge serve
  refmerge serve --addr :8080
  REFMERGE_MODE=normalized refmerge serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		exitWithError(ExitConfigError, "configuring logger: %v", err)
	}

	opts, err := cfg.MergeOptions()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	var hist storage.Store
	if cfg.HistoryDB != "" {
		if hist, err = storage.Open(cfg.HistoryDB); err != nil {
			exitWithError(ExitConfigError, "opening history: %v", err)
		}
	}

	srv := web.New(web.Options{
		Merger:         merge.New(opts),
		Store:          hist,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		SupportURL:     cfg.SupportURL,
	})
	httpSrv := srv.HTTPServer(cfg.ListenAddr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":    cfg.ListenAddr,
			"mode":    opts.Mode.String(),
			"history": cfg.HistoryDB != "",
		}).Info("serving reference merger")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	closeHistory(hist, logger)
	if err != nil {
		exitWithError(ExitError, "serving: %v", err)
	}
	return nil
}

// closeHistory closes the history store, if any, before the process exits.
func closeHistory(hist storage.Store, logger logrus.FieldLogger) {
	if hist == nil {
		return
	}
	if err := hist.Close(); err != nil {
		logger.WithError(err).Warn("closing history")
	}
}
