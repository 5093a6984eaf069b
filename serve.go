package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shyamjith/shyamjith-dev/internal/config"
	"github.com/shyamjith/shyamjith-dev/internal/contact"
	"github.com/shyamjith/shyamjith-dev/internal/content"
	"github.com/shyamjith/shyamjith-dev/internal/observability"
	"github.com/shyamjith/shyamjith-dev/internal/web"
)

const janitorInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portfolio web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ln, err := net.Listen("tcp", net.JoinHostPort("", cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listening on port %s: %w", cfg.Server.Port, err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, logger, ln)
}

// serve runs the site on ln until ctx is done, then drains in-flight
// requests within the configured shutdown timeout.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, ln net.Listener) error {
	portfolio, err := content.Load(cfg.ContentPath)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("loading content: %w", err)
	}

	sender, err := loadSender(cfg, logger)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("configuring contact provider: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	site, err := web.New(web.Deps{
		Config:    cfg,
		Portfolio: portfolio,
		Sender:    sender,
		Logger:    logger,
		Metrics:   metrics,
		Gatherer:  reg,
	})
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("building server: %w", err)
	}

	srv := &http.Server{
		Handler:           site.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("portfolio listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("contact_provider", cfg.Contact.Provider),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return site.Sessions().Run(ctx, janitorInterval)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// loadSender is shared with the send command.
func loadSender(cfg *config.Config, logger *zap.Logger) (contact.Sender, error) {
	return contact.NewSender(cfg.Contact.Provider, cfg.Providers(), nil, logger)
}
