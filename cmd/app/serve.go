package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"crypto-persona-backend/cmd/app/internal/controller"
	"crypto-persona-backend/internal/catalog"
	"crypto-persona-backend/internal/config"
	"crypto-persona-backend/internal/locale"
	"crypto-persona-backend/internal/metrics"
	"crypto-persona-backend/internal/report"
	"crypto-persona-backend/internal/view"
	"crypto-persona-backend/pkg/middleware"
	"crypto-persona-backend/utilities"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.xml", "Path to the XML configuration")
	return cmd
}

func setupLogging(cfg *config.APIConfig) error {
	_, err := utilities.SetupLogging(utilities.LogOptions{
		Dir:        cfg.Log.Dir,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	return nil
}

func serve(configPath string) error {
	printStartUpBanner()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	defer utilities.Sync()

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	rec, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	views, err := view.New(cfg.Quiz.ScaleMax)
	if err != nil {
		return err
	}
	reports, err := report.NewRenderer(report.Options{
		FontPath:  cfg.Report.FontPath,
		FontName:  cfg.Report.FontName,
		StaticDir: cfg.Images.StaticDir,
		ScaleMax:  cfg.Quiz.ScaleMax,
		CacheSize: cfg.Report.CacheSize,
		PublicURL: cfg.Context.PublicURL,
		Metrics:   rec,
	})
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(), middleware.RequestIDMiddleware(), middleware.AccessLogMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(cfg.Context.AllowOrigins),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}

	bus := utilities.GlobalEventBus
	bus.Subscribe(utilities.EventQuizCompleted, func(data interface{}) {
		if res, ok := data.(controller.CompletedResult); ok {
			utilities.L().Info("result scored", zap.String("code", string(res.Code)), zap.String("route", res.Route))
		}
	})

	controller.RegisterRoutes(r, controller.Deps{
		Catalog:   cat,
		Views:     views,
		Reports:   reports,
		Locale:    locale.NewStore(cfg.Locale.CookieName),
		Metrics:   rec,
		Gatherer:  prometheus.DefaultGatherer,
		Bus:       bus,
		LockDelay: cfg.LockDelay(),
		ScaleMax:  cfg.Quiz.ScaleMax,
		PublicURL: cfg.Context.PublicURL,
		StaticDir: cfg.Images.StaticDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		utilities.Info("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	utilities.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	bus.Wait()
	return nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
