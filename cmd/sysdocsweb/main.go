// Command sysdocsweb serves the backups page for one site.
//
// Usage: sysdocsweb -config /etc/sysdocs.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/EdGit97/sysdocs/web"
)

func main() {
	configPath := flag.String("config", "sysdocs.yaml", "path to the yaml config file")
	dev := flag.Bool("dev", false, "log in development format")
	flag.Parse()

	logger, err := buildLogger(*dev)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := web.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	server, err := web.NewServer(cfg, web.WithLogger(logger))
	if err != nil {
		logger.Fatal("server setup", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("serving", zap.String("addr", cfg.Listen), zap.String("siteRoot", cfg.SiteRoot))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
	logger.Info("stopped")
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
