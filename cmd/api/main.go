package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tour-booking-api/internal/app"
	"tour-booking-api/internal/core/logger"
	"tour-booking-api/internal/core/server"
	"tour-booking-api/internal/transport/http/router"
)

func main() {
	cfg, log, cleanup, err := app.Boot("api")
	if err != nil {
		panic(err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	a, err := app.New(bctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	defer a.Close()

	h := cfg.App.HTTP
	srv := server.BuildServer(
		server.Addr(h.Host, h.Port),
		router.NewAPIEngine(log, cfg.Limits, a.APIRegistry()),
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)
	if el, e := logger.ToStdLogger(log, zapcore.WarnLevel); e == nil {
		srv.ErrorLog = el
	}

	log.Info("tour api up",
		zap.String("base", cfg.App.BaseURL),
		zap.String("api_v1", cfg.App.BaseURL+"/api/v1"),
		zap.String("driver", cfg.DB.Driver),
	)
	if err := server.Serve(ctx, srv, 10*time.Second, log); err != nil {
		log.Error("tour api stopped with error", zap.Error(err))
		return
	}
	log.Info("tour api stopped")
}
