package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"go.uber.org/zap"

	"tour-booking-api/internal/app"
	"tour-booking-api/internal/core/server"
	"tour-booking-api/internal/transport/http/router"
)

// 后台只开在内网端口，所有路由都要求 admin 角色
func main() {
	cfg, log, cleanup, err := app.Boot("admin")
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

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr,
		router.NewAdminEngine(log, cfg.Limits, a.Guards, a.AdminRegistry()),
		5*time.Second, 10*time.Second, 60*time.Second)

	log.Info("admin api up", zap.String("admin_v1", "http://"+addr+"/admin/v1"))
	if err := server.Serve(ctx, srv, 10*time.Second, log); err != nil {
		log.Error("admin api stopped with error", zap.Error(err))
		return
	}
	log.Info("admin api stopped")
}
