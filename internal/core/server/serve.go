package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Serve 阻塞到 ctx 取消（通常是收到 SIGINT/SIGTERM），之后在 grace 内优雅关闭。
// 监听失败会直接返回错误。
func Serve(ctx context.Context, srv *http.Server, grace time.Duration, l *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			l.Warn("shutdown", zap.Error(err))
			return err
		}
		return nil
	})
	return g.Wait()
}
