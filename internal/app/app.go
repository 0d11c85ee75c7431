// Package app 组装两个进程共用的依赖：存储、缓存、邮件、支付、服务与路由模块。
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tour-booking-api/internal/core/auth"
	"tour-booking-api/internal/core/cache"
	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/core/database"
	"tour-booking-api/internal/core/mailer"
	"tour-booking-api/internal/core/payment"
	"tour-booking-api/internal/domain"
	"tour-booking-api/internal/repo"
	"tour-booking-api/internal/repo/mongostore"
	"tour-booking-api/internal/service"
	"tour-booking-api/internal/transport/http/handler"
	"tour-booking-api/internal/transport/http/router"
)

type Stores struct {
	Users    domain.UserRepository
	Tours    domain.TourRepository
	Reviews  domain.ReviewRepository
	Bookings domain.BookingRepository
}

type App struct {
	Cfg *config.Config
	Log *zap.Logger

	Auth     *service.AuthService
	Users    *service.UserService
	Tours    *service.TourService
	Reviews  *service.ReviewService
	Bookings *service.BookingService
	Guards   handler.Guards

	closers []func()
}

// New 失败时已打开的资源会被关闭
func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (_ *App, err error) {
	a := &App{Cfg: cfg, Log: l}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	a.closers = append(a.closers, func() { _ = c.Close() })
	if c.Enabled() {
		if perr := c.Ping(ctx); perr != nil {
			// 缓存不可用不影响启动，读取时会回源
			l.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(perr))
		}
	}

	m, err := mailer.FromConfig(cfg.Mail, l)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	gw := payment.FromConfig(cfg.Payment, l)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
		Leeway: time.Duration(cfg.JWT.LeewaySec) * time.Second,
	}

	a.Auth = service.NewAuthService(st.Users, jwter, m, cfg.Auth, cfg.App, l)
	a.closers = append(a.closers, a.Auth.Wait)
	agg := service.NewRatingAggregator(st.Reviews, st.Tours, c, l)
	a.Users = service.NewUserService(st.Users, l)
	a.Tours = service.NewTourService(st.Tours, st.Reviews, c, time.Duration(cfg.Redis.TourTTLSec)*time.Second, l)
	a.Reviews = service.NewReviewService(st.Reviews, st.Tours, agg)
	a.Bookings = service.NewBookingService(st.Bookings, st.Tours, st.Users, gw, cfg.Payment.ImageBaseURL, l)

	a.Guards = handler.NewGuards(a.Auth, cfg.JWT.CookieName, router.AuthLimiter(cfg.Limits), l)
	return a, nil
}

func (a *App) openStores(ctx context.Context) (Stores, error) {
	cfg := a.Cfg
	if cfg.DB.Driver == "mongo" {
		client, db, err := database.NewMongo(ctx, cfg.Mongo, a.Log)
		if err != nil {
			return Stores{}, err
		}
		a.closers = append(a.closers, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		})
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			return Stores{}, fmt.Errorf("mongo indexes: %w", err)
		}
		a.Log.Info("database connected", zap.String("driver", "mongo"), zap.String("db", cfg.Mongo.Database))
		return Stores{
			Users:    mongostore.NewUserStore(db),
			Tours:    mongostore.NewTourStore(db),
			Reviews:  mongostore.NewReviewStore(db),
			Bookings: mongostore.NewBookingStore(db),
		}, nil
	}

	db, err := database.NewGorm(cfg.DB, a.Log)
	if err != nil {
		return Stores{}, err
	}
	if sqlDB, e := db.DB(); e == nil {
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}
	a.Log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	return Stores{
		Users:    repo.NewUserRepo(db),
		Tours:    repo.NewTourRepo(db),
		Reviews:  repo.NewReviewRepo(db),
		Bookings: repo.NewBookingRepo(db),
	}, nil
}

// APIRegistry 用户端 /api/v1 模块
func (a *App) APIRegistry() *router.Registry {
	k := handler.CookiesFrom(a.Cfg.JWT, a.Cfg.App)
	return (&router.Registry{}).Register(
		handler.NewAuthHandler(a.Auth, k, a.Guards, a.Cfg.App.BaseURL),
		handler.NewUserHandler(a.Users, a.Guards),
		handler.NewTourHandler(a.Tours, a.Reviews, a.Guards),
		handler.NewReviewHandler(a.Reviews, a.Guards),
		handler.NewBookingHandler(a.Bookings, a.Guards, a.Cfg.App.BaseURL),
	)
}

// AdminRegistry 管理端 /admin/v1 模块
func (a *App) AdminRegistry() *router.Registry {
	return (&router.Registry{}).Register(
		handler.NewAdminUserHandler(a.Users, a.Guards),
		handler.NewBookingHandler(a.Bookings, a.Guards, a.Cfg.App.BaseURL),
	)
}

// Close 逆序释放；会先等待后台邮件发完
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
