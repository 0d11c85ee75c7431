package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/core/logger"
)

// Boot 两个入口共用：读 .env 与配置，建 logger，并把 gin 和标准库 log 的输出接到 zap。
// 返回的 cleanup 在 main 退出前调用。
func Boot(name string) (*config.Config, *zap.Logger, func(), error) {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	log, flush := logger.FromConfig(cfg.Log, cfg.App.Env)
	log = log.Named(name)
	restore := logger.RedirectStdLog(log, zapcore.InfoLevel)

	if cfg.App.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	return cfg, log, func() {
		restore()
		flush()
	}, nil
}
