package database

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tour-booking-api/internal/core/config"
	"tour-booking-api/internal/domain"
)

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

var gormLevels = map[string]logger.LogLevel{
	"silent": logger.Silent,
	"error":  logger.Error,
	"warn":   logger.Warn,
	"info":   logger.Info,
}

func dialector(o config.DB, l *zap.Logger) (gorm.Dialector, error) {
	switch o.Driver {
	case "postgres":
		return postgres.Open(o.DSN), nil
	case "mysql":
		dsn, err := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		if err != nil {
			return nil, err
		}
		if shown, err := gomysql.ParseDSN(dsn); err == nil && shown.Passwd != "" {
			shown.Passwd = "****"
			l.Info("mysql dsn", zap.String("dsn", shown.FormatDSN()))
		}
		return mysql.Open(dsn), nil
	}
	return nil, ErrUnsupportedDriver
}

// NewGorm 按 db.driver 打开 postgres / mysql；SQL 日志走 zap，慢于 200ms 的语句记 warn
func NewGorm(o config.DB, l *zap.Logger) (*gorm.DB, error) {
	dial, err := dialector(o, l)
	if err != nil {
		return nil, err
	}
	lvl, ok := gormLevels[o.LogLevel]
	if !ok {
		lvl = logger.Warn
	}
	sqlLog := logger.New(zap.NewStdLog(l.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:                 sqlLog,
		TranslateError:         true, // 唯一键冲突 -> gorm.ErrDuplicatedKey
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        200,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Driver, err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(o.MaxOpenConns)
	}
	pool.SetMaxIdleConns(o.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)

	if o.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	return db, nil
}

// Migrate 建表及索引（users.email 唯一、reviews(user_id, tour_id) 唯一）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Tour{}, &domain.Review{}, &domain.Booking{})
}

// normalizeMySQLDSN 接受 go-sql-driver 原生 DSN 或 jdbc:/mysql:// URL，
// 统一输出带 parseTime 与默认 charset 的原生 DSN
func normalizeMySQLDSN(input, user, pass string) (string, error) {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if in == "" {
		return "", nil
	}
	if strings.HasPrefix(in, "mysql://") {
		native, err := nativeFromURL(in)
		if err != nil {
			return "", err
		}
		in = native
	}
	cfg, err := gomysql.ParseDSN(in)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	if user != "" {
		cfg.User = user
	}
	if pass != "" {
		cfg.Passwd = pass
	}
	cfg.ParseTime = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if cfg.Params["charset"] == "" && cfg.Collation == "" {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

// nativeFromURL 把 Navicat/JDBC 风格的参数翻译成驱动参数
func nativeFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	q := u.Query()
	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	if v := q.Get("user"); v != "" {
		cfg.User = v
	}
	if v := q.Get("password"); v != "" {
		cfg.Passwd = v
	}
	if enc := q.Get("characterEncoding"); enc != "" && q.Get("charset") == "" {
		q.Set("charset", enc)
	}
	switch v := strings.ToLower(q.Get("useSSL")); v {
	case "":
	case "true", "1":
		q.Set("tls", "true")
	case "skip-verify", "preferred":
		q.Set("tls", v)
	default:
		q.Set("tls", "false")
	}
	if tz := q.Get("serverTimezone"); tz != "" {
		q.Set("loc", tz)
	}
	for _, k := range []string{"user", "password", "characterEncoding", "useUnicode", "zeroDateTimeBehavior", "useSSL", "serverTimezone"} {
		q.Del(k)
	}
	dsn := cfg.FormatDSN()
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn, nil
}
