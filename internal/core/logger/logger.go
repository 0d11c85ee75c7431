package logger

import (
	"bytes"
	"io"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"tour-booking-api/internal/core/config"
)

// FromConfig 返回带 env 字段的 logger 及退出前要调用的 flush
// json=false 时用彩色控制台格式（本地开发）；log.file 非空时再 tee 一份到切割文件
func FromConfig(c config.Log, env string) (*zap.Logger, func()) {
	lvl := zapcore.InfoLevel
	if c.Level != "" {
		if err := lvl.Set(c.Level); err != nil {
			lvl = zapcore.InfoLevel
		}
	}
	enc := encoder(c.JSON)

	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)}
	var rot *lumberjack.Logger
	if c.File != "" {
		rot = &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    atLeast(c.MaxSizeMB, 1),
			MaxBackups: atLeast(c.MaxBackups, 0),
			MaxAge:     atLeast(c.MaxAgeDays, 0),
			Compress:   c.Compress,
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(rot), lvl))
	}

	// 每秒同一条消息前 100 条全记，之后每 100 条记 1 条
	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if !c.JSON {
		opts = append(opts, zap.Development())
	}
	l := zap.New(core, opts...).With(zap.String("env", env))

	return l, func() {
		_ = l.Sync()
		if rot != nil {
			_ = rot.Close()
		}
	}
}

func encoder(json bool) zapcore.Encoder {
	if json {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "ts"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(ec)
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func atLeast(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

// lineWriter 每行一条日志，给 gin.DefaultWriter 之类只认 io.Writer 的地方用
type lineWriter struct {
	l   *zap.Logger
	lvl zapcore.Level
}

func (w lineWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\r\n"), []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}
		if ce := w.l.Check(w.lvl, string(line)); ce != nil {
			ce.Write()
		}
	}
	return len(p), nil
}

func ToWriter(l *zap.Logger, lvl zapcore.Level) io.Writer { return lineWriter{l: l, lvl: lvl} }

// ToStdLogger 给 http.Server.ErrorLog 用
func ToStdLogger(l *zap.Logger, lvl zapcore.Level) (*log.Logger, error) {
	return zap.NewStdLogAt(l, lvl)
}

// RedirectStdLog 返回值用于恢复标准库 log 的输出
func RedirectStdLog(l *zap.Logger, lvl zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, lvl)
	if err != nil {
		return func() {}
	}
	return undo
}
