package logger

import (
	"context"
	"errors"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold 超过该耗时的 SQL 以 Warn 级别输出
const SlowQueryThreshold = 200 * time.Millisecond

// GormLogger 将 gorm 的日志输出到 zap。
type GormLogger struct {
	log      *Logger
	LogLevel gormlogger.LogLevel
}

func NewGormLogger(l *Logger, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{log: l, LogLevel: level}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{log: l.log, LogLevel: level}
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Info {
		l.log.Info(msg, "data", data)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Warn {
		l.log.Warn(msg, "data", data)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Error {
		l.log.Error(msg, "data", data)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []interface{}{"sql", sql, "latency", elapsed, "rows", rows}

	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.LogLevel >= gormlogger.Error:
		l.log.Error("sql error", append(fields, "err", err)...)
	case elapsed > SlowQueryThreshold && l.LogLevel >= gormlogger.Warn:
		l.log.Warn("slow sql", fields...)
	case l.LogLevel >= gormlogger.Info:
		l.log.Debug("sql", fields...)
	}
}
