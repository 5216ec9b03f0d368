// Package logger 创建统一格式的 logrus 日志记录器
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
type Config struct {
	Level      string `mapstructure:"level"`       // 日志级别：debug, info, warn, error
	File       string `mapstructure:"file"`        // 日志文件路径，空则只输出到控制台
	MaxSize    int    `mapstructure:"max_size"`    // 单个日志文件大小上限（MB）
	MaxBackups int    `mapstructure:"max_backups"` // 保留的旧文件数量
	MaxAge     int    `mapstructure:"max_age"`     // 旧文件保留天数
}

// New 创建 JSON 格式的日志记录器
// 控制台输出写到 console，命令行的标准输出留给处理结果
func New(cfg Config, console io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetLevel(ParseLevel(cfg.Level))

	// DEBUG=true 时强制输出调试日志
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logrus.DebugLevel)
	}

	if console == nil {
		console = os.Stderr
	}
	if cfg.File == "" {
		logger.SetOutput(console)
		return logger
	}

	logger.SetOutput(io.MultiWriter(console, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	}))
	return logger
}

// ParseLevel 解析日志级别，无法识别时使用 info
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
