package logger

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/keevingness/image-mirror/internal/actions"
)

// Options 日志配置
type Options struct {
	Debug bool
	// Annotations 不为空时，Warn及以上级别的日志同时输出为工作流注解命令
	Annotations io.Writer
}

// New 初始化日志记录器
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	}
	// CI日志里控制台格式比JSON更易读
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stdout"}
	cfg.DisableStacktrace = !opts.Debug

	var buildOpts []zap.Option
	if opts.Annotations != nil {
		annotations := actions.NewAnnotationCore(opts.Annotations)
		buildOpts = append(buildOpts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, annotations)
		}))
	}

	logger, err := cfg.Build(buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("创建日志记录器失败: %w", err)
	}

	return logger, nil
}
