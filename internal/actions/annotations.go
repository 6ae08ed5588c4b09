package actions

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// annotationCore 将Warn及以上级别的日志转为 ::warning:: / ::error:: 工作流命令
type annotationCore struct {
	zapcore.LevelEnabler
	mu     *sync.Mutex
	w      io.Writer
	fields []zapcore.Field
}

// NewAnnotationCore 创建注解日志核心，通常与控制台核心一起通过zapcore.NewTee使用
func NewAnnotationCore(w io.Writer) zapcore.Core {
	return &annotationCore{
		LevelEnabler: zapcore.WarnLevel,
		mu:           &sync.Mutex{},
		w:            w,
	}
}

func (c *annotationCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(c.fields[:len(c.fields):len(c.fields)], fields...)
	return &clone
}

func (c *annotationCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *annotationCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	msg := ent.Message
	for _, f := range append(c.fields[:len(c.fields):len(c.fields)], fields...) {
		if f.Type != zapcore.ErrorType {
			continue
		}
		if err, ok := f.Interface.(error); ok && err != nil {
			msg += ": " + err.Error()
		}
	}

	command := "warning"
	if ent.Level >= zapcore.ErrorLevel {
		command = "error"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "::%s::%s\n", command, escapeData(msg))
	return err
}

func (c *annotationCore) Sync() error {
	return nil
}

var dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// escapeData 按工作流命令的规则转义消息内容
func escapeData(s string) string {
	return dataEscaper.Replace(s)
}
