// Package actions 实现GitHub Actions的输出、作业摘要和注解命令
package actions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ErrDelimiterCollision 输出内容中包含了heredoc分隔符
var ErrDelimiterCollision = errors.New("output delimiter collision")

// Outputs 步骤输出
type Outputs interface {
	SetOutput(name, value string) error
}

// Environment GitHub Actions运行环境
type Environment struct {
	OutputPath  string // GITHUB_OUTPUT
	SummaryPath string // GITHUB_STEP_SUMMARY
	InActions   bool   // GITHUB_ACTIONS=true
	Stdout      io.Writer
}

// FromEnv 从环境变量读取Actions运行环境
func FromEnv() *Environment {
	return &Environment{
		OutputPath:  os.Getenv("GITHUB_OUTPUT"),
		SummaryPath: os.Getenv("GITHUB_STEP_SUMMARY"),
		InActions:   os.Getenv("GITHUB_ACTIONS") == "true",
		Stdout:      os.Stdout,
	}
}

// SetOutput 写入步骤输出
// 存在GITHUB_OUTPUT时使用heredoc格式追加到文件，否则以 name=value 打印到stdout
func (e *Environment) SetOutput(name, value string) error {
	if e.OutputPath == "" {
		_, err := fmt.Fprintf(e.stdout(), "%s=%s\n", name, value)
		return err
	}

	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) || strings.Contains(value, delimiter) {
		return fmt.Errorf("%w: output %q", ErrDelimiterCollision, name)
	}

	return appendFile(e.OutputPath, fmt.Sprintf("%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter))
}

// AppendSummary 追加Markdown到作业摘要，未设置GITHUB_STEP_SUMMARY时返回false
func (e *Environment) AppendSummary(markdown string) (bool, error) {
	if e.SummaryPath == "" {
		return false, nil
	}
	if err := appendFile(e.SummaryPath, markdown); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Environment) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
