package docker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
)

// DefaultRuntime 默认的容器运行时命令
const DefaultRuntime = "docker"

// CommandRunner 容器命令行工具的调用接口
type CommandRunner interface {
	// Run 执行命令，输出透传给调用方的stdout/stderr
	Run(ctx context.Context, args ...string) error
	// Capture 执行命令并返回其标准输出
	Capture(ctx context.Context, args ...string) (string, error)
}

// CLI 通过os/exec调用容器运行时，如 docker、podman 或 "sudo docker"
type CLI struct {
	runtime []string
	stdout  io.Writer
	stderr  io.Writer
}

// NewCLI 创建容器运行时调用器
func NewCLI(runtime string, stdout, stderr io.Writer) *CLI {
	// 分割容器运行时命令，支持多词命令如 "sudo docker"
	parts := strings.Fields(runtime)
	if len(parts) == 0 {
		parts = []string{DefaultRuntime}
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	return &CLI{
		runtime: parts,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// Runtime 返回完整的运行时命令
func (c *CLI) Runtime() string {
	return strings.Join(c.runtime, " ")
}

// Run 执行容器命令，stdout/stderr透传
func (c *CLI) Run(ctx context.Context, args ...string) error {
	var stderr bytes.Buffer
	cmd := c.command(ctx, args)
	cmd.Stdout = c.stdout
	cmd.Stderr = io.MultiWriter(c.stderr, &stderr)

	if err := cmd.Run(); err != nil {
		return c.wrap(args, err, stderr.String())
	}
	return nil
}

// Capture 执行容器命令并捕获stdout
func (c *CLI) Capture(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := c.command(ctx, args)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), c.wrap(args, err, stderr.String())
	}
	return stdout.String(), nil
}

func (c *CLI) command(ctx context.Context, args []string) *exec.Cmd {
	full := append(append([]string{}, c.runtime[1:]...), args...)
	return exec.CommandContext(ctx, c.runtime[0], full...)
}

func (c *CLI) wrap(args []string, err error, stderr string) error {
	cmdErr := &CommandError{
		Command:  append(append([]string{}, c.runtime...), args...),
		ExitCode: -1,
		Stderr:   stderr,
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	return cmdErr
}
