package docker

import (
	"errors"
	"fmt"
	"strings"
)

// Docker工具相关错误
var (
	// ErrInvalidImageRef 无效的镜像引用
	ErrInvalidImageRef = errors.New("invalid image reference")
	// ErrInvalidRepoDigest 无效的仓库摘要
	ErrInvalidRepoDigest = errors.New("invalid repo digest")
)

// CommandError 容器命令执行失败
type CommandError struct {
	Command  []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Command, " "), e.Err)
	if detail := lastLine(e.Stderr); detail != "" {
		msg += ": " + detail
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// lastLine 取stderr中最后一个非空行，通常就是容器工具给出的错误原因
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
