package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keevingness/image-mirror/cmd/dispatch"
	"github.com/keevingness/image-mirror/cmd/mirror"
	"github.com/keevingness/image-mirror/cmd/plan"
	"github.com/keevingness/image-mirror/internal/actions"
)

// ErrNoCommand 在GitHub Actions之外直接运行根命令
var ErrNoCommand = errors.New(`a command is required, e.g. "image-mirror mirror"`)

// NewRootCmd 创建根命令
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "image-mirror",
		Short: "Mirror container images between registries",
		Long: `image-mirror pulls container images, retags them and pushes them to a target registry.

It runs as a GitHub Actions step (inputs are read from INPUT_* variables and
results are written to GITHUB_OUTPUT) or as a regular command line tool.`,
		Example: `  # 转存单个镜像
  image-mirror mirror --images '{"source":"alpine:3.18","target":"registry.example.com/alpine:3.18"}'

  # 从文件读取镜像列表
  image-mirror mirror --images-file images.json

  # 从docker-compose或k8s文件生成镜像列表
  image-mirror plan -f docker-compose.yaml --target-registry registry.example.com/mirror -o images.json

  # 触发远程转存工作流并等待结果
  image-mirror dispatch --images-file images.json`,
		Version:      version,
		SilenceUsage: true,
		// 作为Action入口时不带子命令，默认执行mirror
		RunE: func(cmd *cobra.Command, _ []string) error {
			if actions.FromEnv().InActions {
				return mirror.RunCommand(cmd)
			}
			_ = cmd.Help()
			return ErrNoCommand
		},
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintf(cmd.ErrOrStderr(), "错误: %v\n\n%s", err, cmd.UsageString())
		return err
	})

	root.AddCommand(mirror.NewCommand())
	root.AddCommand(plan.NewCommand())
	root.AddCommand(dispatch.NewCommand())

	return root
}

// Execute 执行命令并返回进程退出码
func Execute(version string) int {
	if err := NewRootCmd(version).Execute(); err != nil {
		return 1
	}
	return 0
}
