package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keevingness/image-mirror/internal/config"
	"github.com/keevingness/image-mirror/internal/github"
	"github.com/keevingness/image-mirror/internal/logger"
	"github.com/keevingness/image-mirror/internal/mapping"
	"github.com/keevingness/image-mirror/internal/types"
)

// ErrWorkflowFailed 远程工作流没有成功结束
var ErrWorkflowFailed = errors.New("mirror workflow did not succeed")

// WorkflowClient 触发并等待远程转存工作流
type WorkflowClient interface {
	TriggerMirrorWorkflow(ctx context.Context, ref string, images []types.ImageMapping) (*types.DispatchRequest, error)
	WaitForRun(ctx context.Context, request *types.DispatchRequest, interval time.Duration, onUpdate func(*types.WorkflowRunStatus)) (*types.WorkflowRunStatus, error)
}

// NewCommand 创建dispatch命令
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Trigger the mirror workflow on GitHub and wait for it",
		Long: `Validate the image list locally, trigger the mirror workflow through
workflow_dispatch with the list as its "images" input, then poll the run until
it completes.

GitHub settings come from the environment:
  MIRROR_GITHUB_TOKEN (or GITHUB_TOKEN)  access token
  MIRROR_GITHUB_OWNER                    repository owner
  MIRROR_GITHUB_REPO                     repository (default image-mirror)
  MIRROR_GITHUB_WORKFLOW                 workflow file (default image-mirror.yaml)
  MIRROR_GITHUB_REF                      git ref (default main)`,
		Example: `  image-mirror dispatch --images '{"source":"nginx:1.25","target":"registry.example.com/nginx:1.25"}'
  image-mirror dispatch --images-file images.json --timeout 1h`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String(config.KeyImages, "", "inline JSON image mapping object or array")
	flags.String(config.KeyImagesFile, "", "path to a JSON file with the image mappings")
	flags.String("owner", "", "repository owner hosting the mirror workflow")
	flags.String("repo", "", "repository hosting the mirror workflow")
	flags.String("workflow", "", "workflow file name")
	flags.String("ref", "", "git ref to run the workflow on")
	flags.Duration(config.KeyPollInterval, 0, "interval between status checks (default 10s)")
	flags.Duration(config.KeyTimeout, 0, "maximum time to wait for the workflow (default 30m)")
	flags.Bool(config.KeyDebug, false, "enable debug logging")

	return cmd
}

func runCommand(cmd *cobra.Command) error {
	cfg, err := config.LoadDispatch(cmd.Flags())
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	log, err := logger.New(logger.Options{Debug: cfg.Debug})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	client, err := github.NewClient(cfg.GitHub, log)
	if err != nil {
		return err
	}

	// 设置信号处理，允许用户中断轮询
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Run(ctx, cfg, client, cmd.OutOrStdout(), log)
}

// Run 解析镜像列表，触发工作流并等待其完成
func Run(ctx context.Context, cfg *config.DispatchConfig, client WorkflowClient, out io.Writer, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	images, err := mapping.NewResolver(nil, log).Resolve(mapping.Inputs{
		Images:     cfg.Images,
		ImagesFile: cfg.ImagesFile,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "待转存镜像 %d 个:\n", len(images))
	for i, image := range images {
		fmt.Fprintf(out, "%d. %s -> %s\n", i+1, image.Source, image.Target)
	}

	request, err := client.TriggerMirrorWorkflow(ctx, cfg.GitHub.Ref, images)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "工作流已触发，正在等待工作流执行完成...")

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	last := ""
	final, err := client.WaitForRun(waitCtx, request, cfg.PollInterval, func(status *types.WorkflowRunStatus) {
		line := fmt.Sprintf("工作流状态: %s", status.Status)
		if status.Conclusion != "" {
			line += fmt.Sprintf(", 结论: %s", status.Conclusion)
		}
		if line != last {
			fmt.Fprintln(out, line)
			last = line
		}
	})
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(out, "⏰ 等待工作流完成超时")
		return fmt.Errorf("timed out after %s waiting for the mirror workflow: %w", cfg.Timeout, err)
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "收到中断信号，停止轮询")
		return err
	case err != nil:
		return err
	}

	if final.Conclusion != github.ConclusionSuccess {
		fmt.Fprintf(out, "❌ 镜像转存失败: %s\n", final.Conclusion)
		fmt.Fprintf(out, "工作流详情: %s\n", final.URL)
		return fmt.Errorf("%w: conclusion %q", ErrWorkflowFailed, final.Conclusion)
	}

	fmt.Fprintln(out, "✅ 镜像转存成功!")
	fmt.Fprintf(out, "工作流详情: %s\n", final.URL)
	return nil
}
