package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keevingness/image-mirror/internal/actions"
	"github.com/keevingness/image-mirror/internal/config"
	"github.com/keevingness/image-mirror/internal/logger"
	"github.com/keevingness/image-mirror/internal/mapping"
	mirrorer "github.com/keevingness/image-mirror/internal/mirror"
	"github.com/keevingness/image-mirror/internal/report"
	"github.com/keevingness/image-mirror/pkg/docker"
)

const mirrorLong = `Pull every source image, tag it as the target and push it.

The image list is a JSON object or array of {"source": ..., "target": ...}
mappings, passed inline with --images or read from --images-file (exactly one
of them). Inside GitHub Actions the inputs come from INPUT_IMAGES and
INPUT_IMAGES-FILE, and the results, success-count and total-count outputs are
written to GITHUB_OUTPUT.

A failed pull, tag or push only fails that image; the remaining images are
still mirrored. The command exits non-zero unless every image succeeded.`

// Deps mirror运行所需的外部协作者
type Deps struct {
	Runner   docker.CommandRunner
	Outputs  actions.Outputs
	Summary  report.SummaryWriter
	Console  io.Writer
	Logger   *zap.Logger
	ReadFile func(string) ([]byte, error)
}

// NewCommand 创建mirror命令
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror images from source to target registries",
		Long:  mirrorLong,
		Example: `  image-mirror mirror --images '[{"source":"alpine:3.18","target":"registry.example.com/alpine:3.18"}]'
  image-mirror mirror --images-file images.json --container-runtime podman`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return RunCommand(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String(config.KeyImages, "", "inline JSON image mapping object or array")
	flags.String(config.KeyImagesFile, "", "path to a JSON file with the image mappings")
	flags.String(config.KeyContainerRuntime, docker.DefaultRuntime, `container CLI to invoke, e.g. "podman" or "sudo docker"`)
	flags.Bool(config.KeyDebug, false, "enable debug logging")

	return cmd
}

// RunCommand 从cmd的参数和环境变量加载配置并执行转存
// 根命令在GitHub Actions中没有子命令时也走这里
func RunCommand(cmd *cobra.Command) error {
	env := actions.FromEnv()
	env.Stdout = cmd.OutOrStdout()

	var opts logger.Options
	if env.InActions {
		opts.Annotations = cmd.OutOrStdout()
	}

	cfg, err := config.LoadMirror(cmd.Flags())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "加载配置失败: %v\n", err)
		if log, logErr := logger.New(opts); logErr == nil {
			log.Error("Action failed with error", zap.Error(err))
			_ = log.Sync()
		}
		return err
	}

	opts.Debug = cfg.Debug
	log, err := logger.New(opts)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "初始化日志失败: %v\n", err)
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Debug("using container runtime", zap.String("runtime", cfg.ContainerRuntime))

	return Run(cmd.Context(), mapping.Inputs{Images: cfg.Images, ImagesFile: cfg.ImagesFile}, Deps{
		Runner:  docker.NewCLI(cfg.ContainerRuntime, cmd.OutOrStdout(), cmd.ErrOrStderr()),
		Outputs: env,
		Summary: env,
		Console: cmd.OutOrStdout(),
		Logger:  log,
	})
}

// Run 解析镜像列表、逐个转存并汇报结果
// 镜像列表无效时直接失败，不会调用任何容器命令
func Run(ctx context.Context, inputs mapping.Inputs, deps Deps) error {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	images, err := mapping.NewResolver(deps.ReadFile, log).Resolve(inputs)
	if err != nil {
		log.Error("Action failed with error", zap.Error(err))
		return err
	}

	summary := mirrorer.New(deps.Runner, log).Run(ctx, images)

	if err := report.New(deps.Outputs, deps.Summary, deps.Console, log).Report(summary); err != nil {
		if errors.Is(err, report.ErrIncomplete) {
			log.Error(fmt.Sprintf("Failed to sync %d out of %d image(s)", summary.FailedCount(), summary.TotalCount))
			return err
		}
		log.Error("Action failed with error", zap.Error(err))
		return err
	}

	return nil
}
