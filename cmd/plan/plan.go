package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/keevingness/image-mirror/internal/config"
	"github.com/keevingness/image-mirror/internal/types"
	"github.com/keevingness/image-mirror/pkg/docker"
	"github.com/keevingness/image-mirror/pkg/yamlparser"
)

// NewCommand 创建plan命令
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate an image list from docker-compose or Kubernetes files",
		Long: `Extract every image referenced by docker-compose or Kubernetes YAML files and
write a JSON image list that maps each image to the target registry. The
output can be passed to "mirror --images-file" or "dispatch --images-file".`,
		Example: `  image-mirror plan -f docker-compose.yaml --target-registry registry.example.com/mirror
  image-mirror plan -f k8s/deployment.yaml -f k8s/cronjob.yaml --target-registry harbor.local/infra -o images.json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadPlan(cmd.Flags())
			if err != nil {
				return err
			}
			return Run(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP(config.KeyFiles, "f", nil, "docker-compose or Kubernetes YAML file (repeatable)")
	flags.String(config.KeyTargetRegistry, "", "registry (and optional path prefix) the images are mirrored to")
	flags.StringP(config.KeyOutput, "o", "", "write the image list to this file instead of stdout")

	return cmd
}

// Run 解析所有文件并生成镜像列表
func Run(cfg *config.PlanConfig, stdout, stderr io.Writer) error {
	var images []string
	for _, file := range cfg.Files {
		found, err := yamlparser.ParseFile(file)
		if err != nil {
			return fmt.Errorf("解析文件失败: %w", err)
		}
		fmt.Fprintf(stderr, "从文件 %s 中解析出 %d 个镜像\n", file, len(found))
		images = append(images, found...)
	}

	mappings, err := Build(yamlparser.Unique(images), cfg.TargetRegistry)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if cfg.Output == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(cfg.Output, data, 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	fmt.Fprintf(stderr, "✅ 已将 %d 个镜像映射写入 %s\n", len(mappings), cfg.Output)
	return nil
}

// Build 将镜像改写到目标仓库下，生成镜像映射
func Build(images []string, targetRegistry string) ([]types.ImageMapping, error) {
	mappings := make([]types.ImageMapping, 0, len(images))
	for _, image := range images {
		target, err := docker.RetargetReference(image, targetRegistry)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, types.ImageMapping{Source: image, Target: target})
	}
	return mappings, nil
}
