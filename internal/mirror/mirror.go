// Package mirror 逐个拉取、重新标记并推送镜像
package mirror

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/keevingness/image-mirror/internal/types"
	"github.com/keevingness/image-mirror/pkg/docker"
)

// inspect模板
const (
	digestFormat = "--format={{index .RepoDigests 0}}"
	sizeFormat   = "--format={{.Size}}"
)

// Mirrorer 镜像转存器
type Mirrorer struct {
	runner docker.CommandRunner
	logger *zap.Logger
}

// New 创建镜像转存器
func New(runner docker.CommandRunner, logger *zap.Logger) *Mirrorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirrorer{runner: runner, logger: logger}
}

// Run 按顺序转存所有镜像，单个镜像失败不会中断后续镜像
func (m *Mirrorer) Run(ctx context.Context, images []types.ImageMapping) *types.RunSummary {
	summary := &types.RunSummary{
		Results:    make([]types.MirrorResult, 0, len(images)),
		TotalCount: len(images),
	}

	m.logger.Info(fmt.Sprintf("Starting mirror process for %d image(s)", len(images)))

	for i, image := range images {
		m.logger.Info(fmt.Sprintf("--- Processing image %d/%d ---", i+1, len(images)),
			zap.String("source", image.Source),
			zap.String("target", image.Target))

		result := m.mirrorOne(ctx, image)
		if result.Succeeded() {
			summary.SuccessCount++
		}
		summary.Results = append(summary.Results, result)
	}

	return summary
}

// mirrorOne 转存单个镜像，错误被记录到结果中而不是返回
func (m *Mirrorer) mirrorOne(ctx context.Context, image types.ImageMapping) types.MirrorResult {
	result := types.MirrorResult{
		Source: image.Source,
		Target: image.Target,
	}

	if err := m.transfer(ctx, image); err != nil {
		m.logger.Error(fmt.Sprintf("❌ Failed to mirror %s -> %s", image.Source, image.Target), zap.Error(err))
		result.Status = types.StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Digest, result.Size = m.inspect(ctx, image.Target)
	result.Status = types.StatusSuccess

	m.logger.Info(fmt.Sprintf("✅ Successfully mirrored: %s -> %s", image.Source, image.Target),
		zap.String("digest", result.Digest),
		zap.String("size", result.Size))
	return result
}

// transfer 拉取源镜像、重新标记并推送到目标仓库
func (m *Mirrorer) transfer(ctx context.Context, image types.ImageMapping) error {
	m.logger.Info("Pulling source image", zap.String("image", image.Source))
	if err := m.runner.Run(ctx, "pull", image.Source); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}

	m.logger.Info("Tagging image", zap.String("image", image.Target))
	if err := m.runner.Run(ctx, "tag", image.Source, image.Target); err != nil {
		return fmt.Errorf("tag failed: %w", err)
	}

	m.logger.Info("Pushing to target registry", zap.String("image", image.Target))
	if err := m.runner.Run(ctx, "push", image.Target); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	return nil
}

// inspect 获取已推送镜像的摘要和大小，失败时只告警
func (m *Mirrorer) inspect(ctx context.Context, ref string) (digest, size string) {
	out, err := m.runner.Capture(ctx, "inspect", digestFormat, ref)
	if err != nil {
		m.logger.Warn("Could not retrieve image info", zap.String("image", ref), zap.Error(err))
		return "", ""
	}
	digest = strings.TrimSpace(out)

	if digest != "" {
		if _, _, err := docker.ParseRepoDigest(digest); err != nil {
			m.logger.Warn("Unexpected repo digest format", zap.String("image", ref), zap.Error(err))
		}
	}

	out, err = m.runner.Capture(ctx, "inspect", sizeFormat, ref)
	if err != nil {
		m.logger.Warn("Could not retrieve image info", zap.String("image", ref), zap.Error(err))
		return digest, ""
	}
	size = strings.TrimSpace(out)

	if _, err := strconv.ParseInt(size, 10, 64); err != nil {
		m.logger.Warn("Unexpected image size", zap.String("image", ref), zap.String("size", size))
	}

	return digest, size
}
