package yamlparser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 解析错误
var (
	ErrNotCompose = errors.New("not a docker-compose file")
	ErrNotK8s     = errors.New("not a kubernetes manifest")
)

// FileType YAML文件类型
type FileType string

const (
	// FileTypeUnknown 未知文件类型
	FileTypeUnknown FileType = "unknown"
	// FileTypeCompose docker-compose文件
	FileTypeCompose FileType = "compose"
	// FileTypeK8s Kubernetes文件
	FileTypeK8s FileType = "k8s"
)

// ParseFile 解析YAML文件并提取镜像
// 根据文件名选择优先尝试的解析器，失败后再尝试另一种
func ParseFile(filePath string) ([]string, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}

	first, second := ParseComposeFile, ParseK8sFile
	if DetectFileType(filePath) == FileTypeK8s {
		first, second = ParseK8sFile, ParseComposeFile
	}

	images, err := parseEither(filePath, first, second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return images, nil
}

// ParseContent 解析YAML内容并提取镜像
func ParseContent(content string, fileType FileType) ([]string, error) {
	first, second := ParseComposeContent, ParseK8sContent
	if fileType == FileTypeK8s {
		first, second = ParseK8sContent, ParseComposeContent
	}
	return parseEither(content, first, second)
}

func parseEither(input string, first, second func(string) ([]string, error)) ([]string, error) {
	images, firstErr := first(input)
	if firstErr == nil {
		return images, nil
	}

	images, err := second(input)
	if err == nil {
		return images, nil
	}

	return nil, fmt.Errorf("无法解析内容: 既不是有效的docker-compose内容，也不是有效的k8s内容: %w", errors.Join(firstErr, err))
}

// DetectFileType 根据文件名检测YAML文件类型
func DetectFileType(filePath string) FileType {
	base := strings.ToLower(filepath.Base(filePath))
	if strings.Contains(base, "compose") {
		return FileTypeCompose
	}
	if strings.Contains(base, "k8s") || strings.Contains(base, "kubernetes") ||
		strings.Contains(base, "deployment") || strings.Contains(base, "istio") {
		return FileTypeK8s
	}
	return FileTypeUnknown
}

// Unique 去重，保留首次出现的顺序
func Unique(images []string) []string {
	seen := make(map[string]struct{}, len(images))
	out := make([]string, 0, len(images))
	for _, image := range images {
		if _, ok := seen[image]; ok {
			continue
		}
		seen[image] = struct{}{}
		out = append(out, image)
	}
	return out
}
