package yamlparser

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ComposeConfig docker-compose.yaml配置结构
type ComposeConfig struct {
	Version  string                   `yaml:"version"`
	Services map[string]ServiceConfig `yaml:"services"`
}

// ServiceConfig docker-compose服务配置
type ServiceConfig struct {
	Image string `yaml:"image"`
}

// ParseComposeFile 解析docker-compose.yaml文件并提取所有镜像
func ParseComposeFile(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}

	return ParseComposeContent(string(data))
}

// ParseComposeContent 解析docker-compose.yaml内容并提取所有镜像，按服务名排序
func ParseComposeContent(content string) ([]string, error) {
	var config ComposeConfig
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return nil, fmt.Errorf("解析YAML内容失败: %w", err)
	}
	if config.Services == nil {
		return nil, fmt.Errorf("%w: no services section", ErrNotCompose)
	}

	names := make([]string, 0, len(config.Services))
	for name := range config.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	images := []string{}
	for _, name := range names {
		// 只有build没有image的服务是本地构建的，跳过
		if image := config.Services[name].Image; image != "" {
			images = append(images, image)
		}
	}

	return images, nil
}
