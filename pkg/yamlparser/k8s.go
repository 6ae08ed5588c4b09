package yamlparser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseK8sFile 解析Kubernetes YAML文件并提取所有镜像
func ParseK8sFile(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}

	return ParseK8sContent(string(data))
}

// ParseK8sContent 解析Kubernetes YAML内容（支持多文档）并提取所有镜像
func ParseK8sContent(content string) ([]string, error) {
	decoder := yaml.NewDecoder(strings.NewReader(content))

	images := []string{}
	hasValidResource := false

	for {
		var doc map[string]interface{}
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析YAML失败: %w", err)
		}
		if doc == nil {
			continue
		}

		// 检查是否是有效的Kubernetes资源
		_, hasAPIVersion := doc["apiVersion"]
		_, hasKind := doc["kind"]
		if !hasAPIVersion || !hasKind {
			continue
		}
		hasValidResource = true

		if kind, _ := doc["kind"].(string); kind == "List" {
			items, _ := doc["items"].([]interface{})
			for _, item := range items {
				if m, ok := item.(map[string]interface{}); ok {
					images = append(images, imagesFromResource(m)...)
				}
			}
			continue
		}
		images = append(images, imagesFromResource(doc)...)
	}

	if !hasValidResource {
		return nil, fmt.Errorf("%w: 没有找到有效的Kubernetes资源", ErrNotK8s)
	}

	return images, nil
}

func imagesFromResource(resource map[string]interface{}) []string {
	spec, ok := resource["spec"].(map[string]interface{})
	if !ok {
		return nil
	}
	return extractImagesFromSpec(spec)
}

// extractImagesFromSpec 从spec中提取镜像
func extractImagesFromSpec(spec map[string]interface{}) []string {
	var images []string

	// Pod spec
	for _, key := range []string{"initContainers", "containers", "ephemeralContainers"} {
		if containers, ok := spec[key].([]interface{}); ok {
			images = append(images, extractImagesFromContainerList(containers)...)
		}
	}

	// Deployment, StatefulSet, DaemonSet, Job 等资源的 template.spec
	if template, ok := spec["template"].(map[string]interface{}); ok {
		if podSpec, ok := template["spec"].(map[string]interface{}); ok {
			images = append(images, extractImagesFromSpec(podSpec)...)
		}
	}

	// CronJob 的 jobTemplate.spec.template.spec
	if jobTemplate, ok := spec["jobTemplate"].(map[string]interface{}); ok {
		if jobSpec, ok := jobTemplate["spec"].(map[string]interface{}); ok {
			images = append(images, extractImagesFromSpec(jobSpec)...)
		}
	}

	return images
}

// extractImagesFromContainerList 从容器列表中提取镜像
func extractImagesFromContainerList(containers []interface{}) []string {
	var images []string

	for _, container := range containers {
		if containerMap, ok := container.(map[string]interface{}); ok {
			if image, ok := containerMap["image"].(string); ok && image != "" {
				images = append(images, image)
			}
		}
	}

	return images
}
