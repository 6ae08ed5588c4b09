// Package mapping 解析并校验待转存的镜像列表
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/keevingness/image-mirror/internal/types"
)

// Inputs 镜像列表的两个互斥来源
type Inputs struct {
	Images     string // 内联JSON
	ImagesFile string // JSON文件路径
}

// Resolver 镜像列表解析器
type Resolver struct {
	readFile func(string) ([]byte, error)
	logger   *zap.Logger
}

// NewResolver 创建解析器，readFile为空时使用os.ReadFile
func NewResolver(readFile func(string) ([]byte, error), logger *zap.Logger) *Resolver {
	if readFile == nil {
		readFile = os.ReadFile
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{readFile: readFile, logger: logger}
}

// Resolve 从 images 或 images-file 中得到校验过的镜像列表
func (r *Resolver) Resolve(in Inputs) ([]types.ImageMapping, error) {
	if in.Images == "" && in.ImagesFile == "" {
		return nil, fmt.Errorf(`%w: either "images" or "images-file" input must be provided`, ErrConfiguration)
	}
	if in.Images != "" && in.ImagesFile != "" {
		return nil, fmt.Errorf(`%w: only one of "images" or "images-file" inputs should be provided, not both`, ErrConfiguration)
	}

	source := "images input"
	content := []byte(in.Images)
	if in.ImagesFile != "" {
		source = "images file: " + in.ImagesFile
		r.logger.Info("reading images from file", zap.String("path", in.ImagesFile))

		data, err := r.readFile(in.ImagesFile)
		if err != nil {
			return nil, formatError(source, err)
		}
		content = data
	}

	images, err := Parse(content)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, formatError(source, err)
	}
	return images, nil
}

// Parse 解析单个映射对象或映射数组，并校验每个映射
func Parse(data []byte) ([]types.ImageMapping, error) {
	var list mappingList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}

	for _, m := range list {
		if m.Source == "" || m.Target == "" {
			return nil, fmt.Errorf(`%w: each image mapping must have "source" and "target" properties`, ErrValidation)
		}
	}
	return []types.ImageMapping(list), nil
}

// Encode 将镜像列表编码为紧凑JSON，作为工作流输入
func Encode(images []types.ImageMapping) (string, error) {
	if images == nil {
		images = []types.ImageMapping{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// mappingList 可以是单个映射对象，也可以是映射数组
type mappingList []types.ImageMapping

func (l *mappingList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("unexpected end of JSON input")
	}

	switch trimmed[0] {
	case '{':
		var single types.ImageMapping
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*l = mappingList{single}
	case '[':
		var many []types.ImageMapping
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		if many == nil {
			many = []types.ImageMapping{}
		}
		*l = many
	default:
		return fmt.Errorf("expected JSON object or array, got %q", firstToken(trimmed))
	}
	return nil
}

func formatError(source string, err error) error {
	return fmt.Errorf("%w: invalid images format in %s. Expected JSON array or object: %v", ErrFormat, source, err)
}

func firstToken(data []byte) string {
	if len(data) > 16 {
		return string(data[:16]) + "..."
	}
	return string(data)
}
