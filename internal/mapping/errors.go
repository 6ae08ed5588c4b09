package mapping

import "errors"

// 镜像列表解析错误，均为致命错误
var (
	// ErrConfiguration images 与 images-file 配置错误
	ErrConfiguration = errors.New("configuration error")
	// ErrFormat 镜像列表不是合法的JSON对象或数组
	ErrFormat = errors.New("format error")
	// ErrValidation 镜像映射缺少必需字段
	ErrValidation = errors.New("validation error")
)
