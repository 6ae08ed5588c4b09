package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/keevingness/image-mirror/pkg/docker"
)

// EnvPrefix 命令行场景下环境变量前缀
const EnvPrefix = "MIRROR"

// 配置键
const (
	KeyImages           = "images"
	KeyImagesFile       = "images-file"
	KeyContainerRuntime = "container-runtime"
	KeyDebug            = "debug"

	KeyGitHubToken    = "github.token"
	KeyGitHubOwner    = "github.owner"
	KeyGitHubRepo     = "github.repo"
	KeyGitHubWorkflow = "github.workflow"
	KeyGitHubRef      = "github.ref"
	KeyGitHubBaseURL  = "github.base-url"
	KeyPollInterval   = "poll-interval"
	KeyTimeout        = "timeout"

	KeyFiles          = "files"
	KeyTargetRegistry = "target-registry"
	KeyOutput         = "output"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid configuration")

// MirrorConfig mirror命令配置
type MirrorConfig struct {
	Images           string `mapstructure:"images"`
	ImagesFile       string `mapstructure:"images-file"`
	ContainerRuntime string `mapstructure:"container-runtime"`
	Debug            bool   `mapstructure:"debug"`
}

// DispatchConfig dispatch命令配置
type DispatchConfig struct {
	Images       string        `mapstructure:"images"`
	ImagesFile   string        `mapstructure:"images-file"`
	GitHub       GitHubConfig  `mapstructure:"github"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Debug        bool          `mapstructure:"debug"`
}

// GitHubConfig GitHub相关配置
type GitHubConfig struct {
	Token    string `mapstructure:"token"`
	Owner    string `mapstructure:"owner"`
	Repo     string `mapstructure:"repo"`
	Workflow string `mapstructure:"workflow"`
	Ref      string `mapstructure:"ref"`
	BaseURL  string `mapstructure:"base-url"`
}

// PlanConfig plan命令配置
type PlanConfig struct {
	Files          []string `mapstructure:"files"`
	TargetRegistry string   `mapstructure:"target-registry"`
	Output         string   `mapstructure:"output"`
}

// envName 命令行场景的环境变量名，如 images-file -> MIRROR_IMAGES_FILE
func envName(key string) string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return EnvPrefix + "_" + strings.ToUpper(r.Replace(key))
}

// actionsEnvName GitHub Actions传入的输入变量名，如 images-file -> INPUT_IMAGES-FILE
func actionsEnvName(key string) string {
	return "INPUT_" + strings.ToUpper(key)
}

// bind 绑定命令行参数和环境变量，flag为空表示没有对应参数
func bind(v *viper.Viper, flags *pflag.FlagSet, key, flag string, envs ...string) error {
	if flag != "" && flags != nil {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}
	if len(envs) == 0 {
		return nil
	}
	if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
		return fmt.Errorf("bind env %s: %w", key, err)
	}
	return nil
}

// LoadMirror 加载mirror命令配置
// 优先级：命令行参数 > Actions输入(INPUT_*) > MIRROR_* 环境变量 > 默认值
func LoadMirror(flags *pflag.FlagSet) (*MirrorConfig, error) {
	v := viper.New()
	v.SetDefault(KeyContainerRuntime, docker.DefaultRuntime)

	for _, key := range []string{KeyImages, KeyImagesFile, KeyContainerRuntime} {
		if err := bind(v, flags, key, key, actionsEnvName(key), envName(key)); err != nil {
			return nil, err
		}
	}
	if err := bind(v, flags, KeyDebug, KeyDebug, "RUNNER_DEBUG", envName(KeyDebug)); err != nil {
		return nil, err
	}

	cfg := &MirrorConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.ContainerRuntime = strings.TrimSpace(cfg.ContainerRuntime)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置
// images与images-file的互斥关系由镜像列表解析器检查
func (c *MirrorConfig) Validate() error {
	if c.ContainerRuntime == "" {
		return fmt.Errorf("%w: container runtime is required", ErrInvalidConfig)
	}
	return nil
}

// LoadDispatch 加载dispatch命令配置
func LoadDispatch(flags *pflag.FlagSet) (*DispatchConfig, error) {
	v := viper.New()
	v.SetDefault(KeyGitHubRepo, "image-mirror")
	v.SetDefault(KeyGitHubWorkflow, "image-mirror.yaml")
	v.SetDefault(KeyGitHubRef, "main")
	v.SetDefault(KeyPollInterval, 10*time.Second)
	v.SetDefault(KeyTimeout, 30*time.Minute)

	bindings := []struct {
		key, flag string
		envs      []string
	}{
		{KeyImages, KeyImages, []string{envName(KeyImages)}},
		{KeyImagesFile, KeyImagesFile, []string{envName(KeyImagesFile)}},
		{KeyGitHubToken, "", []string{envName(KeyGitHubToken), "GITHUB_TOKEN"}},
		{KeyGitHubOwner, "owner", []string{envName(KeyGitHubOwner)}},
		{KeyGitHubRepo, "repo", []string{envName(KeyGitHubRepo)}},
		{KeyGitHubWorkflow, "workflow", []string{envName(KeyGitHubWorkflow)}},
		{KeyGitHubRef, "ref", []string{envName(KeyGitHubRef)}},
		{KeyGitHubBaseURL, "", []string{envName(KeyGitHubBaseURL)}},
		{KeyPollInterval, KeyPollInterval, []string{envName(KeyPollInterval)}},
		{KeyTimeout, KeyTimeout, []string{envName(KeyTimeout)}},
		{KeyDebug, KeyDebug, []string{envName(KeyDebug)}},
	}
	for _, b := range bindings {
		if err := bind(v, flags, b.key, b.flag, b.envs...); err != nil {
			return nil, err
		}
	}

	cfg := &DispatchConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置
func (c *DispatchConfig) Validate() error {
	if c.GitHub.Token == "" {
		return fmt.Errorf("%w: github token is required", ErrInvalidConfig)
	}
	if c.GitHub.Owner == "" {
		return fmt.Errorf("%w: github owner is required", ErrInvalidConfig)
	}
	if c.GitHub.Repo == "" {
		return fmt.Errorf("%w: github repo is required", ErrInvalidConfig)
	}
	if c.GitHub.Workflow == "" {
		return fmt.Errorf("%w: github workflow is required", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	if c.Timeout < c.PollInterval {
		return fmt.Errorf("%w: timeout must not be shorter than poll interval", ErrInvalidConfig)
	}
	return nil
}

// LoadPlan 加载plan命令配置
func LoadPlan(flags *pflag.FlagSet) (*PlanConfig, error) {
	v := viper.New()

	for _, key := range []string{KeyFiles, KeyTargetRegistry, KeyOutput} {
		if err := bind(v, flags, key, key, envName(key)); err != nil {
			return nil, err
		}
	}

	cfg := &PlanConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置
func (c *PlanConfig) Validate() error {
	if len(c.Files) == 0 {
		return fmt.Errorf("%w: at least one manifest file is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.TargetRegistry) == "" {
		return fmt.Errorf("%w: target registry is required", ErrInvalidConfig)
	}
	return nil
}
