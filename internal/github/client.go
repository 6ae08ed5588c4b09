package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/keevingness/image-mirror/internal/config"
	"github.com/keevingness/image-mirror/internal/mapping"
	"github.com/keevingness/image-mirror/internal/types"
)

// 工作流运行结论
const (
	ConclusionSuccess = "success"
)

// clockSkew 本地时间与GitHub服务器时间之间允许的偏差
const clockSkew = 2 * time.Minute

// ErrRunNotFound 还没有找到触发后创建的工作流运行
var ErrRunNotFound = errors.New("workflow run not found")

// Client GitHub客户端封装
type Client struct {
	client   *github.Client
	logger   *zap.Logger
	owner    string
	repo     string
	workflow string
	now      func() time.Time
}

// NewClient 创建新的GitHub客户端
func NewClient(cfg config.GitHubConfig, logger *zap.Logger) (*Client, error) {
	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client:   client,
		logger:   logger,
		owner:    cfg.Owner,
		repo:     cfg.Repo,
		workflow: cfg.Workflow,
		now:      time.Now,
	}, nil
}

// TriggerMirrorWorkflow 触发镜像转存工作流，镜像列表作为 images 输入传递
func (c *Client) TriggerMirrorWorkflow(ctx context.Context, ref string, images []types.ImageMapping) (*types.DispatchRequest, error) {
	encoded, err := mapping.Encode(images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}

	request := &types.DispatchRequest{
		Images:      images,
		Ref:         ref,
		TriggeredAt: c.now().UTC(),
	}

	// 记录触发前的运行，避免把并发触发的其他运行当成本次结果
	existing, err := c.listRuns(ctx, ref, request.TriggeredAt.Add(-clockSkew))
	if err != nil {
		return nil, err
	}
	for _, run := range existing {
		request.KnownRunIDs = append(request.KnownRunIDs, run.GetID())
	}

	event := github.CreateWorkflowDispatchEventRequest{
		Ref: ref,
		Inputs: map[string]interface{}{
			"images": encoded,
		},
	}

	_, err = c.client.Actions.CreateWorkflowDispatchEventByFileName(ctx, c.owner, c.repo, c.workflow, event)
	if err != nil {
		c.logger.Error("Failed to trigger GitHub workflow", zap.Error(err))
		return nil, fmt.Errorf("failed to trigger workflow: %w", err)
	}

	c.logger.Info("Successfully triggered mirror workflow",
		zap.String("workflow", c.workflow),
		zap.String("ref", ref),
		zap.Int("images", len(images)))

	return request, nil
}

// FindRun 查找触发后创建的工作流运行，取不在触发前快照中最新的一次
func (c *Client) FindRun(ctx context.Context, request *types.DispatchRequest) (*types.WorkflowRunStatus, error) {
	since := request.TriggeredAt.Add(-clockSkew)

	runs, err := c.listRuns(ctx, request.Ref, since)
	if err != nil {
		return nil, err
	}

	known := make(map[int64]struct{}, len(request.KnownRunIDs))
	for _, id := range request.KnownRunIDs {
		known[id] = struct{}{}
	}

	var match *github.WorkflowRun
	for _, run := range runs {
		if _, ok := known[run.GetID()]; ok {
			continue
		}
		created := run.GetCreatedAt().Time
		if created.Before(since) {
			continue
		}
		if match == nil || created.After(match.GetCreatedAt().Time) ||
			(created.Equal(match.GetCreatedAt().Time) && run.GetID() > match.GetID()) {
			match = run
		}
	}
	if match == nil {
		return nil, ErrRunNotFound
	}

	return toStatus(match), nil
}

func (c *Client) listRuns(ctx context.Context, ref string, since time.Time) ([]*github.WorkflowRun, error) {
	runs, _, err := c.client.Actions.ListWorkflowRunsByFileName(ctx, c.owner, c.repo, c.workflow,
		&github.ListWorkflowRunsOptions{
			Event:       "workflow_dispatch",
			Branch:      ref,
			Created:     ">=" + since.Format(time.RFC3339),
			ListOptions: github.ListOptions{PerPage: 100},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow runs: %w", err)
	}
	return runs.WorkflowRuns, nil
}

// GetRunStatus 获取工作流运行状态
func (c *Client) GetRunStatus(ctx context.Context, runID int64) (*types.WorkflowRunStatus, error) {
	run, _, err := c.client.Actions.GetWorkflowRunByID(ctx, c.owner, c.repo, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow run details: %w", err)
	}
	return toStatus(run), nil
}

// WaitForRun 轮询直到工作流运行结束，超时由ctx控制
// 每次获取到状态都会回调onUpdate
func (c *Client) WaitForRun(ctx context.Context, request *types.DispatchRequest, interval time.Duration, onUpdate func(*types.WorkflowRunStatus)) (*types.WorkflowRunStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var runID int64
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		var (
			status *types.WorkflowRunStatus
			err    error
		)
		if runID == 0 {
			status, err = c.FindRun(ctx, request)
		} else {
			status, err = c.GetRunStatus(ctx, runID)
		}

		if errors.Is(err, ErrRunNotFound) {
			c.logger.Debug("Workflow run not created yet")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("获取工作流状态失败", zap.Error(err))
			continue
		}

		runID = status.RunID
		if onUpdate != nil {
			onUpdate(status)
		}
		if status.Completed() {
			return status, nil
		}
	}
}

func toStatus(run *github.WorkflowRun) *types.WorkflowRunStatus {
	return &types.WorkflowRunStatus{
		RunID:      run.GetID(),
		Status:     run.GetStatus(),
		Conclusion: run.GetConclusion(),
		URL:        run.GetHTMLURL(),
	}
}
