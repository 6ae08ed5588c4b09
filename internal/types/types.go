package types

import "time"

// 镜像转存结果状态
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ImageMapping 源镜像到目标镜像的映射
type ImageMapping struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// MirrorResult 单个镜像的转存结果
type MirrorResult struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Digest string `json:"digest"`
	Size   string `json:"size"`
	Status string `json:"status"` // success, failed
	Error  string `json:"error,omitempty"`
}

// Succeeded 是否转存成功
func (r MirrorResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// RunSummary 一次运行的汇总
type RunSummary struct {
	Results      []MirrorResult
	SuccessCount int
	TotalCount   int
}

// AllSucceeded 是否全部成功
func (s *RunSummary) AllSucceeded() bool {
	return s.SuccessCount == s.TotalCount
}

// FailedCount 失败数量
func (s *RunSummary) FailedCount() int {
	return s.TotalCount - s.SuccessCount
}

// DispatchRequest 远程转存工作流触发记录
type DispatchRequest struct {
	Images      []ImageMapping `json:"images"`
	Ref         string         `json:"ref"`
	TriggeredAt time.Time      `json:"triggered_at"`
	// KnownRunIDs 触发前已经存在的运行，查找时排除
	KnownRunIDs []int64 `json:"known_run_ids,omitempty"`
}

// WorkflowRunStatus GitHub工作流运行状态
type WorkflowRunStatus struct {
	RunID      int64  `json:"run_id"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	URL        string `json:"url"`
}

// Completed 工作流是否已结束
func (s *WorkflowRunStatus) Completed() bool {
	return s.Status == "completed"
}
