package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keevingness/image-mirror/internal/config"
	"github.com/keevingness/image-mirror/internal/mapping"
	"github.com/keevingness/image-mirror/internal/types"
)

type fakeClient struct {
	triggered  []types.ImageMapping
	triggerErr error
	updates    []*types.WorkflowRunStatus
	waitErr    error
}

func (f *fakeClient) TriggerMirrorWorkflow(_ context.Context, ref string, images []types.ImageMapping) (*types.DispatchRequest, error) {
	if f.triggerErr != nil {
		return nil, f.triggerErr
	}
	f.triggered = images
	return &types.DispatchRequest{Images: images, Ref: ref, TriggeredAt: time.Now()}, nil
}

func (f *fakeClient) WaitForRun(_ context.Context, _ *types.DispatchRequest, _ time.Duration, onUpdate func(*types.WorkflowRunStatus)) (*types.WorkflowRunStatus, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}
	for _, u := range f.updates {
		onUpdate(u)
	}
	return f.updates[len(f.updates)-1], nil
}

func testConfig(images string) *config.DispatchConfig {
	return &config.DispatchConfig{
		Images:       images,
		GitHub:       config.GitHubConfig{Token: "t", Owner: "o", Repo: "image-mirror", Workflow: "image-mirror.yaml", Ref: "main"},
		PollInterval: time.Second,
		Timeout:      time.Minute,
	}
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	client := &fakeClient{updates: []*types.WorkflowRunStatus{
		{RunID: 7, Status: "queued"},
		{RunID: 7, Status: "in_progress"},
		{RunID: 7, Status: "in_progress"},
		{RunID: 7, Status: "completed", Conclusion: "success", URL: "https://github.com/o/image-mirror/actions/runs/7"},
	}}

	var out bytes.Buffer
	err := Run(context.Background(), testConfig(`{"source":"nginx:1.25","target":"r/nginx:1.25"}`), client, &out, nil)
	require.NoError(t, err)

	assert.Equal(t, []types.ImageMapping{{Source: "nginx:1.25", Target: "r/nginx:1.25"}}, client.triggered)
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("工作流状态: in_progress\n")))
	assert.Contains(t, out.String(), "✅ 镜像转存成功!")
	assert.Contains(t, out.String(), "actions/runs/7")
}

func TestRun_WorkflowFailed(t *testing.T) {
	t.Parallel()

	client := &fakeClient{updates: []*types.WorkflowRunStatus{
		{RunID: 7, Status: "completed", Conclusion: "failure"},
	}}

	err := Run(context.Background(), testConfig(`[{"source":"nginx:1.25","target":"r/nginx:1.25"}]`), client, &bytes.Buffer{}, nil)
	require.ErrorIs(t, err, ErrWorkflowFailed)
	assert.Contains(t, err.Error(), `"failure"`)
}

func TestRun_InvalidImagesNeverTrigger(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	err := Run(context.Background(), testConfig(`[{"source":"nginx:1.25"}]`), client, &bytes.Buffer{}, nil)
	require.ErrorIs(t, err, mapping.ErrValidation)
	assert.Nil(t, client.triggered)
}

func TestRun_TriggerError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{triggerErr: errors.New("failed to trigger workflow: 404 Not Found")}
	err := Run(context.Background(), testConfig(`[{"source":"a","target":"b"}]`), client, &bytes.Buffer{}, nil)
	assert.EqualError(t, err, "failed to trigger workflow: 404 Not Found")
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	client := &fakeClient{waitErr: context.DeadlineExceeded}
	err := Run(context.Background(), testConfig(`[{"source":"a","target":"b"}]`), client, &out, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, out.String(), "超时")
}
