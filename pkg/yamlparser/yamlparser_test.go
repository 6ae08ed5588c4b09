package yamlparser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const composeYAML = `
version: "3.8"
services:
  web:
    image: nginx:1.25
    ports: ["80:80"]
  app:
    build:
      context: .
  cache:
    image: redis:7-alpine
`

const k8sYAML = `
apiVersion: v1
kind: Pod
metadata:
  name: debug
spec:
  containers:
    - name: shell
      image: busybox:1.36
---
apiVersion: apps/v1
kind: Deployment
metadata:
  name: api
spec:
  template:
    spec:
      initContainers:
        - name: migrate
          image: ghcr.io/acme/migrate:v2
      containers:
        - name: api
          image: ghcr.io/acme/api:v2
        - name: sidecar
          image: envoyproxy/envoy:v1.29.0
---
apiVersion: batch/v1
kind: CronJob
metadata:
  name: backup
spec:
  jobTemplate:
    spec:
      template:
        spec:
          containers:
            - name: backup
              image: postgres:16
---
apiVersion: v1
kind: Service
metadata:
  name: api
spec:
  ports:
    - port: 80
`

func TestParseComposeContent(t *testing.T) {
	t.Parallel()

	images, err := ParseComposeContent(composeYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"redis:7-alpine", "nginx:1.25"}, images)
}

func TestParseComposeContent_NotCompose(t *testing.T) {
	t.Parallel()

	_, err := ParseComposeContent(k8sYAML)
	assert.ErrorIs(t, err, ErrNotCompose)
}

func TestParseK8sContent(t *testing.T) {
	t.Parallel()

	images, err := ParseK8sContent(k8sYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"busybox:1.36",
		"ghcr.io/acme/migrate:v2",
		"ghcr.io/acme/api:v2",
		"envoyproxy/envoy:v1.29.0",
		"postgres:16",
	}, images)
}

func TestParseK8sContent_List(t *testing.T) {
	t.Parallel()

	images, err := ParseK8sContent(`
apiVersion: v1
kind: List
items:
  - apiVersion: v1
    kind: Pod
    spec:
      containers:
        - image: alpine:3.18
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpine:3.18"}, images)
}

func TestParseK8sContent_NotK8s(t *testing.T) {
	t.Parallel()

	_, err := ParseK8sContent(composeYAML)
	assert.ErrorIs(t, err, ErrNotK8s)
}

func TestParseContent_FallsBack(t *testing.T) {
	t.Parallel()

	images, err := ParseContent(k8sYAML, FileTypeUnknown)
	require.NoError(t, err)
	assert.Len(t, images, 5)

	images, err = ParseContent(composeYAML, FileTypeK8s)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	_, err = ParseContent("just: text\n", FileTypeUnknown)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCompose)
	assert.ErrorIs(t, err, ErrNotK8s)
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(path, []byte(composeYAML), 0o600))

	images, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"redis:7-alpine", "nginx:1.25"}, images)

	_, err = ParseFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseFile_ByFileName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	images, err := ParseFile(write("deployment.yaml", k8sYAML))
	require.NoError(t, err)
	assert.Len(t, images, 5)

	// 文件名指向k8s，内容是compose时回退到compose解析器
	images, err = ParseFile(write("k8s-stack.yaml", composeYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"redis:7-alpine", "nginx:1.25"}, images)

	path := write("notes.yaml", "just: text\n")
	_, err = ParseFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotCompose)
	assert.ErrorIs(t, err, ErrNotK8s)
	assert.Contains(t, err.Error(), path)
}

func TestParseComposeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "compose.yaml")
	require.NoError(t, os.WriteFile(path, []byte(composeYAML), 0o600))

	images, err := ParseComposeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"redis:7-alpine", "nginx:1.25"}, images)

	_, err = ParseComposeFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseK8sFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(k8sYAML), 0o600))

	images, err := ParseK8sFile(path)
	require.NoError(t, err)
	assert.Len(t, images, 5)

	_, err = ParseK8sFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FileTypeCompose, DetectFileType("deploy/docker-compose.prod.yml"))
	assert.Equal(t, FileTypeCompose, DetectFileType("compose.yaml"))
	assert.Equal(t, FileTypeK8s, DetectFileType("manifests/k8s-api.yaml"))
	assert.Equal(t, FileTypeK8s, DetectFileType("deployment.yaml"))
	assert.Equal(t, FileTypeUnknown, DetectFileType("images.yaml"))
}

func TestUnique(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"b", "a", "c"}, Unique([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, Unique(nil))
}
