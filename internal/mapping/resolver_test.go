package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keevingness/image-mirror/internal/types"
)

func TestResolve_InlineArray(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, nil)
	images, err := r.Resolve(Inputs{Images: `[
		{"source":"alpine:3.18","target":"registry.example.com/alpine:3.18"},
		{"source":"nginx:1.25","target":"registry.example.com/nginx:1.25"}
	]`})
	require.NoError(t, err)
	assert.Equal(t, []types.ImageMapping{
		{Source: "alpine:3.18", Target: "registry.example.com/alpine:3.18"},
		{Source: "nginx:1.25", Target: "registry.example.com/nginx:1.25"},
	}, images)
}

func TestResolve_SingleObjectIsNormalized(t *testing.T) {
	t.Parallel()

	r := NewResolver(nil, nil)
	single, err := r.Resolve(Inputs{Images: ` {"source":"alpine:3.18","target":"registry.example.com/alpine:3.18"}`})
	require.NoError(t, err)

	wrapped, err := r.Resolve(Inputs{Images: `[{"source":"alpine:3.18","target":"registry.example.com/alpine:3.18"}]`})
	require.NoError(t, err)

	assert.Len(t, single, 1)
	assert.Equal(t, wrapped, single)
}

func TestResolve_EmptyArray(t *testing.T) {
	t.Parallel()

	images, err := NewResolver(nil, nil).Resolve(Inputs{Images: `[]`})
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func TestResolve_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "images.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"source":"redis:7","target":"harbor.local/redis:7"}]`), 0o600))

	images, err := NewResolver(nil, nil).Resolve(Inputs{ImagesFile: path})
	require.NoError(t, err)
	assert.Equal(t, []types.ImageMapping{{Source: "redis:7", Target: "harbor.local/redis:7"}}, images)
}

func TestResolve_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	readCalled := false
	r := NewResolver(func(string) ([]byte, error) {
		readCalled = true
		return nil, nil
	}, nil)

	_, err := r.Resolve(Inputs{})
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), `either "images" or "images-file" input must be provided`)

	_, err = r.Resolve(Inputs{Images: `[]`, ImagesFile: "images.json"})
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "not both")

	assert.False(t, readCalled)
}

func TestResolve_FormatErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		inputs  Inputs
		read    func(string) ([]byte, error)
		wantMsg string
	}{
		{
			name:    "malformed inline json",
			inputs:  Inputs{Images: `[{"source":`},
			wantMsg: "invalid images format in images input",
		},
		{
			name:    "scalar json",
			inputs:  Inputs{Images: `"alpine"`},
			wantMsg: "expected JSON object or array",
		},
		{
			name:    "null json",
			inputs:  Inputs{Images: `null`},
			wantMsg: "invalid images format in images input",
		},
		{
			name:    "missing file",
			inputs:  Inputs{ImagesFile: "/nonexistent/images.json"},
			read:    func(string) ([]byte, error) { return nil, errors.New("open /nonexistent/images.json: no such file or directory") },
			wantMsg: "invalid images format in images file: /nonexistent/images.json",
		},
		{
			name:    "malformed file",
			inputs:  Inputs{ImagesFile: "images.json"},
			read:    func(string) ([]byte, error) { return []byte("source: alpine"), nil },
			wantMsg: "images file: images.json. Expected JSON array or object",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewResolver(tt.read, nil).Resolve(tt.inputs)
			require.ErrorIs(t, err, ErrFormat)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestResolve_ValidationErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		`{"source":"alpine:3.18"}`,
		`{"target":"registry.example.com/alpine:3.18"}`,
		`[{"source":"alpine","target":"r/alpine"},{"source":"","target":"r/nginx"}]`,
		`[{"source":"alpine","target":"r/alpine"},null]`,
	} {
		_, err := NewResolver(nil, nil).Resolve(Inputs{Images: input})
		require.ErrorIs(t, err, ErrValidation, input)
		assert.NotErrorIs(t, err, ErrFormat)
		assert.Contains(t, err.Error(), `each image mapping must have "source" and "target" properties`)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	out, err := Encode([]types.ImageMapping{{Source: "alpine:3.18", Target: "r/alpine:3.18"}})
	require.NoError(t, err)
	assert.Equal(t, `[{"source":"alpine:3.18","target":"r/alpine:3.18"}]`, out)

	empty, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, empty)

	parsed, err := Parse([]byte(out))
	require.NoError(t, err)
	assert.Len(t, parsed, 1)
}
