package docker

import (
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/opencontainers/go-digest"
)

// Reference 解析后的镜像引用
type Reference struct {
	Registry   string
	Repository string
	Tag        string
	Digest     string
}

// ParseImageReference 解析Docker镜像引用
// 未指定仓库时默认为 docker.io，未指定标签时默认为 latest
func ParseImageReference(imageRef string) (*Reference, error) {
	if strings.TrimSpace(imageRef) == "" {
		return nil, ErrInvalidImageRef
	}

	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidImageRef, imageRef, err)
	}

	result := &Reference{
		Registry:   ref.Context().RegistryStr(),
		Repository: ref.Context().RepositoryStr(),
	}
	switch r := ref.(type) {
	case name.Tag:
		result.Tag = r.TagStr()
	case name.Digest:
		result.Digest = r.DigestStr()
	}

	return result, nil
}

// RetargetReference 将镜像引用改写到目标仓库下，保留仓库路径和标签/摘要
// docker.io 官方镜像的 library/ 前缀会被去掉：nginx:1.25 -> <target>/nginx:1.25
func RetargetReference(imageRef, targetRegistry string) (string, error) {
	ref, err := ParseImageReference(imageRef)
	if err != nil {
		return "", err
	}

	prefix := strings.TrimSuffix(strings.TrimSpace(targetRegistry), "/")
	if prefix == "" {
		return "", fmt.Errorf("%w: empty target registry", ErrInvalidImageRef)
	}

	repository := ref.Repository
	if ref.Registry == name.DefaultRegistry {
		repository = strings.TrimPrefix(repository, "library/")
	}

	target := prefix + "/" + repository
	if ref.Digest != "" {
		target += "@" + ref.Digest
	} else {
		target += ":" + ref.Tag
	}

	if _, err := name.ParseReference(target); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidImageRef, target, err)
	}
	return target, nil
}

// ParseRepoDigest 解析 inspect 输出的 RepoDigests 条目，格式为 repo@sha256:...
func ParseRepoDigest(repoDigest string) (string, digest.Digest, error) {
	idx := strings.LastIndex(repoDigest, "@")
	if idx <= 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoDigest, repoDigest)
	}

	d, err := digest.Parse(repoDigest[idx+1:])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrInvalidRepoDigest, repoDigest, err)
	}
	return repoDigest[:idx], d, nil
}
