package slot

import (
	"context"
)

// Repository stores named durable slots, each holding one JSON document.
// Load returns domain.ErrNotFound for a slot that was never written.
type Repository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}

type prefixed struct {
	repo   Repository
	prefix string
}

// WithPrefix namespaces every key of repo under prefix, giving each client
// its own set of slots over shared storage.
func WithPrefix(repo Repository, prefix string) Repository {
	return &prefixed{repo: repo, prefix: prefix + ":"}
}

func (p *prefixed) Load(ctx context.Context, key string) ([]byte, error) {
	return p.repo.Load(ctx, p.prefix+key)
}

func (p *prefixed) Save(ctx context.Context, key string, payload []byte) error {
	return p.repo.Save(ctx, p.prefix+key, payload)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.repo.Delete(ctx, p.prefix+key)
}
