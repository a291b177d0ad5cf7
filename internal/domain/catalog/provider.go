package catalog

import (
	"context"
	"time"
)

// Provider builds a fresh Catalog from storage for every editing session.
type Provider struct {
	repo Repository
	now  func() time.Time
}

// NewProvider returns a Provider reading from repo.
func NewProvider(repo Repository) *Provider {
	return &Provider{repo: repo, now: time.Now}
}

// Catalog loads the current catalog.
func (p *Provider) Catalog(ctx context.Context) (*Catalog, error) {
	return Load(ctx, p.repo, p.now())
}
