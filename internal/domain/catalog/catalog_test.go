package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/laundry-orders/internal/domain/promotion"
)

type mockRepo struct {
	services   []Service
	goods      []Goods
	promotions []promotion.Promotion
	err        error
}

func (m *mockRepo) ListServices(_ context.Context) ([]Service, error) {
	return m.services, m.err
}

func (m *mockRepo) ListGoods(_ context.Context) ([]Goods, error) {
	return m.goods, nil
}

func (m *mockRepo) ListPromotions(_ context.Context) ([]promotion.Promotion, error) {
	return m.promotions, nil
}

func TestNew_Lookups(t *testing.T) {
	c, err := New(
		[]Service{
			{ID: "wash", Name: "Wash & fold", Price: decimal.NewFromInt(50000), Unit: "kg"},
			{ID: "dry", Name: "Dry clean", Price: decimal.NewFromInt(30000), Unit: "piece"},
		},
		[]Goods{{ID: "bag", Name: "Laundry bag", Price: decimal.NewFromInt(15000), Stock: 4}},
		[]promotion.Promotion{{ID: "p10", Kind: promotion.KindPercentage, Value: decimal.NewFromInt(10)}},
	)
	require.NoError(t, err)

	s, ok := c.Service("dry")
	require.True(t, ok)
	assert.Equal(t, "Dry clean", s.Name)

	_, ok = c.Service("missing")
	assert.False(t, ok)

	g, ok := c.Goods("bag")
	require.True(t, ok)
	assert.Equal(t, 4, g.Stock)

	p, ok := c.Promotion("p10")
	require.True(t, ok)
	assert.Equal(t, promotion.KindPercentage, p.Kind)

	services := c.Services()
	require.Len(t, services, 2)
	assert.Equal(t, "wash", services[0].ID)
	assert.Equal(t, "dry", services[1].ID)

	// Returned slices are copies.
	services[0].Name = "changed"
	s, _ = c.Service("wash")
	assert.Equal(t, "Wash & fold", s.Name)
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		services   []Service
		goods      []Goods
		promotions []promotion.Promotion
		wantErr    error
		wantText   string
	}{
		{
			name:     "duplicate service",
			services: []Service{{ID: "a"}, {ID: "a"}},
			wantErr:  ErrDuplicateID,
		},
		{
			name:     "empty goods id",
			goods:    []Goods{{ID: ""}},
			wantText: "empty id",
		},
		{
			name:     "negative service price",
			services: []Service{{ID: "a", Price: decimal.NewFromInt(-1)}},
			wantText: "negative price",
		},
		{
			name:       "invalid promotion",
			promotions: []promotion.Promotion{{ID: "p", Kind: promotion.KindPercentage, Value: decimal.NewFromInt(150)}},
			wantErr:    promotion.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.services, tt.goods, tt.promotions)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantText != "" {
				assert.Contains(t, err.Error(), tt.wantText)
			}
		})
	}
}

func TestLoad_FiltersInactivePromotions(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)

	repo := &mockRepo{
		services: []Service{{ID: "wash", Price: decimal.NewFromInt(50000)}},
		promotions: []promotion.Promotion{
			{ID: "live", Kind: promotion.KindCash, Value: decimal.NewFromInt(5000)},
			{ID: "old", Kind: promotion.KindCash, Value: decimal.NewFromInt(5000), ValidUntil: &expired},
		},
	}

	c, err := Load(context.Background(), repo, now)
	require.NoError(t, err)

	_, ok := c.Promotion("live")
	assert.True(t, ok)
	_, ok = c.Promotion("old")
	assert.False(t, ok)
	assert.Len(t, repo.promotions, 2, "source slice must not be modified")
}

func TestLoad_RepositoryError(t *testing.T) {
	repo := &mockRepo{err: errors.New("connection refused")}

	_, err := Load(context.Background(), repo, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list services")
}

func TestProvider_UsesClock(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &mockRepo{
		promotions: []promotion.Promotion{
			{ID: "june", Kind: promotion.KindPercentage, Value: decimal.NewFromInt(5), ValidFrom: &start},
		},
	}
	p := NewProvider(repo)

	p.now = func() time.Time { return start.Add(-time.Minute) }
	c, err := p.Catalog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.Promotions())

	p.now = func() time.Time { return start.Add(time.Minute) }
	c, err = p.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, c.Promotions(), 1)
}
