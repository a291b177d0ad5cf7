package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
)

type mockWriter struct {
	mu       sync.Mutex
	services map[string]catalog.Service
	goods    map[string]catalog.Goods
	writes   map[string]int
	err      error
}

func newMockWriter() *mockWriter {
	return &mockWriter{
		services: map[string]catalog.Service{},
		goods:    map[string]catalog.Goods{},
		writes:   map[string]int{},
	}
}

func (m *mockWriter) UpsertService(_ context.Context, s catalog.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.services[s.ID] = s
	m.writes["service:"+s.ID]++
	return nil
}

func (m *mockWriter) UpsertGoods(_ context.Context, g catalog.Goods) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.goods[g.ID] = g
	m.writes["goods:"+g.ID]++
	return nil
}

func writeGz(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantOK  bool
		wantErr string
		check   func(t *testing.T, e entry)
	}{
		{name: "blank", line: "   "},
		{name: "comment", line: "# branch price list"},
		{
			name:   "service with unit",
			line:   "service; wash ; Wash & fold ; 25000.50 ; kg",
			wantOK: true,
			check: func(t *testing.T, e entry) {
				assert.Equal(t, kindService, e.kind)
				assert.Equal(t, "wash", e.service.ID)
				assert.Equal(t, "Wash & fold", e.service.Name)
				assert.True(t, decimal.RequireFromString("25000.5").Equal(e.service.Price))
				assert.Equal(t, "kg", e.service.Unit)
			},
		},
		{
			name:   "service default unit",
			line:   "service;iron;Ironing;15000",
			wantOK: true,
			check: func(t *testing.T, e entry) {
				assert.Equal(t, "piece", e.service.Unit)
			},
		},
		{
			name:   "goods with stock",
			line:   "goods;bag;Laundry bag;20000;25",
			wantOK: true,
			check: func(t *testing.T, e entry) {
				assert.Equal(t, kindGoods, e.kind)
				assert.Equal(t, 25, e.goods.Stock)
				assert.Equal(t, "goods:bag", e.key())
			},
		},
		{name: "too few fields", line: "service;wash;Wash", wantErr: "expected 4 or 5 fields"},
		{name: "empty id", line: "service;;Wash;1", wantErr: "empty id"},
		{name: "bad price", line: "service;wash;Wash;cheap", wantErr: "parse price"},
		{name: "negative price", line: "goods;bag;Bag;-1", wantErr: "negative price"},
		{name: "bad stock", line: "goods;bag;Bag;1;many", wantErr: "invalid stock"},
		{name: "unknown kind", line: "coupon;x;X;1", wantErr: "unknown entry kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok, err := parseLine(tt.line)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.check != nil {
				tt.check(t, e)
			}
		})
	}
}

func TestImporter_LastFileWins(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeGz(t, dir, "base.gz",
			"# base prices",
			"service;wash;Wash;25000;kg",
			"service;iron;Ironing;15000",
			"goods;bag;Bag;20000;10",
		),
		writeGz(t, dir, "branch.gz",
			"service;wash;Wash;27000;kg",
			"goods;hanger;Hanger;3000;100",
		),
		writeGz(t, dir, "promo.gz",
			"service;wash;Wash;26000;kg",
			"service;shoes;Shoes;60000;pair",
			"service;shoes;Shoes;61000;pair",
		),
	}

	w := newMockWriter()
	im := &importer{files: files, w: w, lg: zap.NewNop(), capacity: 1000}
	st, err := im.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(8), st.lines)
	assert.Equal(t, "26000", w.services["wash"].Price.String())
	assert.Equal(t, "61000", w.services["shoes"].Price.String())
	assert.Equal(t, "15000", w.services["iron"].Price.String())
	assert.Equal(t, 10, w.goods["bag"].Stock)
	assert.Equal(t, 100, w.goods["hanger"].Stock)
	assert.Equal(t, 1, w.writes["service:wash"], "cross-file duplicates are written once")
	assert.Equal(t, int64(2), st.superseded)
}

func TestImporter_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeGz(t, dir, "good.gz", "service;wash;Wash;25000")
	bad := writeGz(t, dir, "bad.gz", "service;wash;Wash;25000", "nonsense")
	plain := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(plain, []byte("service;wash;Wash;1\n"), 0o600))

	tests := []struct {
		name    string
		files   []string
		werr    error
		wantErr string
	}{
		{name: "parse error has position", files: []string{good, bad}, wantErr: "bad.gz:2"},
		{name: "not gzip", files: []string{plain}, wantErr: "create gzip reader"},
		{name: "missing file", files: []string{filepath.Join(dir, "nope.gz")}, wantErr: "open"},
		{name: "writer error", files: []string{good}, werr: errors.New("db down"), wantErr: "db down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newMockWriter()
			w.err = tt.werr
			im := &importer{files: tt.files, w: w, lg: zap.NewNop(), capacity: 100}
			_, err := im.run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
