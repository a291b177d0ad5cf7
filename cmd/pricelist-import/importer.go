package main

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/laundry-orders/internal/domain/catalog"
)

const bloomFPR = 0.001

// catalogWriter is implemented by *repository.CatalogRepository.
type catalogWriter interface {
	UpsertService(ctx context.Context, s catalog.Service) error
	UpsertGoods(ctx context.Context, g catalog.Goods) error
}

type entryKind string

const (
	kindService entryKind = "service"
	kindGoods   entryKind = "goods"
)

type entry struct {
	kind    entryKind
	service catalog.Service
	goods   catalog.Goods
}

func (e entry) key() string {
	if e.kind == kindService {
		return "service:" + e.service.ID
	}
	return "goods:" + e.goods.ID
}

type stats struct {
	lines      int64
	upserted   int64
	superseded int64
}

// importer runs two passes over the files. Pass one builds a bloom filter of
// keys per file. Pass two upserts every entry whose key is absent from all
// other filters, and holds back the rest. Held back entries are resolved
// exactly, keeping the one from the last file.
type importer struct {
	files    []string
	w        catalogWriter
	lg       *zap.Logger
	capacity uint

	lines      atomic.Int64
	upserted   atomic.Int64
	superseded atomic.Int64
}

type heldEntry struct {
	file  int
	entry entry
}

func (im *importer) run(ctx context.Context) (stats, error) {
	filters, err := im.buildFilters(ctx)
	if err != nil {
		return stats{}, errors.Wrap(err, "build bloom filters")
	}

	held, err := im.upsertUnique(ctx, filters)
	if err != nil {
		return stats{}, errors.Wrap(err, "upsert unique entries")
	}

	if err := im.resolveHeld(ctx, held); err != nil {
		return stats{}, errors.Wrap(err, "resolve duplicate entries")
	}

	return stats{
		lines:      im.lines.Load(),
		upserted:   im.upserted.Load(),
		superseded: im.superseded.Load(),
	}, nil
}

func (im *importer) buildFilters(ctx context.Context) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(im.files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range im.files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(im.capacity, bloomFPR)
			var count int
			err := streamPriceList(ctx, path, func(e entry) error {
				filter.AddString(e.key())
				count++
				return nil
			})
			if err != nil {
				return err
			}
			im.lg.Info("Pass 1 complete", zap.String("file", path), zap.Int("entries", count))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func (im *importer) upsertUnique(ctx context.Context, filters []*bloom.BloomFilter) ([]heldEntry, error) {
	var (
		mu   sync.Mutex
		held []heldEntry
	)

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range im.files {
		g.Go(func() error {
			var local []heldEntry
			err := streamPriceList(ctx, path, func(e entry) error {
				im.lines.Add(1)
				key := e.key()
				for j, f := range filters {
					if j != i && f.TestString(key) {
						local = append(local, heldEntry{file: i, entry: e})
						return nil
					}
				}
				return im.upsert(ctx, e)
			})
			if err != nil {
				return err
			}
			im.lg.Info("Pass 2 complete", zap.String("file", path), zap.Int("held", len(local)))

			mu.Lock()
			held = append(held, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return held, nil
}

// resolveHeld upserts, per key, the entry from the highest file index, and
// within that file the last line.
func (im *importer) resolveHeld(ctx context.Context, held []heldEntry) error {
	winners := make(map[string]heldEntry, len(held))
	var order []string
	for _, h := range held {
		key := h.entry.key()
		cur, ok := winners[key]
		if !ok {
			order = append(order, key)
		} else {
			im.superseded.Add(1)
		}
		if !ok || h.file >= cur.file {
			winners[key] = h
		}
	}
	for _, key := range order {
		if err := im.upsert(ctx, winners[key].entry); err != nil {
			return err
		}
	}
	return nil
}

func (im *importer) upsert(ctx context.Context, e entry) error {
	var err error
	switch e.kind {
	case kindService:
		err = im.w.UpsertService(ctx, e.service)
	case kindGoods:
		err = im.w.UpsertGoods(ctx, e.goods)
	}
	if err != nil {
		return err
	}
	im.upserted.Add(1)
	return nil
}

// streamPriceList opens a gzip-compressed price list and calls fn for each
// entry in file order.
func streamPriceList(ctx context.Context, path string, fn func(entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		e, ok, err := parseLine(scanner.Text())
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, lineNo)
		}
		if !ok {
			continue
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// parseLine parses one price list line. ok is false for blank and comment
// lines.
func parseLine(line string) (_ entry, ok bool, _ error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return entry{}, false, nil
	}

	fields := strings.Split(line, ";")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 4 || len(fields) > 5 {
		return entry{}, false, errors.Errorf("expected 4 or 5 fields, got %d", len(fields))
	}
	kind, id, name := entryKind(fields[0]), fields[1], fields[2]
	if id == "" {
		return entry{}, false, errors.New("empty id")
	}
	price, err := decimal.NewFromString(fields[3])
	if err != nil {
		return entry{}, false, errors.Wrap(err, "parse price")
	}
	if price.IsNegative() {
		return entry{}, false, errors.Errorf("negative price %s", price)
	}
	var extra string
	if len(fields) == 5 {
		extra = fields[4]
	}

	switch kind {
	case kindService:
		unit := extra
		if unit == "" {
			unit = "piece"
		}
		return entry{kind: kind, service: catalog.Service{ID: id, Name: name, Price: price, Unit: unit}}, true, nil
	case kindGoods:
		var stock int
		if extra != "" {
			stock, err = strconv.Atoi(extra)
			if err != nil || stock < 0 {
				return entry{}, false, errors.Errorf("invalid stock %q", extra)
			}
		}
		return entry{kind: kind, goods: catalog.Goods{ID: id, Name: name, Price: price, Stock: stock}}, true, nil
	default:
		return entry{}, false, errors.Errorf("unknown entry kind %q", fields[0])
	}
}
