// Command stock-import applies warehouse stock feeds to the ledger.
//
// Each feed is a gzip-compressed CSV of product_id,color,size,quantity
// lines. A variant listed by more than one feed is ambiguous: it is skipped
// and reported instead of letting the last feed win.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"math/bits"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/ggshop/internal/domain/product"
	"github.com/xenking/ggshop/internal/domain/stock"
	"github.com/xenking/ggshop/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	maxFeeds      = bits.UintSize
)

// record is one parsed feed line.
type record struct {
	key stock.VariantKey
	qty int
}

// feedResult holds what pass 2 learned about a single feed.
type feedResult struct {
	records []record
	// shared marks keys of this feed that hit another feed's filter.
	shared  map[stock.VariantKey]uint
	invalid int
}

// report summarizes an import.
type report struct {
	Applied   int
	Conflicts []stock.VariantKey
	Unknown   []stock.VariantKey
	Invalid   int
}

// stockWriter is the ledger operation the import needs.
type stockWriter interface {
	Set(ctx context.Context, key stock.VariantKey, qty int) error
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Usage = func() {
		_, _ = io.WriteString(flag.CommandLine.Output(), "usage: stock-import [--database-url URL] feed.csv.gz...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	lg, _ := zap.NewDevelopment()
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	feeds := flag.Args()
	if len(feeds) == 0 || len(feeds) > maxFeeds {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		lg.Fatal("Connect to database", zap.Error(err))
	}
	defer pool.Close()

	rep, err := importFeeds(ctx, lg, postgres.NewStockRepository(pool), feeds)
	if err != nil {
		lg.Fatal("Stock import failed", zap.Error(err))
	}
	for _, k := range rep.Conflicts {
		lg.Warn("Variant listed by several feeds, skipped", zap.Stringer("variant", k))
	}
	lg.Info("Stock import completed",
		zap.Int("applied", rep.Applied),
		zap.Int("conflicts", len(rep.Conflicts)),
		zap.Int("unknown_products", len(rep.Unknown)),
		zap.Int("invalid_lines", rep.Invalid),
	)
}

func importFeeds(ctx context.Context, lg *zap.Logger, w stockWriter, feeds []string) (*report, error) {
	lg.Info("Pass 1: building bloom filters", zap.Int("feeds", len(feeds)))
	filters, err := buildFilters(ctx, feeds)
	if err != nil {
		return nil, errors.Wrap(err, "build bloom filters")
	}

	lg.Info("Pass 2: scanning for shared variants")
	results, err := scanFeeds(ctx, feeds, filters)
	if err != nil {
		return nil, errors.Wrap(err, "scan feeds")
	}

	// A key is a conflict only when two feeds really contain it; a bloom
	// false positive sets a single bit.
	merged := make(map[stock.VariantKey]uint)
	rep := &report{}
	for _, r := range results {
		for k, mask := range r.shared {
			merged[k] |= mask
		}
		rep.Invalid += r.invalid
	}
	conflicts := make(map[stock.VariantKey]bool)
	for k, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			conflicts[k] = true
			rep.Conflicts = append(rep.Conflicts, k)
		}
	}
	slices.SortFunc(rep.Conflicts, stock.VariantKey.Compare)

	for _, r := range results {
		for _, rec := range r.records {
			if conflicts[rec.key] {
				continue
			}
			if err := w.Set(ctx, rec.key, rec.qty); err != nil {
				if errors.Is(err, product.ErrNotFound) {
					rep.Unknown = append(rep.Unknown, rec.key)
					continue
				}
				return nil, errors.Wrapf(err, "set stock of %s", rec.key)
			}
			rep.Applied++
		}
	}
	return rep, nil
}

func buildFilters(ctx context.Context, feeds []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(feeds))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range feeds {
		g.Go(func() error {
			f := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			err := streamFeed(ctx, path, func(rec record) {
				f.AddString(rec.key.String())
			}, nil)
			if err != nil {
				return errors.Wrapf(err, "feed %s", path)
			}
			filters[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

func scanFeeds(ctx context.Context, feeds []string, filters []*bloom.BloomFilter) ([]feedResult, error) {
	results := make([]feedResult, len(feeds))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range feeds {
		g.Go(func() error {
			res := feedResult{shared: make(map[stock.VariantKey]uint)}
			feedBit := uint(1) << uint(i)
			err := streamFeed(ctx, path, func(rec record) {
				res.records = append(res.records, rec)
				name := rec.key.String()
				for j, f := range filters {
					if j != i && f.TestString(name) {
						res.shared[rec.key] |= feedBit
						return
					}
				}
			}, func() { res.invalid++ })
			if err != nil {
				return errors.Wrapf(err, "feed %s", path)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// streamFeed decodes a gzip CSV feed, calling fn for every valid record and
// onInvalid, when set, for every malformed one. A leading header is skipped.
func streamFeed(ctx context.Context, path string, fn func(record), onInvalid func()) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		if line == 1 && len(fields) > 0 && strings.EqualFold(fields[0], "product_id") {
			continue
		}
		rec, ok := parseRecord(fields)
		if !ok {
			if onInvalid != nil {
				onInvalid()
			}
			continue
		}
		fn(rec)
	}
}

func parseRecord(fields []string) (record, bool) {
	if len(fields) != 4 {
		return record{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return record{}, false
	}
	qty, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil || qty < 0 {
		return record{}, false
	}
	key := stock.VariantKey{
		ProductID: id,
		Color:     strings.TrimSpace(fields[1]),
		Size:      strings.TrimSpace(fields[2]),
	}
	if key.Validate() != nil {
		return record{}, false
	}
	return record{key: key, qty: qty}, true
}
