// Command catalog-import bulk-loads products from a gzipped JSON-lines file
// into the catalog store. Each line holds one product:
//
//	{"name": "...", "description": "...", "price": 12.50,
//	 "category": "...", "imageUrl": "https://..."}
//
// Categories referenced by products are created when missing. Lines that
// fail validation are logged and skipped; duplicate names (case-insensitive,
// first wins) are skipped too.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/catalog"
	"github.com/pasteleriaruby/catalog-admin/internal/storage/postgres"
)

// maxLineBytes bounds a single JSON line; descriptions are short.
const maxLineBytes = 1 << 20

type record struct {
	draft    catalog.ProductDraft
	imageURL string
}

func main() {
	var (
		file        string
		databaseURL string
		workers     int
	)

	flag.StringVar(&file, "file", "", "gzipped JSON-lines product file")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&workers, "workers", 4, "concurrent insert workers")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if file == "" || databaseURL == "" {
		slog.Error("usage: catalog-import --file products.jsonl.gz --database-url postgres://...")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, file, databaseURL, workers); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed")
}

func run(ctx context.Context, file, databaseURL string, workers int) error {
	records, skipped, err := readRecords(file)
	if err != nil {
		return errors.Wrap(err, "read records")
	}
	slog.Info("records parsed", slog.Int("valid", len(records)), slog.Int("skipped", skipped))

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	store := postgres.NewCatalogStore(pool, 0)

	// Categories first, as one idempotent batch.
	names := categoryNames(records)
	if _, err := store.SeedCategories(ctx, names); err != nil {
		return errors.Wrap(err, "create categories")
	}
	slog.Info("categories ensured", slog.Int("count", len(names)))

	// Then the products, fanned out over insert workers.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			if _, err := store.CreateProduct(ctx, rec.draft, rec.imageURL); err != nil {
				return errors.Wrapf(err, "insert product %q", rec.draft.Name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("products inserted", slog.Int("count", len(records)))
	return nil
}

// readRecords parses and validates the entire file, deduplicating product
// names case-insensitively (first occurrence wins).
func readRecords(file string) ([]record, int, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open file")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	var (
		records []record
		seen    = make(map[string]struct{})
		skipped int
		lineNo  int
	)

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, err := parseLine(line)
		if err == nil {
			err = rec.draft.Validate()
		}
		if err == nil && rec.imageURL == "" {
			err = errors.New("missing imageUrl")
		}
		if err != nil {
			slog.Warn("skipping invalid line", slog.Int("line", lineNo), slog.String("error", err.Error()))
			skipped++
			continue
		}

		key := strings.ToLower(rec.draft.Name)
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "scan file")
	}
	return records, skipped, nil
}

func parseLine(line []byte) (record, error) {
	var rec record

	d := jx.DecodeBytes(line)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			rec.draft.Name, err = d.Str()
		case "description":
			rec.draft.Description, err = d.Str()
		case "category":
			rec.draft.Category, err = d.Str()
		case "imageUrl":
			rec.imageURL, err = d.Str()
		case "price":
			var num jx.Num
			num, err = d.Num()
			if err == nil {
				// d.Num accepts both bare and quoted numbers.
				rec.draft.Price, err = decimal.NewFromString(strings.Trim(string(num), `"`))
			}
		default:
			return d.Skip()
		}
		return err
	})
	return rec, err
}

// categoryNames collects the distinct category names, preserving the case of
// the first occurrence.
func categoryNames(records []record) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, rec := range records {
		key := strings.ToLower(rec.draft.Category)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, rec.draft.Category)
	}
	return names
}
