// Command pricelist-import bulk loads gzip-compressed price lists into the
// catalog. Files are applied in command-line order: when the same service or
// goods id appears in several files, the last file wins.
//
// Each line has the form
//
//	service;<id>;<name>;<price>[;<unit>]
//	goods;<id>;<name>;<price>[;<stock>]
//
// Blank lines and lines starting with '#' are ignored.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/laundry-orders/internal/repository"
)

func main() {
	var (
		databaseURL string
		capacity    uint
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.UintVar(&capacity, "bloom-capacity", 1_000_000, "expected number of entries per file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	files := flag.Args()

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		if databaseURL == "" {
			return errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		if len(files) == 0 {
			return errors.New("no price list files given")
		}
		for _, f := range files {
			if _, err := os.Stat(f); err != nil {
				return errors.Wrapf(err, "check file %s", f)
			}
		}

		pool, err := repository.NewPool(ctx, databaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()

		if err := repository.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		im := &importer{
			files:    files,
			w:        repository.NewCatalogRepository(pool),
			lg:       lg,
			capacity: capacity,
		}
		st, err := im.run(ctx)
		if err != nil {
			return errors.Wrap(err, "import price lists")
		}
		lg.Info("Import completed",
			zap.Int64("lines", st.lines),
			zap.Int64("upserted", st.upserted),
			zap.Int64("superseded", st.superseded),
		)
		return nil
	})
}
