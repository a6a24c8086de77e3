package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/yungbote/whitespace-backend/internal/config"
	"github.com/yungbote/whitespace-backend/internal/data/db"
	repos "github.com/yungbote/whitespace-backend/internal/data/repos/whitespace"
	"github.com/yungbote/whitespace-backend/internal/modules/whitespace/canonical"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

func main() {
	var dryRun bool
	var batch int
	var limit int
	flag.BoolVar(&dryRun, "dry-run", false, "print alias -> canonical pairs without writing")
	flag.IntVar(&batch, "batch", 1000, "assignee names fetched per page")
	flag.IntVar(&limit, "limit", 0, "stop after this many names (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewWithOptions(logger.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level, Redact: true, HashSalt: cfg.Log.HashSalt})
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log, db.Options{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		fmt.Printf("init postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()
	if cfg.Database.AutoMigrate && !dryRun {
		if err := db.AutoMigrateAll(pg.DB()); err != nil {
			fmt.Printf("automigrate: %v\n", err)
			os.Exit(1)
		}
	}

	stats, err := backfill(context.Background(), pg.DB(), repos.NewAssigneeRepo(pg.DB(), log), batch, limit, dryRun)
	if err != nil {
		log.Error("canonicalize failed", "error", err, "names", stats.names)
		os.Exit(1)
	}
	fmt.Printf("names=%d skipped=%d canonical=%d patents_linked=%d dry_run=%v\n",
		stats.names, stats.skipped, len(stats.canonical), stats.linked, dryRun)
}

type backfillStats struct {
	names     int
	skipped   int
	linked    int64
	canonical map[string]struct{}
}

// backfill walks every distinct raw assignee name, keyed by name so a rerun
// resumes where the previous page ended. Each name gets its canonical row,
// its alias row and its patent links in one transaction.
func backfill(ctx context.Context, gdb *gorm.DB, repo repos.AssigneeRepo, batch, limit int, dryRun bool) (backfillStats, error) {
	stats := backfillStats{canonical: map[string]struct{}{}}
	after := ""
	for {
		names, err := repo.ListDistinctAssigneeNames(ctx, nil, after, batch)
		if err != nil {
			return stats, err
		}
		if len(names) == 0 {
			return stats, nil
		}
		for _, alias := range names {
			if limit > 0 && stats.names >= limit {
				return stats, nil
			}
			stats.names++
			canon := canonical.Normalize(alias)
			if canon == "" {
				stats.skipped++
				continue
			}
			stats.canonical[canon] = struct{}{}
			if dryRun {
				fmt.Printf("%q -> %q\n", alias, canon)
				continue
			}
			err := gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				canonID, err := repo.EnsureCanonical(ctx, tx, canon)
				if err != nil {
					return err
				}
				aliasID, err := repo.EnsureAlias(ctx, tx, canonID, alias)
				if err != nil {
					return err
				}
				n, err := repo.LinkPatents(ctx, tx, alias, aliasID, canonID)
				stats.linked += n
				return err
			})
			if err != nil {
				return stats, fmt.Errorf("canonicalize %q: %w", alias, err)
			}
		}
		after = names[len(names)-1]
	}
}
