package main

import (
	"context"
	"fmt"
	"os"

	"amenitybook/pkg/config"
	"amenitybook/pkg/db"
)

func main() {
	cfg := config.Load()
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "file://migrations"
	}

	// DIRECT_URL, when set, bypasses the pooler.
	version, err := db.Migrate(cfg.MigrationsPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	// The API connects through DATABASE_URL; make sure that works too and
	// that the exclusion constraint is in place.
	ctx := context.Background()
	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime db open failed: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var found bool
	err = pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap')`).Scan(&found)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schema check failed: %v\n", err)
		os.Exit(1)
	}
	if !found {
		fmt.Fprintln(os.Stderr, "reservations_no_overlap constraint missing; double bookings are only guarded by the advisory lock")
		os.Exit(1)
	}

	fmt.Printf("migrations applied (version %d)\n", version)
}
