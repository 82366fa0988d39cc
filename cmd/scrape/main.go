package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fortuna/cutman/internal/identity"
	"github.com/fortuna/cutman/internal/importer"
	"github.com/fortuna/cutman/internal/ingest"
	"github.com/fortuna/cutman/internal/ingest/bkfc"
	"github.com/fortuna/cutman/internal/ingest/tapology"
	"github.com/fortuna/cutman/internal/reconcile"
	"github.com/fortuna/cutman/internal/snapshot"
	"github.com/fortuna/cutman/internal/store"
	"github.com/fortuna/cutman/internal/store/repository"
)

const (
	appName    = "cutman-scrape"
	appVersion = "1.0.0"
)

func main() {
	log.Printf("=== %s v%s ===", appName, appVersion)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  Could not load .env: %v", err)
	}

	var (
		sourceNames = flag.String("source", "bkfc,tapology", "Comma-separated sources to scrape")
		mode        = flag.String("mode", string(ingest.ModeInteractive), "Extraction mode: interactive or unattended")
		timeout     = flag.Duration("timeout", 45*time.Second, "Per-page timeout")
		runTimeout  = flag.Duration("run-timeout", 30*time.Minute, "Hard ceiling for the whole run")
		outDir      = flag.String("out", getEnv("SNAPSHOT_DIR", "data/snapshots"), "Snapshot output directory")
		dsn         = flag.String("dsn", getEnv("DATABASE_DSN", ""), "Database DSN; empty scrapes without importing")
		fromLatest  = flag.Bool("from-latest", false, "Skip scraping and replay the stored latest snapshots")
	)

	flag.Parse()

	sources, err := buildSources(*sourceNames)
	if err != nil {
		log.Fatalf("%v", err)
	}

	opts := ingest.DefaultOptions()
	opts.Mode = ingest.Mode(*mode)
	opts.PageTimeout = *timeout

	writer, err := snapshot.NewWriter(*outDir)
	if err != nil {
		log.Fatalf("prepare snapshot dir: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *runTimeout)
	defer cancel()

	var snaps []*snapshot.Snapshot
	for _, source := range sources {
		var snap *snapshot.Snapshot
		if *fromLatest {
			snap, err = snapshot.LoadLatest(*outDir, source.Name())
			if err != nil {
				log.Printf("⚠️  No stored snapshot for %s: %v", source.Name(), err)
				continue
			}
		} else {
			snap, err = source.Scrape(ctx, opts)
			if err != nil {
				log.Printf("⚠️  %s scrape failed: %v", source.Name(), err)
				continue
			}
			if err := writer.Write(snap); err != nil {
				log.Printf("⚠️  Failed to persist %s snapshot: %v", snap.Source, err)
			}
		}
		snaps = append(snaps, snap)
	}

	if *dsn == "" {
		log.Printf("✓ Done: %d snapshot(s), no DSN so nothing imported", len(snaps))
		return
	}

	db, err := store.NewDatabase(*dsn)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	eventRepo := repository.NewEventRepository(db)
	fightRepo := repository.NewFightRepository(db)
	imp := importer.New(identity.NewResolver(repository.NewFighterRepository(db)), eventRepo, fightRepo, nil)
	engine := reconcile.NewEngine(eventRepo, fightRepo, nil, nil)

	for _, snap := range snaps {
		if _, err := imp.Import(ctx, snap); err != nil {
			log.Printf("⚠️  Import failed for %s: %v", snap.Source, err)
			continue
		}
		if _, err := engine.Reconcile(ctx, snap); err != nil {
			log.Printf("⚠️  Reconcile failed for %s: %v", snap.Source, err)
		}
	}

	log.Printf("✓ Done: %d snapshot(s) applied", len(snaps))
}

func buildSources(names string) ([]ingest.Source, error) {
	var sources []ingest.Source
	for _, name := range strings.Split(names, ",") {
		switch strings.TrimSpace(name) {
		case "bkfc":
			sources = append(sources, bkfc.NewExtractor())
		case "tapology":
			sources = append(sources, tapology.NewExtractor())
		case "":
		default:
			log.Printf("⚠️  Unknown source %q, skipping", name)
		}
	}
	if len(sources) == 0 {
		return nil, errNoSources
	}
	return sources, nil
}

var errNoSources = errors.New("no valid sources selected")

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
