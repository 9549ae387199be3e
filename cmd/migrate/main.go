package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/infrastructure/migration"
	"github.com/pos/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// migrate applies the schema across the fleet: the default store database
// plus every store listed in the tenant configuration.
//
// Usage:
//
//	migrate -path ./migrations up
//	migrate -path ./migrations -store acme down
//	migrate -path ./migrations version
func main() {
	var (
		path  = flag.String("path", "migrations", "path to migration files")
		store = flag.String("store", "", "migrate only this store subdomain")
	)
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	targets := buildTargets(cfg, *store)
	if len(targets) == 0 {
		log.Fatal("no matching store", zap.String("store", *store))
	}

	if err := run(command, targets, *path, log); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

func buildTargets(cfg *config.Config, only string) []migration.Target {
	targets := []migration.Target{{
		Subdomain: cfg.Tenant.DefaultSubdomain,
		URL:       cfg.Database.DSN(),
	}}
	for _, s := range cfg.Tenant.Stores {
		if !s.Active {
			continue
		}
		targets = append(targets, migration.Target{
			Subdomain: s.Subdomain,
			URL:       persistence.NormalizeDSN(s.ConnectionURI),
		})
	}

	if only == "" {
		return targets
	}
	for _, t := range targets {
		if t.Subdomain == only {
			return []migration.Target{t}
		}
	}
	return nil
}

func run(command string, targets []migration.Target, path string, log *zap.Logger) error {
	switch command {
	case "up":
		return migration.UpAll(targets, path, log)
	case "down", "version":
		for _, t := range targets {
			m, err := migration.New(t.URL, path, log.With(zap.String("subdomain", t.Subdomain)))
			if err != nil {
				return err
			}
			switch command {
			case "down":
				err = m.Down()
			case "version":
				var version uint
				var dirty bool
				version, dirty, err = m.Version()
				if err == nil {
					log.Info("store schema version",
						zap.String("subdomain", t.Subdomain),
						zap.Uint("version", version),
						zap.Bool("dirty", dirty))
				}
			}
			if cerr := m.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", command)
	}
}
