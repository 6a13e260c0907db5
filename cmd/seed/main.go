// Command seed provisions administrators and the table inventory.  It is
// idempotent: existing admins are kept (and promoted if needed) and tables
// are only added until each type reaches the count declared in the seed.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/happycoon/coffee-table-reservation/internal/config"
	"github.com/happycoon/coffee-table-reservation/internal/database"
	"github.com/happycoon/coffee-table-reservation/internal/logging"
	"github.com/happycoon/coffee-table-reservation/internal/model"
	"github.com/happycoon/coffee-table-reservation/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	path := os.Getenv("SEED_FILE")
	if path == "" {
		path = "seed.yaml"
	}
	seed, err := config.LoadSeed(path)
	if err != nil {
		log.Fatal().Err(err).Msg("load seed")
	}

	db, dialect, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	if err := run(ctx, db, seed, cfg.BcryptCost, log); err != nil {
		log.Fatal().Err(err).Msg("seed")
	}
	log.Info().Str("file", path).Msg("seed complete")
}

func run(ctx context.Context, db *sql.DB, seed *config.Seed, cost int, log zerolog.Logger) error {
	users := repository.NewUserRepo(db)
	for _, a := range seed.Admins {
		if err := ensureAdmin(ctx, users, a, cost, log); err != nil {
			return err
		}
	}
	return topUpTables(ctx, repository.NewTableRepo(db), seed.Tables, log)
}

func ensureAdmin(ctx context.Context, users *repository.UserRepo, a config.SeedAdmin, cost int, log zerolog.Logger) error {
	u, err := users.GetByUsername(ctx, a.Username)
	if errors.Is(err, repository.ErrUserNotFound) {
		u, err = users.GetByEmail(ctx, a.Email)
	}
	switch {
	case err == nil:
		if u.IsAdmin {
			log.Info().Str("username", u.Username).Msg("admin exists")
			return nil
		}
		if err := users.SetAdmin(ctx, u.ID, true); err != nil {
			return fmt.Errorf("promote %s: %w", u.Username, err)
		}
		log.Info().Str("username", u.Username).Msg("user promoted to admin")
		return nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return fmt.Errorf("look up %s: %w", a.Username, err)
	}

	id, err := users.Create(ctx, a.Username, a.Email, a.Password, true, cost)
	if err != nil {
		return fmt.Errorf("create admin %s: %w", a.Username, err)
	}
	log.Info().Str("username", a.Username).Uint64("id", id).Msg("admin created")
	return nil
}

func topUpTables(ctx context.Context, tables *repository.TableRepo, want map[string]int, log zerolog.Logger) error {
	have, err := tables.CountByType(ctx)
	if err != nil {
		return fmt.Errorf("count tables: %w", err)
	}

	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tt, ok := model.ParseTableType(name)
		if !ok {
			return fmt.Errorf("seed tables: unknown table type %q", name)
		}
		added := 0
		for n := have[tt]; n < want[name]; n++ {
			if _, err := tables.Create(ctx, tt); err != nil {
				return fmt.Errorf("create %s: %w", tt, err)
			}
			added++
		}
		have[tt] += added
		log.Info().Str("table_type", string(tt)).Int("added", added).Int("total", have[tt]).Msg("tables")
	}
	return nil
}
