package main

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/happycoon/coffee-table-reservation/internal/config"
	"github.com/happycoon/coffee-table-reservation/internal/database"
	"github.com/happycoon/coffee-table-reservation/internal/model"
	"github.com/happycoon/coffee-table-reservation/internal/repository"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	return db
}

func TestRunIsIdempotent(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	log := zerolog.New(io.Discard)
	seed := &config.Seed{
		Admins: []config.SeedAdmin{{Username: "boss", Email: "boss@happycoon.cafe", Password: "s3cret!"}},
		Tables: map[string]int{"two_guest_table": 3, "eight guest table": 1},
	}

	require.NoError(t, run(ctx, db, seed, bcrypt.MinCost, log))
	require.NoError(t, run(ctx, db, seed, bcrypt.MinCost, log))

	counts, err := repository.NewTableRepo(db).CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[model.TableType]int{model.TwoGuestTable: 3, model.EightGuestTable: 1}, counts)

	boss, err := repository.NewUserRepo(db).GetByUsername(ctx, "boss")
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin)
}

func TestRunPromotesExistingUser(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	_, err := users.Create(ctx, "barista", "barista@happycoon.cafe", "beans!", false, bcrypt.MinCost)
	require.NoError(t, err)

	seed := &config.Seed{Admins: []config.SeedAdmin{{Username: "barista", Email: "barista@happycoon.cafe", Password: "ignored"}}}
	require.NoError(t, run(ctx, db, seed, bcrypt.MinCost, zerolog.Nop()))

	u, err := users.GetByUsername(ctx, "barista")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestRunRejectsUnknownTableType(t *testing.T) {
	db := newDB(t)
	seed := &config.Seed{Tables: map[string]int{"bar_stool": 2}}
	assert.Error(t, run(context.Background(), db, seed, bcrypt.MinCost, zerolog.Nop()))
}
