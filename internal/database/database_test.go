package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/zaporka-api/internal/config"
	"github.com/iliyamo/zaporka-api/internal/database/migrations"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DBConfig{User: "app", Pass: "pw", Host: "db", Port: "3306", Name: "zaporka"})

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "app", mc.User)
	assert.Equal(t, "pw", mc.Passwd)
	assert.Equal(t, "db:3306", mc.Addr)
	assert.Equal(t, "zaporka", mc.DBName)
	assert.True(t, mc.ParseTime)
	assert.True(t, mc.ClientFoundRows)
}

func TestMigrations_Embedded(t *testing.T) {
	names, err := migrations.Migrations.ReadDir(".")
	require.NoError(t, err)

	var files []string
	for _, n := range names {
		files = append(files, n.Name())
	}
	assert.Contains(t, files, "00001_accounts.sql")
	assert.Contains(t, files, "00002_categories.sql")

	body, err := migrations.Migrations.ReadFile("00001_accounts.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "UNIQUE KEY uq_accounts_phone_number")
}

func TestMigrate(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, ".", gotDir)

	gooseUp = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	err = Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "boom")
}
