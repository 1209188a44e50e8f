package db

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

type MySQLOpts = PoolOpts

// NewMySQLConnection opens a *sqlx.DB. The DSN is normalized so DATETIME columns
// scan into time.Time in UTC.
func NewMySQLConnection(dsn string, opts MySQLOpts) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty MySQL DSN")
	}
	normalized, err := NormalizeMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	return openPool("mysql", normalized, opts, 5*time.Second)
}

// NormalizeMySQLDSN forces parseTime and UTC on dsn.
func NormalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}
