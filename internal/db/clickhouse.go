package db

import (
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jmoiron/sqlx"
)

type ClickHouseOpts struct {
	DSN string // e.g. clickhouse://default:@localhost:9000/webhooks?dial_timeout=5s&compress=true
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration // default 3s
}

// NewClickHouseConnection opens the reporting replica used for protocol reads.
func NewClickHouseConnection(opts ClickHouseOpts) (*sqlx.DB, error) {
	return openPool("clickhouse", opts.DSN, PoolOpts{
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
		ConnMaxIdleTime: opts.ConnMaxIdleTime,
		PingTimeout:     opts.PingTimeout,
	}, 3*time.Second)
}
