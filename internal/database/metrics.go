package database

import (
	"time"

	"techfeed/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "techfeed:query_start"

// metricsPlugin records per-query latency into the Prometheus histogram,
// labelled by operation and table.
type metricsPlugin struct{}

func (metricsPlugin) Name() string { return "techfeed:metrics" }

func (metricsPlugin) Initialize(db *gorm.DB) error {
	start := func(db *gorm.DB) {
		db.InstanceSet(queryStartKey, time.Now())
	}
	finish := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			v, ok := db.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			startedAt, ok := v.(time.Time)
			if !ok {
				return
			}
			table := db.Statement.Table
			if table == "" {
				table = "unknown"
			}
			observability.ObserveQuery(operation, table, startedAt)
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("techfeed:metrics_create_start", start); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("techfeed:metrics_create_end", finish("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("techfeed:metrics_query_start", start); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("techfeed:metrics_query_end", finish("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("techfeed:metrics_update_start", start); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("techfeed:metrics_update_end", finish("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("techfeed:metrics_delete_start", start); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("techfeed:metrics_delete_end", finish("delete")); err != nil {
		return err
	}
	return nil
}
