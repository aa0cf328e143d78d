package gormrepo

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// migrationLockKey serializes concurrent servers migrating the same database.
const migrationLockKey int64 = 0x5a5253494d

type schemaMigration struct {
	Version string `gorm:"column:version;primaryKey"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

// ApplyMigrations runs the *.sql files of fsys in lexical order. Each file is
// applied in its own transaction holding an advisory lock, and the applied
// check happens under that lock so two servers never run the same file.
func ApplyMigrations(ctx context.Context, db *gorm.DB, fsys fs.FS) error {
	const ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if err := db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyOne(ctx, db, strings.TrimSuffix(name, ".sql"), string(body)); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(ctx context.Context, db *gorm.DB, version, body string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(?)`, migrationLockKey).Error; err != nil {
			return fmt.Errorf("lock migration %s: %w", version, err)
		}
		var n int64
		if err := tx.Model(&schemaMigration{}).Where("version = ?", version).Count(&n).Error; err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if n > 0 {
			return nil
		}
		if err := tx.Exec(body).Error; err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if err := tx.Create(&schemaMigration{Version: version}).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		return nil
	})
}

// AppliedVersions lists recorded migrations in order.
func AppliedVersions(ctx context.Context, db *gorm.DB) ([]string, error) {
	var rows []schemaMigration
	if err := db.WithContext(ctx).Order("version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Version)
	}
	return out, nil
}
