// SkyCart Core
// Copyright (c) 2026 The SkyCart Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of SkyCart Core.
//
// SkyCart Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SkyCart Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with SkyCart Core.  If not, see <http://www.gnu.org/licenses/>.

// Package historydb records the outcome of completed transfer passes in a
// local sqlite database so operators can review what was copied to a
// device and when.
package historydb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SkyCartProject/skycart-core/pkg/config"
	"github.com/SkyCartProject/skycart-core/pkg/database"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrNullDB is returned when a method is called on a closed or
// unopened store.
var ErrNullDB = errors.New("history database is not connected")

// SyncPass is one completed transfer pass against a managed device.
type SyncPass struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	DeviceID    string
	MountPath   string
	Errors      string
	DBID        int64
	FilesCopied int
	FilesFailed int
	BytesCopied int64
	Success     bool
}

// HistoryDB wraps the sqlite connection holding pass history.
type HistoryDB struct {
	sql *sql.DB
}

// OpenHistoryDB opens (creating and migrating if necessary) the history
// database under dataDir.
func OpenHistoryDB(dataDir string) (*HistoryDB, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, config.HistoryDbFile)
	db, err := sql.Open("sqlite3",
		dbPath+"?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &HistoryDB{sql: db}, nil
}

// UnsafeGetSQLDb exposes the underlying connection for tests.
func (db *HistoryDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *HistoryDB) Close() error {
	if db.sql == nil {
		return nil
	}
	if err := db.sql.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	db.sql = nil
	return nil
}

// AddSyncPass appends a completed pass and returns it with DBID set.
func (db *HistoryDB) AddSyncPass(ctx context.Context, pass SyncPass) (SyncPass, error) {
	if db.sql == nil {
		return pass, ErrNullDB
	}
	return sqlAddSyncPass(ctx, db.sql, pass)
}

// RecentPasses returns up to limit passes for a device, newest first. An
// empty deviceID returns passes for all devices.
func (db *HistoryDB) RecentPasses(ctx context.Context, deviceID string, limit int) ([]SyncPass, error) {
	if db.sql == nil {
		return nil, ErrNullDB
	}
	return sqlRecentPasses(ctx, db.sql, deviceID, limit)
}

// LastSuccessfulPass returns the most recent successful pass for a device,
// or sql.ErrNoRows if the device has never completed one.
func (db *HistoryDB) LastSuccessfulPass(ctx context.Context, deviceID string) (SyncPass, error) {
	if db.sql == nil {
		return SyncPass{}, ErrNullDB
	}
	return sqlLastSuccessfulPass(ctx, db.sql, deviceID)
}

// PruneBefore removes pass records older than cutoff and reports how many
// rows were deleted.
func (db *HistoryDB) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullDB
	}
	return sqlPruneBefore(ctx, db.sql, cutoff)
}

// Truncate removes all pass history.
func (db *HistoryDB) Truncate(ctx context.Context) error {
	if db.sql == nil {
		return ErrNullDB
	}
	return sqlTruncate(ctx, db.sql)
}
