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

package historydb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

func sqlAddSyncPass(ctx context.Context, db *sql.DB, pass SyncPass) (SyncPass, error) {
	stmt, err := db.PrepareContext(ctx, `
		insert into SyncPasses (
			DeviceID, MountPath, StartedAt, FinishedAt,
			FilesCopied, FilesFailed, BytesCopied, Errors, Success
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return pass, fmt.Errorf("failed to prepare add sync pass statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close add sync pass statement")
		}
	}(stmt)

	res, err := stmt.ExecContext(ctx,
		pass.DeviceID,
		pass.MountPath,
		pass.StartedAt.Unix(),
		pass.FinishedAt.Unix(),
		pass.FilesCopied,
		pass.FilesFailed,
		pass.BytesCopied,
		pass.Errors,
		pass.Success,
	)
	if err != nil {
		return pass, fmt.Errorf("failed to insert sync pass: %w", err)
	}

	if pass.DBID, err = res.LastInsertId(); err != nil {
		return pass, fmt.Errorf("failed to get sync pass insert id: %w", err)
	}
	return pass, nil
}

func sqlRecentPasses(ctx context.Context, db *sql.DB, deviceID string, limit int) ([]SyncPass, error) {
	query := `
		select DBID, DeviceID, MountPath, StartedAt, FinishedAt,
		       FilesCopied, FilesFailed, BytesCopied, Errors, Success
		from SyncPasses
	`
	args := make([]any, 0, 2)
	if deviceID != "" {
		query += " where DeviceID = ?"
		args = append(args, deviceID)
	}
	query += " order by StartedAt desc, DBID desc limit ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync passes: %w", err)
	}
	defer func(rows *sql.Rows) {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sync pass rows")
		}
	}(rows)

	passes := make([]SyncPass, 0, limit)
	for rows.Next() {
		pass, scanErr := scanSyncPass(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		passes = append(passes, pass)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync passes: %w", err)
	}
	return passes, nil
}

func sqlLastSuccessfulPass(ctx context.Context, db *sql.DB, deviceID string) (SyncPass, error) {
	row := db.QueryRowContext(ctx, `
		select DBID, DeviceID, MountPath, StartedAt, FinishedAt,
		       FilesCopied, FilesFailed, BytesCopied, Errors, Success
		from SyncPasses
		where DeviceID = ? and Success = 1
		order by StartedAt desc, DBID desc
		limit 1
	`, deviceID)
	return scanSyncPass(row)
}

func sqlPruneBefore(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		"delete from SyncPasses where StartedAt < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync passes: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned sync passes: %w", err)
	}
	return deleted, nil
}

func sqlTruncate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "delete from SyncPasses"); err != nil {
		return fmt.Errorf("failed to truncate sync passes: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSyncPass(row rowScanner) (SyncPass, error) {
	var (
		pass     SyncPass
		started  int64
		finished int64
	)
	err := row.Scan(
		&pass.DBID,
		&pass.DeviceID,
		&pass.MountPath,
		&started,
		&finished,
		&pass.FilesCopied,
		&pass.FilesFailed,
		&pass.BytesCopied,
		&pass.Errors,
		&pass.Success,
	)
	if err != nil {
		return pass, fmt.Errorf("failed to scan sync pass: %w", err)
	}
	pass.StartedAt = time.Unix(started, 0)
	pass.FinishedAt = time.Unix(finished, 0)
	return pass, nil
}
