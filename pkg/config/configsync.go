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

package config

import "time"

// Sync configures the incremental synchronization engine. Interval is in
// seconds; zero disables the periodic scheduler (attach-triggered passes
// still run).
type Sync struct {
	SourceRoots        []string `toml:"source_roots,omitempty,multiline"`
	MaxRetries         int      `toml:"max_retries" validate:"gte=0"`
	RetryBaseDelayMS   int      `toml:"retry_base_delay_ms" validate:"gte=1"`
	Interval           int      `toml:"interval" validate:"gte=0"`
	FreeSpaceReserveMB int      `toml:"free_space_reserve_mb" validate:"gte=0"`
}

// Updates configures the persisted version ledger and component archive.
type Updates struct {
	LedgerPath string `toml:"ledger_path,omitempty"`
	ArchiveDir string `toml:"archive_dir,omitempty"`
}

func (c *Instance) Sync() Sync {
	c.mu.RLock()
	defer c.mu.RUnlock()
	syn := c.vals.Sync
	syn.SourceRoots = append([]string(nil), syn.SourceRoots...)
	return syn
}

func (c *Instance) SetSourceRoots(roots []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Sync.SourceRoots = append([]string(nil), roots...)
}

func (c *Instance) SyncInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Sync.Interval) * time.Second
}

func (c *Instance) RetryBaseDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Sync.RetryBaseDelayMS) * time.Millisecond
}

func (c *Instance) FreeSpaceReserveBytes() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(c.vals.Sync.FreeSpaceReserveMB) * 1024 * 1024
}

func (c *Instance) Updates() Updates {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Updates
}
