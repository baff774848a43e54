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

// Mount configures the supervised virtual disk mount. All intervals and
// delays are in seconds.
type Mount struct {
	ImagePath           string `toml:"image_path,omitempty"`
	MountPoint          string `toml:"mount_point,omitempty"`
	CheckInterval       int    `toml:"check_interval" validate:"gte=5"`
	RemountRetryDelay   int    `toml:"remount_retry_delay" validate:"gte=1"`
	MaxRecoveryFailures int    `toml:"max_recovery_failures" validate:"gte=1"`
	HealthFailThreshold int    `toml:"health_fail_threshold" validate:"gte=1"`
	MountTimeout        int    `toml:"mount_timeout" validate:"gte=1"`
}

func (c *Instance) Mount() Mount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Mount
}

func (c *Instance) SetMountImage(imagePath, mountPoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Mount.ImagePath = imagePath
	c.vals.Mount.MountPoint = mountPoint
}

func (c *Instance) MountCheckInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Mount.CheckInterval) * time.Second
}

func (c *Instance) RemountRetryDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Mount.RemountRetryDelay) * time.Second
}

func (c *Instance) MountTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Mount.MountTimeout) * time.Second
}
