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

// Device configures which volumes are accepted as managed devices.
type Device struct {
	Filesystems   []string `toml:"filesystems,omitempty,multiline"`
	MinCapacityMB int      `toml:"min_capacity_mb" validate:"gt=0"`
	MaxCapacityMB int      `toml:"max_capacity_mb" validate:"gtecsfield=MinCapacityMB"`
	ScanInterval  int      `toml:"scan_interval" validate:"gte=1"`
}

func (c *Instance) Device() Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dev := c.vals.Device
	dev.Filesystems = append([]string(nil), dev.Filesystems...)
	return dev
}

func (c *Instance) MinCapacityBytes() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(c.vals.Device.MinCapacityMB) * 1024 * 1024
}

func (c *Instance) MaxCapacityBytes() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return uint64(c.vals.Device.MaxCapacityMB) * 1024 * 1024
}

func (c *Instance) DeviceScanInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Device.ScanInterval) * time.Second
}
