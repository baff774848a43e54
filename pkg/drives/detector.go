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

package drives

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/disk"
)

// Detector enumerates currently mounted volumes. Scan performs no caching;
// callers decide polling cadence.
type Detector interface {
	Scan(ctx context.Context) ([]Volume, error)
}

// skipMountPrefixes are mount path prefixes that can never be a removable
// exchange device: pseudo filesystems, system volumes and cloud mounts.
var skipMountPrefixes = []string{
	"/proc", "/sys", "/dev", "/run", "/boot", "/snap",
	"/System", "/private", "/Library",
	"/Volumes/Macintosh HD",
}

// skipFilesystems are virtual filesystem types excluded from scans.
var skipFilesystems = map[string]struct{}{
	"tmpfs":      {},
	"devtmpfs":   {},
	"devfs":      {},
	"overlay":    {},
	"squashfs":   {},
	"proc":       {},
	"sysfs":      {},
	"cgroup2":    {},
	"autofs":     {},
	"fuse.sshfs": {},
}

// SystemDetector scans the host's mount table.
type SystemDetector struct{}

// NewSystemDetector creates a Detector backed by the OS mount table.
func NewSystemDetector() *SystemDetector {
	return &SystemDetector{}
}

// Scan returns a snapshot of every mounted volume that could plausibly be a
// removable device. Volumes whose usage cannot be read are skipped, not an
// error: a device can disappear between enumeration and stat.
func (*SystemDetector) Scan(ctx context.Context) ([]Volume, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	volumes := make([]Volume, 0, len(parts))
	for _, part := range parts {
		if skipMount(part.Mountpoint, part.Fstype) {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, part.Mountpoint)
		if err != nil {
			log.Debug().
				Str("mount", part.Mountpoint).
				Err(err).
				Msg("skipping volume with unreadable usage")
			continue
		}

		volumes = append(volumes, Volume{
			MountPath:      part.Mountpoint,
			DevicePath:     part.Device,
			FilesystemType: part.Fstype,
			CapacityBytes:  usage.Total,
			FreeBytes:      usage.Free,
		})
	}

	return volumes, nil
}

func skipMount(mountpoint, fstype string) bool {
	if _, ok := skipFilesystems[strings.ToLower(fstype)]; ok {
		return true
	}
	for _, prefix := range skipMountPrefixes {
		if mountpoint == prefix || strings.HasPrefix(mountpoint, prefix+"/") {
			return true
		}
	}
	return false
}
