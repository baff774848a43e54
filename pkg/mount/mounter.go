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

// Package mount keeps a host-side virtual disk mount alive: an external
// mount primitive wrapped per platform, and a supervisor that health-checks
// the mount and recovers it when it disappears.
package mount

import (
	"context"

	"github.com/SkyCartProject/skycart-core/pkg/drives"
)

// MountStatus classifies the outcome of a mount attempt. Everything except
// StatusMounted and StatusAlreadyMounted is a recoverable failure, not
// fatal; the supervisor decides when to give up.
type MountStatus string

const (
	StatusMounted          MountStatus = "mounted"
	StatusAlreadyMounted   MountStatus = "already_mounted"
	StatusImageNotFound    MountStatus = "image_not_found"
	StatusToolNotFound     MountStatus = "tool_not_found"
	StatusPermissionDenied MountStatus = "permission_denied"
	StatusTargetBusy       MountStatus = "target_busy"
	StatusUnknown          MountStatus = "unknown"
)

// MountResult reports where an image ended up mounted.
type MountResult struct {
	AssignedPath string
	Status       MountStatus
}

// Mounter is the external mount/unmount primitive, invoked as an external
// process. Non-zero exits surface as errors with a classified status.
type Mounter interface {
	Mount(ctx context.Context, imagePath, target string) (MountResult, error)
	Unmount(ctx context.Context, target string, force bool) error
	List(ctx context.Context) ([]drives.Volume, error)
}
