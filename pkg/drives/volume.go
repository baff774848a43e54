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

// Package drives enumerates attached volumes and classifies the ones that
// belong to the avionics data-exchange workflow. Classification is by
// content inspection only; volume labels are user-renamable and never
// trusted.
package drives

// Volume is an immutable snapshot of one mounted filesystem, re-created on
// every detection scan. There is no long-lived identity beyond DevicePath.
type Volume struct {
	MountPath      string
	DevicePath     string
	FilesystemType string
	CapacityBytes  uint64
	FreeBytes      uint64
}

// Category tags the kind of instrument content found on a device.
type Category string

const (
	CategoryDemoLog  Category = "demo_log"
	CategorySnapshot Category = "snapshot"
	CategoryLogbook  Category = "logbook"
	CategoryUnknown  Category = "unknown"
)

// ManagedDevice is a Volume that passed content identification. It is only
// ever constructed by Identifier.Identify.
type ManagedDevice struct {
	Volume
	Identifier string
	Categories map[Category]struct{}
}

// HasCategory reports whether the device carries content of the given kind.
func (d *ManagedDevice) HasCategory(c Category) bool {
	_, ok := d.Categories[c]
	return ok
}
