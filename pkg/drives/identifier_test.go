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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVolume(mount string) Volume {
	return Volume{
		MountPath:      mount,
		DevicePath:     "/dev/disk2s1",
		FilesystemType: "FAT32",
		CapacityBytes:  32 * 1024 * 1024 * 1024,
		FreeBytes:      16 * 1024 * 1024 * 1024,
	}
}

func TestIdentifyDemoLogsInSubdir(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/vol/DEMO", 0o755))
	require.NoError(t, afero.WriteFile(fs,
		"/vol/DEMO/DEMO-20260812-142233.LOG", []byte("x"), 0o644))

	dev, ok := NewIdentifier(fs).Identify(testVolume("/vol"))
	require.True(t, ok)
	assert.True(t, dev.HasCategory(CategoryDemoLog))
	assert.False(t, dev.HasCategory(CategorySnapshot))
	assert.Len(t, dev.Identifier, 8)
}

func TestIdentifyDemoLogSequenceSuffix(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs,
		"/vol/DEMO-20260812-142233+2.LOG", []byte("x"), 0o644))

	dev, ok := NewIdentifier(fs).Identify(testVolume("/vol"))
	require.True(t, ok)
	assert.True(t, dev.HasCategory(CategoryDemoLog))
}

func TestIdentifySnapshotsAndLogbook(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/vol/SNAP", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/vol/SNAP/SCREEN01.PNG", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/vol/pilot-logbook-2026.csv", []byte("x"), 0o644))

	dev, ok := NewIdentifier(fs).Identify(testVolume("/vol"))
	require.True(t, ok)
	assert.True(t, dev.HasCategory(CategorySnapshot))
	assert.True(t, dev.HasCategory(CategoryLogbook))
}

func TestIdentifyRejectsUnrelatedVolume(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/vol/vacation.jpg", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/vol/notes.txt", []byte("x"), 0o644))

	dev, ok := NewIdentifier(fs).Identify(testVolume("/vol"))
	assert.False(t, ok)
	assert.Nil(t, dev, "no ManagedDevice for an unidentified volume")
}

func TestIdentifyMarkerAloneIsNotEnough(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/vol/EFIS_DRIVE.TXT", []byte("x"), 0o644))

	_, ok := NewIdentifier(fs).Identify(testVolume("/vol"))
	assert.False(t, ok, "acceptance requires a content category")
}

func TestIdentifyRejectsNearMissFilenames(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/vol/DEMO-2026-142233.LOG", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/vol/logbook.csv.bak", []byte("x"), 0o644))

	_, ok := NewIdentifier(fs).Identify(testVolume("/vol"))
	assert.False(t, ok)
}

func TestIdentifyUnreadableVolume(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	_, ok := NewIdentifier(fs).Identify(testVolume("/does-not-exist"))
	assert.False(t, ok)
}

func TestDeviceIdentifierStable(t *testing.T) {
	t.Parallel()

	vol := testVolume("/vol")
	idA := deviceIdentifier(vol, 3)
	idB := deviceIdentifier(vol, 3)
	assert.Equal(t, idA, idB)
	assert.NotEqual(t, idA, deviceIdentifier(vol, 4))
}
