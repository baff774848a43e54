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

package ledger

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveMovesAndRecords(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/downloads/fw.bin", []byte("firmware v2"), 0o644))

	a := NewArchiver(fs, "/archive", nil)
	rec, err := a.Archive("/downloads/fw.bin", "fw", "2.0", "https://example.com/fw.bin")
	require.NoError(t, err)

	assert.Equal(t, "fw", rec.ComponentID)
	assert.Equal(t, "2.0", rec.Version)
	assert.Equal(t, "/archive/fw/2.0/fw.bin", rec.FilePath)
	assert.EqualValues(t, len("firmware v2"), rec.FileSize)
	assert.False(t, rec.IsCurrent, "caller decides currency via SetCurrent")

	// Source is gone, destination holds the bytes.
	exists, err := afero.Exists(fs, "/downloads/fw.bin")
	require.NoError(t, err)
	assert.False(t, exists)

	data, err := afero.ReadFile(fs, rec.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "firmware v2", string(data))
}

func TestArchiveMissingSource(t *testing.T) {
	t.Parallel()

	a := NewArchiver(afero.NewMemMapFs(), "/archive", nil)
	_, err := a.Archive("/downloads/missing.bin", "fw", "2.0", "")
	require.Error(t, err)
}

func TestArchiveThenSetCurrent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/downloads/db.bin", []byte("navdata"), 0o644))

	a := NewArchiver(fs, "/archive", nil)
	rec, err := a.Archive("/downloads/db.bin", "navdata", "26.8", "")
	require.NoError(t, err)

	l := NewLedger(fs, ledgerPath, nil)
	require.NoError(t, l.SetCurrent(rec))
	require.NoError(t, l.VerifyCurrent("navdata"))
}
