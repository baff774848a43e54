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

package checksum

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumFileIdenticalContent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.bin", []byte("flight data"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/b.bin", []byte("flight data"), 0o644))

	v := NewVerifier(fs)

	sumA, err := v.SumFile("/a.bin")
	require.NoError(t, err)
	sumB, err := v.SumFile("/b.bin")
	require.NoError(t, err)

	assert.Equal(t, sumA, sumB)

	match, err := v.FilesMatch("/a.bin", "/b.bin")
	require.NoError(t, err)
	assert.True(t, match)
}

func TestSumFileDifferingContent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.bin", []byte("flight data"), 0o644))
	// Same length, one byte different.
	require.NoError(t, afero.WriteFile(fs, "/b.bin", []byte("flight dAta"), 0o644))

	v := NewVerifier(fs)

	match, err := v.FilesMatch("/a.bin", "/b.bin")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestVerifyFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.bin", []byte("payload"), 0o644))

	v := NewVerifier(fs)

	want, err := v.SumReader(strings.NewReader("payload"))
	require.NoError(t, err)
	require.NoError(t, v.VerifyFile("/a.bin", want))

	wrong, err := v.SumReader(strings.NewReader("other"))
	require.NoError(t, err)
	err = v.VerifyFile("/a.bin", wrong)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestVerifyFileMissing(t *testing.T) {
	t.Parallel()

	v := NewVerifier(afero.NewMemMapFs())
	_, err := v.SumFile("/missing.bin")
	require.Error(t, err)
}

func TestShortID(t *testing.T) {
	t.Parallel()

	id := ShortID("/dev/disk2s1:31914983424:42")
	assert.Len(t, id, 8)
	assert.Equal(t, id, ShortID("/dev/disk2s1:31914983424:42"), "must be stable")
	assert.NotEqual(t, id, ShortID("/dev/disk3s1:31914983424:42"))
}
