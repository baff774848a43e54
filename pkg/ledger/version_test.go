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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a    string
		b    string
		want int
	}{
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"1.5", "1.5", 0},
		{"1.10", "1.2", 1},
		{"2.0.1", "2.0", 1},
		{"2.0", "2.0.1", -1},
		{"1", "1.0.0", 0},
		{"0.9.9", "1", -1},
		{"10.0", "9.99.99", 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			t.Parallel()
			got, err := CompareVersions(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareVersionsBadInput(t *testing.T) {
	t.Parallel()

	bad := []string{"", "1.0-beta", "v1.0", "1..0", "1.x", "-1.0"}
	for _, v := range bad {
		_, err := CompareVersions(v, "1.0")
		assert.ErrorIs(t, err, ErrBadVersion, "version %q", v)

		_, err = CompareVersions("1.0", v)
		assert.ErrorIs(t, err, ErrBadVersion, "version %q", v)
	}
}

func TestCompareVersionsTrimsWhitespace(t *testing.T) {
	t.Parallel()

	got, err := CompareVersions(" 1.2 ", "1.2")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}
