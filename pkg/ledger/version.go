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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadVersion is returned for version strings with non-numeric
// dot-segments (e.g. "1.0-beta"). Comparison of such versions is
// unspecified, so they are flagged rather than guessed at.
var ErrBadVersion = errors.New("unparseable version")

// CompareVersions compares two numeric dot-segment versions. Segments are
// compared numerically left to right and a shorter sequence is padded with
// zeros, so "2.0" < "2.0.1" and "1.10" > "1.2". Returns -1, 0 or 1.
func CompareVersions(a, b string) (int, error) {
	segsA, err := versionSegments(a)
	if err != nil {
		return 0, err
	}
	segsB, err := versionSegments(b)
	if err != nil {
		return 0, err
	}

	for len(segsA) < len(segsB) {
		segsA = append(segsA, 0)
	}
	for len(segsB) < len(segsA) {
		segsB = append(segsB, 0)
	}

	for i := range segsA {
		switch {
		case segsA[i] < segsB[i]:
			return -1, nil
		case segsA[i] > segsB[i]:
			return 1, nil
		}
	}
	return 0, nil
}

func versionSegments(v string) ([]int, error) {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty string", ErrBadVersion)
	}

	parts := strings.Split(trimmed, ".")
	segs := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrBadVersion, v)
		}
		segs = append(segs, n)
	}
	return segs, nil
}
