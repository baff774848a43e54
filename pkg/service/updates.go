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

package service

import (
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrNoLedger is returned by ApplyUpdates when the service was assembled
// without a version ledger.
var ErrNoLedger = errors.New("no version ledger attached")

// UpdateInfo is one externally supplied manifest record describing an
// available component version. Fetching the component is out of scope;
// the service only decides staleness against the ledger.
type UpdateInfo struct {
	ComponentID      string
	AvailableVersion string
	DownloadURL      string
	FileSize         int64
}

// UpdateDecision is the ledger's verdict on one manifest record.
type UpdateDecision struct {
	ComponentID      string
	AvailableVersion string
	Reason           string
	Needed           bool
}

// ApplyUpdates checks each manifest record against the version ledger and
// returns the per-component verdicts. A malformed version in one record is
// reported in its decision and does not disturb the others.
func (s *Service) ApplyUpdates(updates []UpdateInfo) ([]UpdateDecision, error) {
	if s.ldg == nil {
		return nil, ErrNoLedger
	}

	decisions := make([]UpdateDecision, 0, len(updates))
	for _, upd := range updates {
		decision := UpdateDecision{
			ComponentID:      upd.ComponentID,
			AvailableVersion: upd.AvailableVersion,
		}

		needed, err := s.ldg.NeedsUpdate(upd.ComponentID, upd.AvailableVersion)
		switch {
		case err != nil:
			decision.Reason = err.Error()
			log.Warn().
				Str("component", upd.ComponentID).
				Str("version", upd.AvailableVersion).
				Err(err).
				Msg("cannot evaluate update")
		case needed:
			decision.Needed = true
			decision.Reason = "newer than current"
			log.Info().
				Str("component", upd.ComponentID).
				Str("version", upd.AvailableVersion).
				Str("url", upd.DownloadURL).
				Msg("update available")
		default:
			decision.Reason = "current version is up to date"
		}

		decisions = append(decisions, decision)
	}
	return decisions, nil
}
