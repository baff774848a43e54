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
	"context"

	"github.com/rs/zerolog/log"
)

// runScheduler forces a periodic pass over all attached devices, catching
// files that changed on the source side while devices stayed plugged in.
// A sync interval of zero disables it; attach-triggered passes still run.
func (s *Service) runScheduler(ctx context.Context) error {
	interval := s.cfg.SyncInterval()
	if interval <= 0 {
		log.Debug().Msg("periodic sync disabled")
		<-ctx.Done()
		return nil
	}

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			log.Debug().Msg("scheduled sync pass")
			s.RequestScan()
		}
	}
}
