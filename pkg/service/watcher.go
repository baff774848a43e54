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
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// runWatcher watches the OS volumes directory (e.g. /media/<user> or
// /Volumes) and requests a scan when a mount point appears or goes away.
// The polling scan loop remains the source of truth; the watcher only
// shortens the latency between plugging a device and the first pass.
func (s *Service) runWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create attach watcher: %w", err)
	}
	defer func(w *fsnotify.Watcher) {
		_ = w.Close()
	}(watcher)

	if err := watcher.Add(s.watchDir); err != nil {
		// Not fatal: some hosts mount removable media elsewhere. The
		// scan ticker still covers detection.
		log.Warn().Str("dir", s.watchDir).Err(err).
			Msg("cannot watch volumes directory, relying on polling")
		<-ctx.Done()
		return nil
	}

	log.Info().Str("dir", s.watchDir).Msg("watching for device attach events")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Remove) {
				log.Debug().Str("path", event.Name).Str("op", event.Op.String()).
					Msg("volumes directory changed")
				s.RequestScan()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("attach watcher error")
		}
	}
}
