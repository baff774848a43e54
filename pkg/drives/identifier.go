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
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/SkyCartProject/skycart-core/pkg/checksum"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// signature describes one recognizable content category: a filename pattern
// searched for in a set of top-level directories ("" means the volume root).
// Signatures are data, not conditionals; add new categories here.
type signature struct {
	pattern  *regexp.Regexp
	category Category
	dirs     []string
}

var signatures = []signature{
	{
		category: CategoryDemoLog,
		dirs:     []string{"DEMO", ""},
		pattern:  regexp.MustCompile(`^DEMO-\d{8}-\d{6}(\+\d+)?\.LOG$`),
	},
	{
		category: CategorySnapshot,
		dirs:     []string{"SNAP", ""},
		pattern:  regexp.MustCompile(`(?i)\.png$`),
	},
	{
		category: CategoryLogbook,
		dirs:     []string{""},
		pattern:  regexp.MustCompile(`(?i)logbook.*\.csv$`),
	},
}

// markerFiles are instrument-written files that strongly suggest a managed
// device. They are logged as supporting evidence but acceptance always
// requires at least one content category.
var markerFiles = []string{"EFIS_DRIVE.TXT", "NAV.DB"}

// Identifier classifies volumes by directory content.
type Identifier struct {
	fs afero.Fs
}

// NewIdentifier creates an Identifier. A nil fs defaults to the OS
// filesystem.
func NewIdentifier(fs afero.Fs) *Identifier {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Identifier{fs: fs}
}

// Identify inspects a volume's contents against the known signatures.
// Returns ok=false when no recognized content category is present; a
// ManagedDevice is never constructed for an unidentified volume.
func (i *Identifier) Identify(vol Volume) (*ManagedDevice, bool) {
	entries, err := afero.ReadDir(i.fs, vol.MountPath)
	if err != nil {
		log.Debug().Str("mount", vol.MountPath).Err(err).
			Msg("cannot list volume root")
		return nil, false
	}

	categories := make(map[Category]struct{})
	for _, sig := range signatures {
		if i.matchSignature(vol.MountPath, sig) {
			categories[sig.category] = struct{}{}
		}
	}

	if len(categories) == 0 {
		return nil, false
	}

	for _, marker := range markerFiles {
		if exists, _ := afero.Exists(i.fs, filepath.Join(vol.MountPath, marker)); exists {
			log.Debug().Str("mount", vol.MountPath).Str("marker", marker).
				Msg("instrument marker file present")
		}
	}

	dev := &ManagedDevice{
		Volume:     vol,
		Identifier: deviceIdentifier(vol, len(entries)),
		Categories: categories,
	}

	cats := make([]string, 0, len(categories))
	for c := range categories {
		cats = append(cats, string(c))
	}
	log.Info().
		Str("mount", vol.MountPath).
		Str("id", dev.Identifier).
		Strs("categories", cats).
		Msg("identified managed device")

	return dev, true
}

func (i *Identifier) matchSignature(root string, sig signature) bool {
	for _, dir := range sig.dirs {
		searchPath := root
		if dir != "" {
			searchPath = filepath.Join(root, dir)
		}

		entries, err := afero.ReadDir(i.fs, searchPath)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if sig.pattern.MatchString(entry.Name()) {
				return true
			}
		}
	}
	return false
}

// deviceIdentifier derives a short stable ID from volume characteristics.
// Labels are excluded on purpose: they are renamable from any desktop.
func deviceIdentifier(vol Volume, topLevelCount int) string {
	seed := fmt.Sprintf("%s:%d:%d",
		strings.TrimSuffix(vol.DevicePath, "/"),
		vol.CapacityBytes,
		topLevelCount,
	)
	return checksum.ShortID(seed)
}
