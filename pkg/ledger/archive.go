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
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/SkyCartProject/skycart-core/pkg/checksum"
	"github.com/spf13/afero"
)

// Archiver files component payloads into a root/component/version/ tree and
// produces the matching VersionRecord for the ledger.
type Archiver struct {
	fs       afero.Fs
	verifier *checksum.Verifier
	root     string
}

// NewArchiver creates an Archiver rooted at root. A nil fs defaults to the
// OS filesystem.
func NewArchiver(fs afero.Fs, root string, verifier *checksum.Verifier) *Archiver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if verifier == nil {
		verifier = checksum.NewVerifier(fs)
	}
	return &Archiver{fs: fs, root: root, verifier: verifier}
}

// Path returns the archive location for one component version's file.
func (a *Archiver) Path(componentID, version, filename string) string {
	return filepath.Join(a.root, componentID, version, filename)
}

// Archive moves srcPath into the archive tree and returns a VersionRecord
// describing it. The record is not yet current; pass it to Ledger.SetCurrent.
func (a *Archiver) Archive(srcPath, componentID, version, sourceURL string) (VersionRecord, error) {
	info, err := a.fs.Stat(srcPath)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("failed to stat archive source: %w", err)
	}

	sum, err := a.verifier.SumFile(srcPath)
	if err != nil {
		return VersionRecord{}, err
	}

	destPath := a.Path(componentID, version, filepath.Base(srcPath))
	if err := a.fs.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return VersionRecord{}, fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := a.fs.Rename(srcPath, destPath); err != nil {
		// Rename fails across filesystems; fall back to copy-then-delete.
		if copyErr := a.copyAcross(srcPath, destPath); copyErr != nil {
			return VersionRecord{}, copyErr
		}
	}

	if err := a.verifier.VerifyFile(destPath, sum); err != nil {
		return VersionRecord{}, err
	}

	return VersionRecord{
		ComponentID:  componentID,
		Version:      version,
		FilePath:     destPath,
		FileSize:     info.Size(),
		FileHash:     sum,
		DownloadDate: time.Now().UTC(),
		SourceURL:    sourceURL,
	}, nil
}

func (a *Archiver) copyAcross(srcPath, destPath string) error {
	src, err := a.fs.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open archive source: %w", err)
	}
	defer func(f afero.File) {
		_ = f.Close()
	}(src)

	dest, err := a.fs.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}

	if _, err := io.Copy(dest, src); err != nil {
		_ = dest.Close()
		_ = a.fs.Remove(destPath)
		return fmt.Errorf("failed to copy into archive: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}

	if err := a.fs.Remove(srcPath); err != nil {
		return fmt.Errorf("failed to remove archive source: %w", err)
	}
	return nil
}
