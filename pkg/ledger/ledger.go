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

// Package ledger persists per-component version records and answers
// staleness queries. The store is a single human-inspectable JSON file;
// every mutation is a serialized read-modify-write so the "at most one
// current record per component" invariant holds under concurrent callers.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SkyCartProject/skycart-core/pkg/checksum"
	"github.com/SkyCartProject/skycart-core/pkg/helpers/syncutil"
	"github.com/opencontainers/go-digest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrNoCurrent is returned when a component has no current record.
var ErrNoCurrent = errors.New("no current record for component")

const fileSchemaVersion = 1

// VersionRecord describes one archived version of a managed component.
type VersionRecord struct {
	DownloadDate time.Time     `json:"download_date"`
	ComponentID  string        `json:"component_id"`
	Version      string        `json:"version"`
	FilePath     string        `json:"file_path"`
	FileHash     digest.Digest `json:"file_hash"`
	SourceURL    string        `json:"source_url,omitempty"`
	FileSize     int64         `json:"file_size"`
	IsCurrent    bool          `json:"is_current"`
}

type ledgerFile struct {
	Records []VersionRecord `json:"records"`
	Schema  int             `json:"schema"`
}

// Ledger is the persisted version store. Construct with NewLedger.
type Ledger struct {
	fs       afero.Fs
	verifier *checksum.Verifier
	path     string
	mu       syncutil.Mutex
}

// NewLedger creates a Ledger backed by the JSON file at path. A nil fs
// defaults to the OS filesystem.
func NewLedger(fs afero.Fs, path string, verifier *checksum.Verifier) *Ledger {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if verifier == nil {
		verifier = checksum.NewVerifier(fs)
	}
	return &Ledger{fs: fs, path: path, verifier: verifier}
}

// NeedsUpdate reports whether candidateVersion is newer than the stored
// current version for componentID. True when no current record exists.
func (l *Ledger) NeedsUpdate(componentID, candidateVersion string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lf, err := l.load()
	if err != nil {
		return false, err
	}

	current, ok := currentRecord(lf, componentID)
	if !ok {
		return true, nil
	}

	cmp, err := CompareVersions(current.Version, candidateVersion)
	if err != nil {
		return false, err
	}
	return cmp < 0, nil
}

// Current returns the record marked current for componentID.
func (l *Ledger) Current(componentID string) (VersionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lf, err := l.load()
	if err != nil {
		return VersionRecord{}, err
	}
	current, ok := currentRecord(lf, componentID)
	if !ok {
		return VersionRecord{}, fmt.Errorf("%w: %s", ErrNoCurrent, componentID)
	}
	return current, nil
}

// Records returns every stored record for componentID, oldest first.
func (l *Ledger) Records(componentID string) ([]VersionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lf, err := l.load()
	if err != nil {
		return nil, err
	}
	var records []VersionRecord
	for _, rec := range lf.Records {
		if rec.ComponentID == componentID {
			records = append(records, rec)
		}
	}
	return records, nil
}

// SetCurrent stores rec and marks it current, clearing the current flag on
// any previous record for the same component. The update is written
// atomically; there is no observable state with two current records.
func (l *Ledger) SetCurrent(rec VersionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lf, err := l.load()
	if err != nil {
		return err
	}

	kept := lf.Records[:0]
	for _, existing := range lf.Records {
		if existing.ComponentID == rec.ComponentID {
			if existing.Version == rec.Version {
				// Replaced below by the incoming record.
				continue
			}
			existing.IsCurrent = false
		}
		kept = append(kept, existing)
	}
	lf.Records = kept

	rec.IsCurrent = true
	lf.Records = append(lf.Records, rec)

	if err := l.save(lf); err != nil {
		return err
	}

	log.Info().
		Str("component", rec.ComponentID).
		Str("version", rec.Version).
		Msg("ledger: new current version")
	return nil
}

// VerifyCurrent re-hashes the current record's file and compares it to the
// stored hash.
func (l *Ledger) VerifyCurrent(componentID string) error {
	current, err := l.Current(componentID)
	if err != nil {
		return err
	}
	return l.verifier.VerifyFile(current.FilePath, current.FileHash)
}

func currentRecord(lf *ledgerFile, componentID string) (VersionRecord, bool) {
	for _, rec := range lf.Records {
		if rec.ComponentID == componentID && rec.IsCurrent {
			return rec, true
		}
	}
	return VersionRecord{}, false
}

func (l *Ledger) load() (*ledgerFile, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ledgerFile{Schema: fileSchemaVersion}, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var lf ledgerFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	return &lf, nil
}

// save writes the full record set to a temp file and renames it into
// place, so a crash mid-write never leaves a truncated ledger.
func (l *Ledger) save(lf *ledgerFile) error {
	lf.Schema = fileSchemaVersion

	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := l.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmpPath := l.path + ".tmp"
	if err := afero.WriteFile(l.fs, tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write ledger temp file: %w", err)
	}
	if err := l.fs.Rename(tmpPath, l.path); err != nil {
		_ = l.fs.Remove(tmpPath)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
