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

package syncengine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/SkyCartProject/skycart-core/pkg/checksum"
	"github.com/SkyCartProject/skycart-core/pkg/helpers/syncutil"
	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog/log"
)

// Planner computes the minimal copy set from a list of source roots to a
// destination root.
type Planner struct {
	verifier    *checksum.Verifier
	sourceRoots []string
}

// NewPlanner creates a Planner. A nil verifier gets a default one over the
// OS filesystem.
func NewPlanner(sourceRoots []string, verifier *checksum.Verifier) *Planner {
	if verifier == nil {
		verifier = checksum.NewVerifier(nil)
	}
	return &Planner{
		sourceRoots: append([]string(nil), sourceRoots...),
		verifier:    verifier,
	}
}

// destIndex is an order-free snapshot of the destination tree: relative
// path to file size. Checksums are computed lazily during comparison.
type destIndex struct {
	sizes map[string]int64
	mu    syncutil.Mutex
}

// EachEntry streams plan entries in deterministic source-enumeration order
// (directory-then-filename lexicographic), so the full plan is never held
// in memory. fn returning an error stops enumeration.
func (p *Planner) EachEntry(ctx context.Context, destRoot string, fn func(PlanEntry) error) error {
	index, err := p.snapshotDest(destRoot)
	if err != nil {
		return err
	}

	for _, root := range p.sourceRoots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			log.Warn().Str("root", root).Msg("source root missing, skipping")
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return fmt.Errorf("failed to relativize %s: %w", path, err)
			}

			entry, err := p.compare(path, relPath, destRoot, index)
			if err != nil {
				return err
			}
			return fn(entry)
		})
		if walkErr != nil {
			return fmt.Errorf("failed to walk source root %s: %w", root, walkErr)
		}
	}
	return nil
}

// BuildPlan collects the streamed entries into a SyncPlan. Re-running it
// against a destination that already matches the sources yields a plan
// with no Copy entries.
func (p *Planner) BuildPlan(ctx context.Context, destRoot string) (*SyncPlan, error) {
	plan := &SyncPlan{}
	err := p.EachEntry(ctx, destRoot, func(entry PlanEntry) error {
		plan.Entries = append(plan.Entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// compare decides Copy or Skip for one source file. The checksum is only
// computed when sizes match; a size difference already proves the files
// differ and hashing the destination would be wasted I/O.
func (p *Planner) compare(srcPath, relPath, destRoot string, index *destIndex) (PlanEntry, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return PlanEntry{}, fmt.Errorf("failed to stat source %s: %w", srcPath, err)
	}

	record := FileRecord{
		RelativePath: relPath,
		SizeBytes:    info.Size(),
		ModifiedTime: info.ModTime(),
	}
	entry := PlanEntry{
		Source:     record,
		SourcePath: srcPath,
		DestPath:   relPath,
		Action:     ActionCopy,
	}

	destSize, exists := index.lookup(relPath)
	if !exists {
		entry.Reason = ReasonAbsent
		return entry, nil
	}
	if destSize != info.Size() {
		entry.Reason = ReasonSize
		return entry, nil
	}

	match, err := p.verifier.FilesMatch(srcPath, filepath.Join(destRoot, relPath))
	if err != nil {
		return PlanEntry{}, err
	}
	if !match {
		srcSum, err := p.verifier.SumFile(srcPath)
		if err != nil {
			return PlanEntry{}, err
		}
		entry.Source.Checksum = srcSum
		entry.Reason = ReasonChecksum
		return entry, nil
	}

	entry.Action = ActionSkip
	return entry, nil
}

// snapshotDest walks the destination concurrently; entry order does not
// matter for an index keyed by relative path.
func (p *Planner) snapshotDest(destRoot string) (*destIndex, error) {
	index := &destIndex{sizes: make(map[string]int64)}

	if _, err := os.Stat(destRoot); os.IsNotExist(err) {
		return index, nil
	}

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, destRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(destRoot, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}

		index.mu.Lock()
		index.sizes[relPath] = info.Size()
		index.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot destination %s: %w", destRoot, err)
	}
	return index, nil
}

func (idx *destIndex) lookup(relPath string) (int64, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	size, ok := idx.sizes[relPath]
	return size, ok
}
