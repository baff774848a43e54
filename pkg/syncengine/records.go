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

// Package syncengine computes and executes incremental file
// synchronization against a managed device: a planner decides the minimal
// copy set, an executor performs checksummed copies with bounded retry.
package syncengine

import (
	"time"

	"github.com/opencontainers/go-digest"
)

// Action says what the executor should do with a plan entry.
type Action string

const (
	ActionCopy Action = "copy"
	ActionSkip Action = "skip"
)

// Copy reasons recorded on plan entries.
const (
	ReasonAbsent   = "absent"
	ReasonSize     = "size"
	ReasonChecksum = "checksum"
)

// FileRecord is an ephemeral snapshot of one regular file, recomputed per
// sync pass and never mutated after construction. Checksum is empty until
// a comparison actually needs it; hashing is deferred because it is the
// expensive part of planning.
type FileRecord struct {
	ModifiedTime time.Time
	RelativePath string
	Checksum     digest.Digest
	SizeBytes    int64
}

// PlanEntry is one planned operation. SourcePath is the absolute location
// of the source file; DestPath is relative to the destination root.
type PlanEntry struct {
	Source     FileRecord
	SourcePath string
	DestPath   string
	Reason     string
	Action     Action
}

// SyncPlan is an ordered, deterministic sequence of operations. Every Copy
// entry's destination is absent, differs in size, or differs in checksum;
// plans never contain redundant copies.
type SyncPlan struct {
	Entries []PlanEntry
}

// CopyCount returns the number of Copy entries.
func (p *SyncPlan) CopyCount() int {
	n := 0
	for _, e := range p.Entries {
		if e.Action == ActionCopy {
			n++
		}
	}
	return n
}

// CopyBytes returns the total size of all Copy entries' sources.
func (p *SyncPlan) CopyBytes() int64 {
	var total int64
	for _, e := range p.Entries {
		if e.Action == ActionCopy {
			total += e.Source.SizeBytes
		}
	}
	return total
}

// TransferOutcome accumulates the results of one sync pass. Its Errors
// list is the single source of truth for what failed.
type TransferOutcome struct {
	Errors        []string
	FilesCopied   int
	FilesVerified int
	FilesFailed   int
	BytesCopied   int64
}

// Progress is an advisory snapshot handed to progress callbacks after each
// processed entry.
type Progress struct {
	CurrentFile string
	FilesCopied int
	FilesTotal  int
	BytesCopied int64
}
